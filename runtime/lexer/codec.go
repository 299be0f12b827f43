package lexer

import (
	"bytes"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"
)

// StreamVersion is the current token stream format version
const StreamVersion uint8 = 1

// tokenStream is the interchange form of a lexed program. It lets an external
// lexer hand tokens to the parser, and lets `pd tokens -o` save them.
type tokenStream struct {
	Version uint8         `cbor:"1,keyasint"`
	Source  string        `cbor:"2,keyasint,omitempty"` // Originating file, informational
	Tokens  []streamToken `cbor:"3,keyasint"`
	Digest  []byte        `cbor:"4,keyasint"` // BLAKE2b-256 of the canonical Tokens encoding
}

type streamToken struct {
	Type   TokenType `cbor:"1,keyasint"`
	Text   []byte    `cbor:"2,keyasint,omitempty"`
	Line   int       `cbor:"3,keyasint"`
	Column int       `cbor:"4,keyasint"`
	Offset int       `cbor:"5,keyasint"`
}

// EncodeTokens writes tokens as deterministic CBOR.
// The same token sequence always produces the same bytes.
func EncodeTokens(w io.Writer, source string, tokens []Token) error {
	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return fmt.Errorf("failed to create CBOR encoder: %w", err)
	}

	stream := tokenStream{
		Version: StreamVersion,
		Source:  source,
		Tokens:  make([]streamToken, len(tokens)),
	}
	for i, tok := range tokens {
		stream.Tokens[i] = streamToken{
			Type:   tok.Type,
			Text:   tok.Text,
			Line:   tok.Position.Line,
			Column: tok.Position.Column,
			Offset: tok.Position.Offset,
		}
	}

	if stream.Digest, err = tokensDigest(encMode, stream.Tokens); err != nil {
		return err
	}

	data, err := encMode.Marshal(stream)
	if err != nil {
		return fmt.Errorf("CBOR encoding failed: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write token stream: %w", err)
	}
	return nil
}

// DecodeTokens reads a token stream written by EncodeTokens and validates it
func DecodeTokens(r io.Reader) ([]Token, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read token stream: %w", err)
	}

	var stream tokenStream
	if err := cbor.Unmarshal(data, &stream); err != nil {
		return nil, "", fmt.Errorf("CBOR decoding failed: %w", err)
	}
	if stream.Version != StreamVersion {
		return nil, "", fmt.Errorf("unsupported token stream version %d (want %d)", stream.Version, StreamVersion)
	}

	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, "", fmt.Errorf("failed to create CBOR encoder: %w", err)
	}
	digest, err := tokensDigest(encMode, stream.Tokens)
	if err != nil {
		return nil, "", err
	}
	if !bytes.Equal(digest, stream.Digest) {
		return nil, "", fmt.Errorf("token stream digest mismatch")
	}

	tokens := make([]Token, len(stream.Tokens))
	for i, st := range stream.Tokens {
		if !st.Type.Valid() {
			return nil, "", fmt.Errorf("token %d: invalid token type %d", i, st.Type)
		}
		if st.Line < 1 || st.Column < 1 {
			return nil, "", fmt.Errorf("token %d: invalid position %d:%d", i, st.Line, st.Column)
		}
		text := st.Text
		if st.Type == STRING && text == nil {
			text = []byte{}
		}
		tokens[i] = Token{
			Type:     st.Type,
			Text:     text,
			Position: Position{Line: st.Line, Column: st.Column, Offset: st.Offset},
		}
	}
	return tokens, stream.Source, nil
}

// tokensDigest hashes the canonical encoding of tokens. Canonical CBOR makes
// the digest independent of how the stream was produced.
func tokensDigest(encMode cbor.EncMode, tokens []streamToken) ([]byte, error) {
	body, err := encMode.Marshal(tokens)
	if err != nil {
		return nil, fmt.Errorf("CBOR encoding failed: %w", err)
	}
	sum := blake2b.Sum256(body)
	return sum[:], nil
}
