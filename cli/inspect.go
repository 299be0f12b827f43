package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	pderrors "github.com/compilingdogs/pd/core/errors"
	"github.com/compilingdogs/pd/runtime/ast"
	"github.com/compilingdogs/pd/runtime/lexer"
)

func newTokensCommand(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "tokens FILE",
		Short: "Print the token stream of a PD program",
		Long: "Print the token stream of a PD program, one token per line.\n" +
			"With -o the stream is written as CBOR for 'pd run --tokens'.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.readSource(args[0])
			if err != nil {
				return err
			}
			tokens, err := lexer.Tokenize(string(data), lexer.WithLogger(a.logger))
			if err != nil {
				return withSource(pderrors.NewLexError(err), data)
			}

			if output == "" {
				for _, tok := range tokens {
					_, _ = fmt.Fprintf(a.streams.Out, "%s %-12s %s\n",
						gutter(fmt.Sprintf("%3d:%-3d", tok.Position.Line, tok.Position.Column)), tok.Type, tok)
				}
				return nil
			}

			f, err := os.Create(output)
			if err != nil {
				return pderrors.Wrap(pderrors.ErrTokenStream, fmt.Sprintf("cannot create '%s'", output), err)
			}
			if err := lexer.EncodeTokens(f, origin(args[0]), tokens); err != nil {
				_ = f.Close()
				return pderrors.Wrap(pderrors.ErrTokenStream, "cannot encode token stream", err)
			}
			if err := f.Close(); err != nil {
				return pderrors.Wrap(pderrors.ErrTokenStream, fmt.Sprintf("cannot write '%s'", output), err)
			}
			a.logger.Debug("wrote token stream", "path", output, "tokens", len(tokens))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the stream as CBOR to this file")
	return cmd
}

func newASTCommand(a *app) *cobra.Command {
	var fromTokens bool

	cmd := &cobra.Command{
		Use:   "ast FILE",
		Short: "Print the syntax tree of a PD program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.readSource(args[0])
			if err != nil {
				return err
			}
			tree, err := a.parse(data, fromTokens)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(a.streams.Out, ast.Dump(tree.Program))
			return nil
		},
	}
	cmd.Flags().BoolVar(&fromTokens, "tokens", false, "FILE is a CBOR token stream")
	return cmd
}

// origin names the source recorded in a token stream; stdin has none
func origin(path string) string {
	if path == "-" {
		return ""
	}
	return path
}
