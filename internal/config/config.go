// Package config loads the optional .pd.yaml file. The document is checked
// against an embedded JSON Schema before it is decoded over the defaults,
// so a typo in a key is reported instead of silently ignored.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	pderrors "github.com/compilingdogs/pd/core/errors"
	"github.com/compilingdogs/pd/runtime/interpreter"
	"github.com/compilingdogs/pd/runtime/parser"
)

// DefaultFile is looked up in the working directory when no path is given
const DefaultFile = ".pd.yaml"

// Version of the pd toolchain, checked against a file's "requires" key
const Version = "v0.3.0"

// Alternation policies
const (
	AlternationFirst   = "first"
	AlternationLongest = "longest"
)

// Color modes
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

//go:embed schema.json
var schemaJSON string

type Config struct {
	Requires    string      `yaml:"requires"` // Minimum toolchain version, e.g. v0.3
	Parser      Parser      `yaml:"parser"`
	Interpreter Interpreter `yaml:"interpreter"`
	Output      Output      `yaml:"output"`

	// Path of the file the values came from; empty for defaults
	Path string `yaml:"-"`
}

type Parser struct {
	Alternation string `yaml:"alternation"`
	MaxDepth    int    `yaml:"max_depth"`
	Trace       bool   `yaml:"trace"`
}

type Interpreter struct {
	MaxCallDepth int  `yaml:"max_call_depth"`
	Suggestions  bool `yaml:"suggestions"`
}

type Output struct {
	Color string `yaml:"color"`
}

func Default() *Config {
	return &Config{
		Parser: Parser{
			Alternation: AlternationFirst,
			MaxDepth:    4096,
		},
		Interpreter: Interpreter{
			MaxCallDepth: interpreter.DefaultMaxCallDepth,
			Suggestions:  true,
		},
		Output: Output{Color: ColorAuto},
	}
}

// Load reads the configuration at path. An empty path means DefaultFile if
// it exists, and the defaults otherwise.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, pderrors.NewConfigError(path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, pderrors.NewConfigError(path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// Parse validates and decodes a YAML document. Keys it leaves out keep
// their default values.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}

	if err := validate(data); err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if cfg.Requires != "" && semver.Compare(Version, canonicalVersion(cfg.Requires)) < 0 {
		return nil, fmt.Errorf("configuration requires pd %s, this is %s", cfg.Requires, Version)
	}
	return cfg, nil
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true
		if compiler.Formats == nil {
			compiler.Formats = make(map[string]func(interface{}) bool)
		}
		compiler.Formats["semver"] = func(v interface{}) bool {
			s, ok := v.(string)
			if !ok {
				return true
			}
			return semver.IsValid(canonicalVersion(s))
		}

		url := "schema://pd/config.json"
		if err := compiler.AddResource(url, strings.NewReader(schemaJSON)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = compiler.Compile(url)
	})
	return schema, schemaErr
}

// validate checks the YAML document against the schema. The document goes
// through JSON first so numbers reach the validator as json.Number.
func validate(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if doc == nil {
		return nil
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("config keys must be strings: %w", err)
	}
	var instance any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&instance); err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	return s.Validate(instance)
}

// canonicalVersion accepts versions with or without the leading "v"
func canonicalVersion(v string) string {
	if !strings.HasPrefix(v, "v") {
		return "v" + v
	}
	return v
}

// ParserOptions converts the parser section; trace receives the match trace
// when tracing is on.
func (c *Config) ParserOptions(trace io.Writer) []parser.ParserOpt {
	var opts []parser.ParserOpt
	if c.Parser.Alternation == AlternationLongest {
		opts = append(opts, parser.WithLongestMatch())
	}
	if c.Parser.MaxDepth > 0 {
		opts = append(opts, parser.WithMaxDepth(c.Parser.MaxDepth))
	}
	if c.Parser.Trace && trace != nil {
		opts = append(opts, parser.WithTrace(trace))
	}
	return opts
}

func (c *Config) InterpreterOptions() []interpreter.Option {
	return []interpreter.Option{
		interpreter.WithMaxCallDepth(c.Interpreter.MaxCallDepth),
		interpreter.WithSuggestions(c.Interpreter.Suggestions),
	}
}

// UseColor resolves the color mode; terminal reports whether the output is
// a terminal, which decides "auto".
func (c *Config) UseColor(terminal bool) bool {
	switch c.Output.Color {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	return terminal
}
