// Package interpreter evaluates a parsed PD program by walking its syntax
// tree.
//
// Every construct with private effects (if, for and while bodies, function
// calls) runs against a Scope clone and merges back only what the outer
// scope should see. A return sets the scope's stopped flag instead of
// unwinding, and every statement runner checks the flag before the next
// statement.
package interpreter

import (
	"log/slog"
	"time"

	"github.com/compilingdogs/pd/internal/logging"
	"github.com/compilingdogs/pd/runtime/ast"
	"github.com/compilingdogs/pd/runtime/value"
)

// Interpreter runs programs. It is not safe for concurrent use; the call
// depth counter and the console belong to one running program.
type Interpreter struct {
	cfg     Config
	console *Console
	logger  *slog.Logger
	depth   int
}

// New creates an interpreter. Without WithInput the read built-ins see end
// of input; without WithOutput print output is discarded.
func New(opts ...Option) *Interpreter {
	cfg := Config{maxCallDepth: DefaultMaxCallDepth, suggestions: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Interpreter{
		cfg:     cfg,
		console: NewConsole(cfg.stdin, cfg.stdout),
		logger:  logging.OrDefault(cfg.logger),
	}
}

// Run executes program in a fresh scope and returns the program result:
// Integer 0 on success, or a String carrying the error message when the
// program failed.
func (in *Interpreter) Run(program *ast.Program) value.Value {
	if _, err := in.Exec(program, NewScope()); err != nil {
		return value.String(err.Error())
	}
	return value.NewInt(0)
}

// Exec executes program's statements in scope and returns the value of the
// last statement run. The REPL calls it repeatedly with one scope. A
// top-level return ends the program but leaves scope usable.
func (in *Interpreter) Exec(program *ast.Program, scope *Scope) (value.Value, error) {
	start := time.Now()
	in.depth = 0

	result, err := in.statements(program.Statements, scope)
	scope.Resume()

	if err != nil {
		in.logger.Debug("execution failed", "error", err, "duration", time.Since(start))
		return nil, err
	}
	in.logger.Debug("executed",
		"statements", len(program.Statements),
		"bindings", scope.Len(),
		"duration", time.Since(start))
	return result, nil
}
