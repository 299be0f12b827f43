package cli

import (
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/compilingdogs/pd/internal/config"
)

var (
	errorLabel = color.New(color.FgRed, color.Bold).SprintFunc()
	hintLabel  = color.New(color.FgYellow).SprintFunc()
	gutter     = color.New(color.FgHiBlack).SprintFunc()
	valueText  = color.New(color.FgCyan).SprintFunc()
)

// ShouldUseColor determines if color output should be used.
// NO_COLOR wins over the configuration; "auto" colors only terminals.
func ShouldUseColor(cfg *config.Config, out io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return cfg.UseColor(isTerminal(out))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
