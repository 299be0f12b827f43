package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	pderrors "github.com/compilingdogs/pd/core/errors"
)

// settle collapses the burst of events an editor save produces
const settle = 100 * time.Millisecond

func newWatchCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch FILE",
		Short: "Run a PD program again every time it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.watch(cmd.Context(), args[0], nil)
		},
	}
}

// watch runs path once, then after every change until ctx is done. Program
// failures are reported and watching continues. ran, if set, is called
// after every run.
func (a *app) watch(ctx context.Context, path string, ran func(error)) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return pderrors.NewSourceError(path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return pderrors.NewSourceError(path, err)
	}
	defer w.Close()

	// Editors often replace the file, so watch its directory
	if err := w.Add(filepath.Dir(target)); err != nil {
		return pderrors.NewSourceError(path, err)
	}

	runOnce := func() {
		err := a.runFile(target, false)
		if err != nil {
			FormatError(a.streams.Err, err)
		}
		_, _ = fmt.Fprintf(a.streams.Err, "%s\n", gutter("--- watching "+path+" (ctrl-c to stop)"))
		if ran != nil {
			ran(err)
		}
	}
	runOnce()

	timer := time.NewTimer(settle)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			a.logger.Debug("source changed", "path", ev.Name, "op", ev.Op.String())
			timer.Reset(settle)
		case <-timer.C:
			runOnce()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			a.logger.Debug("watch error", "error", err)
			_, _ = fmt.Fprintf(a.streams.Err, "%s %v\n", errorLabel("Error:"), err)
		}
	}
}
