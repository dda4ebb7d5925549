package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/typedstrings/internal/logfields"
	"git.home.luguber.info/inful/typedstrings/internal/naming"
)

// RelocateCmd implements the 'relocate' command.
type RelocateCmd struct {
	From string `required:"" help:"Folder currently holding the generated files, relative to the project root"`
	To   string `help:"Destination folder relative to the project root (default: configured output folder)"`
}

func (r *RelocateCmd) Run(_ *Global, root *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(root)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Warn("Failed to close resources", logfields.Error(err))
		}
	}()

	from := naming.ToFolderPath(r.From)
	to := a.cfg.OutputPath()
	if r.To != "" {
		to = naming.ToFolderPath(r.To)
	}

	result, err := a.coordinator.Relocate(ctx, a.outputDir(from), a.outputDir(to))
	for _, moved := range result.Moved {
		fmt.Printf("moved   %s\n", moved)
	}
	for _, removed := range result.Removed {
		fmt.Printf("removed %s\n", removed)
	}
	if err != nil {
		return runError(err)
	}
	if to == a.cfg.OutputPath() {
		a.recordOutput(ctx, to)
	}
	fmt.Printf("%d files moved from %s to %s\n", len(result.Moved), from, to)
	return nil
}
