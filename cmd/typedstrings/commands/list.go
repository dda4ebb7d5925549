package commands

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"git.home.luguber.info/inful/typedstrings/internal/logfields"
	"git.home.luguber.info/inful/typedstrings/internal/naming"
)

// ListCmd implements the 'list' command.
type ListCmd struct {
	Search string `short:"s" help:"Only show units whose label contains any of these words (case-insensitive)"`
}

func (l *ListCmd) Run(_ *Global, root *CLI) error {
	a, err := newApp(root)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Warn("Failed to close resources", logfields.Error(err))
		}
	}()

	units := a.coordinator.Units()
	locations := a.coordinator.Locate(a.options().Destination)

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "PRIORITY\tUNIT\tFILE\tGENERATED")
	shown := 0
	for i, u := range units {
		if !naming.MatchSearch(l.Search, u.Label) {
			continue
		}
		generated := "no"
		if locations[i].Exists {
			generated = "yes"
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", u.Priority, u.Label, locations[i].Path, generated)
		shown++
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if shown == 0 && l.Search != "" {
		fmt.Printf("No unit matches %q\n", l.Search)
	}
	return nil
}
