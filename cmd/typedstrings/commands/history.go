package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	ferrors "git.home.luguber.info/inful/typedstrings/internal/foundation/errors"
	"git.home.luguber.info/inful/typedstrings/internal/logfields"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int    `short:"n" help:"Number of runs to show (0 for all)" default:"10"`
	RunID string `name:"run" help:"Show the unit results of one run"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	a, err := newApp(root)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Warn("Failed to close resources", logfields.Error(err))
		}
	}()

	if a.journal == nil {
		return ferrors.ConfigError("run history is disabled (history.enabled: false)").Build()
	}

	ctx := context.Background()
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	if h.RunID != "" {
		units, err := a.journal.UnitResults(ctx, h.RunID)
		if err != nil {
			return ferrors.StoreError("read unit results").WithCause(err).WithSeverity(ferrors.SeverityError).Build()
		}
		if len(units) == 0 {
			return ferrors.NotFoundError(fmt.Sprintf("no results for run %q", h.RunID)).Build()
		}
		_, _ = fmt.Fprintln(tw, "UNIT\tRESULT\tENTRIES\tDURATION\tPATH\tERROR")
		for _, u := range units {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n", u.Unit, u.Result, u.Entries, u.Duration, u.Path, u.Error)
		}
		return tw.Flush()
	}

	runs, err := a.journal.Runs(ctx, h.Limit)
	if err != nil {
		return ferrors.StoreError("read runs").WithCause(err).WithSeverity(ferrors.SeverityError).Build()
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet")
		return nil
	}
	_, _ = fmt.Fprintln(tw, "RUN\tSTARTED\tOUTCOME\tUNITS\tFAILED\tDURATION\tOUTPUT")
	for _, r := range runs {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			r.RunID, r.StartedAt.Local().Format(time.DateTime), r.Outcome, r.Units, r.Failed, r.Duration, r.Output)
	}
	return tw.Flush()
}
