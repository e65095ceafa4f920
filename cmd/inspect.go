package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dispatch-sim/dispatch-sim/sim/delivery"
	"github.com/dispatch-sim/dispatch-sim/sim/store"
	"github.com/dispatch-sim/dispatch-sim/sim/trace"
)

var (
	// CLI flags for the inspect command
	inspectDBPath string // SQLite file written by run --trace-db
	inspectRunID  string // Run to replay; empty lists runs
	inspectLimit  int    // Maximum runs to list
)

// inspectCmd reads event logs exported by run --trace-db
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "List exported runs or replay and verify one of them",
	Run: func(cmd *cobra.Command, args []string) {
		if err := inspect(cmd.Context(), inspectDBPath, inspectRunID, inspectLimit, cmd.OutOrStdout()); err != nil {
			logrus.Fatalf("Inspect failed: %v", err)
		}
	},
}

func inspect(ctx context.Context, dbPath, runID string, limit int, out io.Writer) error {
	db, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	ts, err := store.NewSQLiteTraceStore(db)
	if err != nil {
		return err
	}

	if runID == "" {
		return listRuns(ctx, ts, limit, out)
	}
	id, err := uuid.Parse(runID)
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", runID, err)
	}
	return replayRun(ctx, ts, id, out)
}

func listRuns(ctx context.Context, ts *store.SQLiteTraceStore, limit int, out io.Writer) error {
	runs, err := ts.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs stored")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tSTRATEGY\tRATE\tSEED\tENTRIES\tCREATED")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%g\t%d\t%d\t%s\n", r.ID, r.Strategy, r.Acceleration, r.Seed, r.Entries, r.CreatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}

func replayRun(ctx context.Context, ts *store.SQLiteTraceStore, id uuid.UUID, out io.Writer) error {
	l, err := ts.LoadLog(ctx, id)
	if err != nil {
		return err
	}
	if err := delivery.Replay(out, l); err != nil {
		return err
	}

	sum := trace.Summarize(l)
	fmt.Fprintf(out, "Picked               : %d\n", sum.Picked)
	fmt.Fprintf(out, "Food Wait mean/p90/max    : %v / %v / %v\n", sum.MeanFoodWait, sum.P90FoodWait, sum.MaxFoodWait)
	fmt.Fprintf(out, "Carrier Wait mean/p90/max : %v / %v / %v\n", sum.MeanCarrierWait, sum.P90CarrierWait, sum.MaxCarrierWait)
	if err := trace.Check(l); err != nil {
		fmt.Fprintf(out, "Invariant check      : FAILED\n%v\n", err)
		return nil
	}
	fmt.Fprintln(out, "Invariant check      : ok")
	return nil
}

func init() {
	inspectCmd.Flags().StringVar(&inspectDBPath, "trace-db", "dispatch-trace.db", "SQLite file written by run --trace-db")
	inspectCmd.Flags().StringVar(&inspectRunID, "run", "", "Run id to replay (lists runs when empty)")
	inspectCmd.Flags().IntVar(&inspectLimit, "limit", 20, "Maximum number of runs to list")
}
