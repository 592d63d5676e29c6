package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/santa/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Limit       int
	Participant string
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "Show the exchange run journal",
		Long: `Show the exchange run journal.

Without arguments, lists the most recent runs. With a run id, shows every
notification attempt of that run. With --participant, shows every attempt
addressed to that participant across runs.

Examples:
  santa runs
  santa runs 0193a5c2-7d1e-7000-8000-000000000001
  santa runs --participant 1002`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, args, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum runs to list (0 = all)")
	cmd.Flags().StringVar(&opts.Participant, "participant", "", "show deliveries addressed to this participant")

	return cmd
}

func runRuns(opts *RunsOptions, args []string, cmd *cobra.Command) error {
	if len(args) > 0 && opts.Participant != "" {
		return NewExitError(ExitCommandError, "run id and --participant are mutually exclusive")
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	f := opts.formatter(cmd)
	w := cmd.OutOrStdout()

	switch {
	case len(args) == 1:
		run, err := st.ReadRun(ctx, args[0])
		if errors.Is(err, store.ErrNotFound) {
			return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", args[0]))
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read run", err)
		}
		if opts.Format == "json" {
			return f.Success(run)
		}
		writeRun(w, run)
		return nil

	case opts.Participant != "":
		deliveries, err := st.DeliveriesFor(ctx, opts.Participant)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read deliveries", err)
		}
		if opts.Format == "json" {
			return f.Success(deliveries)
		}
		writeDeliveries(w, deliveries)
		return nil

	default:
		runs, err := st.ListRuns(ctx, opts.Limit)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		if opts.Format == "json" {
			return f.Success(runs)
		}
		writeRuns(w, runs)
		return nil
	}
}

func writeRuns(w io.Writer, runs []store.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	for _, run := range runs {
		fallback := ""
		if run.Fallback {
			fallback = " (rotation)"
		}
		fmt.Fprintf(w, "%s  %s  participants=%d trials=%d%s\n",
			run.ID, run.StartedAt.Format(time.RFC3339), run.Participants, run.Trials, fallback)
	}
}

func writeRun(w io.Writer, run store.Run) {
	fmt.Fprintf(w, "Run: %s\n", run.ID)
	fmt.Fprintf(w, "Operator: %s\n", run.OperatorID)
	fmt.Fprintf(w, "Started: %s\n", run.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Finished: %s\n", run.FinishedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Participants: %d (trials %d, rotation %t)\n", run.Participants, run.Trials, run.Fallback)
	fmt.Fprintln(w)
	writeDeliveries(w, run.Deliveries)
	fmt.Fprintf(w, "\nDelivered: %d, unreachable: %d, transport failures: %d, skipped: %d\n",
		run.Count(store.OutcomeDelivered),
		run.Count(store.OutcomeUnreachable),
		run.Count(store.OutcomeTransportFailure),
		run.Count(store.OutcomeSkipped),
	)
}

func writeDeliveries(w io.Writer, deliveries []store.Delivery) {
	if len(deliveries) == 0 {
		fmt.Fprintln(w, "No deliveries.")
		return
	}
	for _, d := range deliveries {
		fmt.Fprintf(w, "  [%d] %s -> %s  %s", d.Seq, d.ParticipantID, d.TargetID, d.Outcome)
		if d.Error != "" {
			fmt.Fprintf(w, "  (%s)", d.Error)
		}
		fmt.Fprintln(w)
	}
}
