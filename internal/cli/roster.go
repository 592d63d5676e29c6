package cli

import (
	"cmp"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/santa/internal/profile"
	"github.com/roach88/santa/internal/store"
)

// RosterEntry is one participant in roster output.
type RosterEntry struct {
	ID             string                     `json:"id"`
	RecipientLabel string                     `json:"recipient_label"`
	Pickup         map[profile.Channel]string `json:"pickup"`
	Note           string                     `json:"note"`
	AssignedTarget string                     `json:"assigned_target,omitempty"`
}

// NewRosterCommand creates the roster command.
func NewRosterCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "roster",
		Short: "List registered participants",
		Long: `List registered participants and their current assignments, ordered by id.

Example:
  santa roster --db ./santa.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoster(rootOpts, cmd)
		},
	}
}

func runRoster(opts *RootOptions, cmd *cobra.Command) error {
	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	roster, err := st.GetAll(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read roster", err)
	}
	entries := rosterEntries(roster)

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(entries)
	}
	writeRoster(cmd.OutOrStdout(), entries)
	return nil
}

func rosterEntries(roster map[string]profile.GiftProfile) []RosterEntry {
	entries := make([]RosterEntry, 0, len(roster))
	for id, p := range roster {
		entries = append(entries, RosterEntry{
			ID:             id,
			RecipientLabel: p.RecipientLabel,
			Pickup:         p.Pickup,
			Note:           p.Note,
			AssignedTarget: p.AssignedTarget,
		})
	}
	slices.SortFunc(entries, func(a, b RosterEntry) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return entries
}

func writeRoster(w io.Writer, entries []RosterEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No participants registered.")
		return
	}
	assigned := 0
	for _, e := range entries {
		target := "-"
		if e.AssignedTarget != "" {
			target = e.AssignedTarget
			assigned++
		}
		fmt.Fprintf(w, "%s  %q -> %s\n", e.ID, e.RecipientLabel, target)
		for _, ch := range profile.Channels {
			fmt.Fprintf(w, "    %-12s %s\n", ch, e.Pickup[ch])
		}
		fmt.Fprintf(w, "    %-12s %s\n", "note", e.Note)
	}
	fmt.Fprintf(w, "\nParticipants: %d, assigned: %d\n", len(entries), assigned)
}

// openStore opens the configured database without an exchange around it.
func (o *RootOptions) openStore() (*store.Store, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.DB)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}
