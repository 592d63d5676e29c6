package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/santa/internal/store"
)

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <presents.json>",
		Short: "Import a legacy presents.json roster",
		Long: `Import a roster written by the first version of the bot.

Every participant in the file is upserted together with their assignment.
Participants not in the file are left untouched.

Example:
  santa import ./presents.json --db ./santa.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, args[0], cmd)
		},
	}
}

func runImport(opts *RootOptions, path string, cmd *cobra.Command) error {
	f, err := os.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open legacy roster", err)
	}
	defer f.Close()

	roster, err := store.DecodeLegacy(f)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to decode legacy roster", err)
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.PutAll(cmd.Context(), roster); err != nil {
		return WrapExitError(ExitCommandError, "failed to import roster", err)
	}

	out := opts.formatter(cmd)
	if opts.Format == "json" {
		return out.Success(map[string]int{"imported": len(roster)})
	}
	return out.Success(fmt.Sprintf("Imported %d participants from %s", len(roster), path))
}

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Output string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the roster as legacy presents.json",
		Long: `Export the roster in the format of the first version of the bot.

Example:
  santa export --db ./santa.db -o presents.json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default stdout)")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	roster, err := st.GetAll(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read roster", err)
	}

	if opts.Output == "" {
		return store.EncodeLegacy(cmd.OutOrStdout(), roster)
	}

	f, err := os.Create(opts.Output)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create output file", err)
	}
	if err := store.EncodeLegacy(f, roster); err != nil {
		f.Close()
		return WrapExitError(ExitCommandError, "failed to export roster", err)
	}
	if err := f.Close(); err != nil {
		return WrapExitError(ExitCommandError, "failed to write output file", err)
	}
	opts.formatter(cmd).VerboseLog("exported %d participants to %s", len(roster), opts.Output)
	return nil
}
