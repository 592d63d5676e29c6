package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/santa/internal/command"
)

// StartOptions holds flags for the start command.
type StartOptions struct {
	*RootOptions
	As     string
	Closed []string
}

// NewStartCommand creates the start command.
func NewStartCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StartOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Run the exchange and notify every giver",
		Long: `Run the exchange: assign every registered participant a recipient
and print the private message each giver would receive.

The caller must be the configured operator. Running again replaces every
assignment.

Example:
  santa start --as 1001
  santa start --as 1001 --closed 1002,1003`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.As, "as", "", "participant starting the exchange (defaults to the configured operator)")
	cmd.Flags().StringSliceVar(&opts.Closed, "closed", nil, "participants whose private messages are closed")

	return cmd
}

func runStart(opts *StartOptions, cmd *cobra.Command) error {
	local, err := opts.openLocal(cmd, opts.Closed)
	if err != nil {
		return err
	}
	defer local.Close()

	sender := opts.As
	if sender == "" {
		sender = local.cfg.OperatorID
	}

	f := opts.formatter(cmd)
	reply := local.dispatcher.Handle(cmd.Context(), command.Request{
		Kind:    command.KindStartExchange,
		Channel: command.ChannelGuild,
		Sender:  sender,
	}, func(ack command.Reply) {
		f.VerboseLog("%s", ack.Text)
	})
	return f.Reply(reply)
}
