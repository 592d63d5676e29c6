package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/santa/internal/command"
	"github.com/roach88/santa/internal/notify"
)

// ForwardOptions holds flags for the forward command.
type ForwardOptions struct {
	*RootOptions
	Attachment  string
	ContentType string
	Note        string
	Closed      []string
}

// NewForwardCommand creates the forward command.
func NewForwardCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ForwardOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "forward <sender>",
		Short: "Forward a pickup code from a giver to their recipient",
		Long: `Forward a pickup code from a giver to their recipient.

The sender must have an assignment from the most recent exchange.

Example:
  santa forward 1001 --attachment https://cdn.example.com/qr.png --note "until Friday"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runForward(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Attachment, "attachment", "", "attachment URL (QR code image)")
	cmd.Flags().StringVar(&opts.ContentType, "content-type", "", "attachment content type")
	cmd.Flags().StringVar(&opts.Note, "note", "", "message to the recipient")
	cmd.Flags().StringSliceVar(&opts.Closed, "closed", nil, "participants whose private messages are closed")

	return cmd
}

func runForward(opts *ForwardOptions, sender string, cmd *cobra.Command) error {
	local, err := opts.openLocal(cmd, opts.Closed)
	if err != nil {
		return err
	}
	defer local.Close()

	req := command.Request{
		Kind:    command.KindForward,
		Channel: command.ChannelDM,
		Sender:  sender,
		Note:    opts.Note,
	}
	if opts.Attachment != "" {
		req.Attachment = &notify.Attachment{URL: opts.Attachment, ContentType: opts.ContentType}
	}

	reply := local.dispatcher.Handle(cmd.Context(), req, nil)
	return opts.formatter(cmd).Reply(reply)
}
