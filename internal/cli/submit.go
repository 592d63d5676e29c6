package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/santa/internal/command"
)

// SubmitOptions holds flags for the submit command.
type SubmitOptions struct {
	*RootOptions
	Recipient   string
	Ozon        string
	Wildberries string
	Yandex      string
	Note        string
}

// NewSubmitCommand creates the submit command.
func NewSubmitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SubmitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "submit <participant>",
		Short: "Register or update a participant's gift details",
		Long: `Register or update a participant's gift details.

Resubmitting replaces every field but keeps an existing assignment.
Empty pickup points are stored as "none".

Example:
  santa submit 1001 --recipient "Maria Petrova" --ozon "Moscow, Lenina 1"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Recipient, "recipient", "", "name shown to the giver (required)")
	cmd.Flags().StringVar(&opts.Ozon, "ozon", "", "Ozon pickup point")
	cmd.Flags().StringVar(&opts.Wildberries, "wildberries", "", "Wildberries pickup point")
	cmd.Flags().StringVar(&opts.Yandex, "yandex", "", "Yandex Market pickup point")
	cmd.Flags().StringVar(&opts.Note, "note", "", "wishes or restrictions")
	_ = cmd.MarkFlagRequired("recipient")

	return cmd
}

func runSubmit(opts *SubmitOptions, participant string, cmd *cobra.Command) error {
	local, err := opts.openLocal(cmd, nil)
	if err != nil {
		return err
	}
	defer local.Close()

	reply := local.dispatcher.Handle(cmd.Context(), command.Request{
		Kind:    command.KindSubmitProfile,
		Channel: command.ChannelDM,
		Sender:  participant,
		Profile: &command.ProfileFields{
			Recipient:   opts.Recipient,
			Ozon:        opts.Ozon,
			Wildberries: opts.Wildberries,
			Yandex:      opts.Yandex,
			Note:        opts.Note,
		},
	}, nil)
	return opts.formatter(cmd).Reply(reply)
}
