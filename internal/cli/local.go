package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/santa/internal/command"
	"github.com/roach88/santa/internal/config"
	"github.com/roach88/santa/internal/derange"
	"github.com/roach88/santa/internal/exchange"
	"github.com/roach88/santa/internal/notify"
	"github.com/roach88/santa/internal/store"
)

// localExchange is an exchange over the configured database whose private
// messages are printed instead of sent. It backs the one-shot commands.
type localExchange struct {
	cfg        config.Config
	store      *store.Store
	dispatcher *command.Dispatcher
}

// openLocal loads the config and opens the database. Participants listed in
// closed are treated as having private messages disabled.
func (o *RootOptions) openLocal(cmd *cobra.Command, closed []string) (*localExchange, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.DB)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	logger := o.newLogger(cmd.ErrOrStderr())
	renderer := notify.NewRenderer(cfg.Locale)

	// Keep stdout parseable in JSON mode.
	outbox := cmd.OutOrStdout()
	if o.Format == "json" {
		outbox = cmd.ErrOrStderr()
	}

	orch := exchange.New(st, notify.NewOutbox(outbox, renderer, closed...),
		exchange.WithOperator(cfg.OperatorID),
		exchange.WithJournal(st),
		exchange.WithRunLock(st),
		exchange.WithLogger(logger),
		exchange.WithDerangeOptions(derange.WithMaxTrials(cfg.MaxTrials)),
	)

	return &localExchange{
		cfg:        cfg,
		store:      st,
		dispatcher: command.NewDispatcher(orch, renderer, logger),
	}, nil
}

func (l *localExchange) Close() error {
	return l.store.Close()
}
