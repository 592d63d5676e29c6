package cli

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/santa/internal/command"
	"github.com/roach88/santa/internal/config"
	"github.com/roach88/santa/internal/derange"
	"github.com/roach88/santa/internal/exchange"
	"github.com/roach88/santa/internal/hub"
	"github.com/roach88/santa/internal/metrics"
	"github.com/roach88/santa/internal/notify"
	"github.com/roach88/santa/internal/store"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Listen   string
	Operator string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the exchange over WebSocket",
		Long: `Serve the exchange over WebSocket.

Participants connect to /ws?participant=<id> (add &dms=closed to refuse
private messages) and send JSON command frames. Private messages are
pushed to the participant's open sessions.

Endpoints:
  /ws       command surface and private messages
  /metrics  Prometheus metrics
  /healthz  database health

Example:
  santa serve --db ./santa.db --listen :8080 --operator 1001`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Listen, "listen", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&opts.Operator, "operator", "", "operator participant id (overrides config)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if opts.Listen != "" {
		cfg.Listen = opts.Listen
	}
	if opts.Operator != "" {
		cfg.OperatorID = opts.Operator
	}

	logger := opts.newLogger(cmd.ErrOrStderr())
	if cfg.OperatorID == "" {
		logger.Warn("no operator configured, start_exchange will be denied")
	}

	st, err := store.Open(cfg.DB)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	lis, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to listen", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return newServer(cfg, st, logger).serve(ctx, lis)
}

// server is the long-running form of the exchange: one hub acting as both
// command surface and gateway.
type server struct {
	cfg      config.Config
	store    *store.Store
	hub      *hub.Hub
	registry *prometheus.Registry
	http     *http.Server
	logger   *slog.Logger
}

func newServer(cfg config.Config, st *store.Store, logger *slog.Logger) *server {
	registry := prometheus.NewRegistry()
	collector := metrics.NewPrometheus(registry, metrics.DefaultNamespace)
	renderer := notify.NewRenderer(cfg.Locale)

	h := hub.New(renderer,
		hub.WithSendBuffer(cfg.SendBuffer),
		hub.WithMetrics(collector),
		hub.WithLogger(logger),
	)
	orch := exchange.New(st, h,
		exchange.WithOperator(cfg.OperatorID),
		exchange.WithJournal(st),
		exchange.WithRunLock(st),
		exchange.WithMetrics(collector),
		exchange.WithLogger(logger),
		exchange.WithDerangeOptions(derange.WithMaxTrials(cfg.MaxTrials)),
	)
	dispatcher := command.NewDispatcher(orch, renderer, logger)

	s := &server{
		cfg:      cfg,
		store:    st,
		hub:      h,
		registry: registry,
		logger:   logger,
	}
	s.http = &http.Server{
		Handler:           s.routes(dispatcher),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *server) routes(d hub.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", s.hub.Handler(d))
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", s.healthz)
	return mux
}

func (s *server) healthz(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Error("health check failed", "error", err)
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

// serve runs until ctx is canceled or the listener fails, then shuts the
// HTTP server down and disconnects every session.
func (s *server) serve(ctx context.Context, lis net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("serving", "addr", lis.Addr().String(), "locale", s.cfg.Locale)
		if err := s.http.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		return errors.Join(s.http.Shutdown(shutdownCtx), s.hub.Close())
	})

	if err := g.Wait(); err != nil {
		return WrapExitError(ExitFailure, "server failed", err)
	}
	return nil
}
