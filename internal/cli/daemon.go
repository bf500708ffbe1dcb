package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cobblehill/lamplight/internal/sched"
)

// NewDaemonCommand creates the daemon command: a long-running scheduler
// that invokes each engine on its configured cron cadence.
func NewDaemonCommand(opts *RootOptions) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the scheduler until interrupted",
		Long: "Daemon ticks once a minute and invokes each engine whose cron\n" +
			"spec has come due. SIGINT or SIGTERM shuts it down cleanly. When a\n" +
			"metrics address is configured, run counters are served on /metrics.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if metricsAddr != "" {
				cfg.MetricsAddr = metricsAddr
			}

			a, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			metrics := sched.NewMetrics()
			if cfg.MetricsAddr != "" {
				go serveMetrics(ctx, cfg.MetricsAddr, metrics)
			}

			runner := sched.NewRunner([]sched.Job{
				{Spec: cfg.Posts.Cron, Engine: a.engines[EnginePosts]},
				{Spec: cfg.Listings.Cron, Engine: a.engines[EngineListings]},
			}, sched.WithMetrics(metrics))

			err = runner.Start(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "listen address for /metrics (overrides config)")

	return cmd
}

// serveMetrics exposes the Prometheus registry and shuts the listener down
// with the daemon.
func serveMetrics(ctx context.Context, addr string, metrics *sched.Metrics) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutCtx)
	}()

	slog.Info("metrics listener starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("metrics listener failed", "error", err)
	}
}
