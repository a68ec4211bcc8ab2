package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/seminar-cal/internal/config"
	"github.com/pfrederiksen/seminar-cal/internal/logger"
	"github.com/pfrederiksen/seminar-cal/internal/pipeline"
	"github.com/pfrederiksen/seminar-cal/internal/storage"
)

// cronLogger routes cron's own messages into the structured logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug("cron: "+msg, kvFields(keysAndValues))
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error("cron: "+msg, kvFields(keysAndValues), err)
}

func kvFields(kv []interface{}) logger.Fields {
	if len(kv) == 0 {
		return nil
	}
	fields := make(logger.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return fields
}

func newWatchCmd(g *globalFlags) *cobra.Command {
	var (
		schedule    string
		metricsAddr string
		runNow      bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the pipeline on a cron schedule",
		Long: `Runs the pipeline on a cron schedule until interrupted. A run that is
still in progress when the next one is due causes that tick to be skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			if schedule != "" {
				cfg.Schedule = schedule
			}
			if len(cfg.Sources) == 0 {
				return fmt.Errorf("no sources configured in %s", g.configPath)
			}

			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if metricsAddr != "" {
				srv, err := serveMetrics(metricsAddr)
				if err != nil {
					return err
				}
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
			}

			return watch(ctx, store, cfg, runNow)
		},
	}
	cmd.Flags().StringVar(&schedule, "schedule", "", "Cron spec (overrides config; default \""+config.DefaultSchedule+"\")")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	cmd.Flags().BoolVar(&runNow, "run-now", false, "Run once immediately before waiting for the schedule")
	return cmd
}

func watch(ctx context.Context, store storage.Store, cfg *config.Config, runNow bool) error {
	p, err := pipeline.NewFromConfig(store, cfg)
	if err != nil {
		return err
	}

	runOnce := func() {
		stats, err := p.Run(ctx, cfg.Sources)
		if err != nil {
			logger.Error("Scheduled run failed", logger.Fields{"schedule": cfg.Schedule}, err)
			logger.IncrCounter("pipeline.failed_runs")
			return
		}
		logger.SetGauge("pipeline.last_inserted", float64(stats.Inserted))
		logger.SetGauge("pipeline.last_success_unix", float64(time.Now().Unix()))
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{})), cron.WithLogger(cronLogger{}))
	if _, err := c.AddFunc(cfg.Schedule, runOnce); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
	}

	logger.Info("Watching", logger.Fields{"schedule": cfg.Schedule, "sources": len(cfg.Sources)})
	if runNow {
		runOnce()
	}
	c.Start()

	<-ctx.Done()
	logger.Info("Stopping", nil)
	<-c.Stop().Done()
	return nil
}

// serveMetrics registers the run metrics on a fresh registry and serves it.
func serveMetrics(addr string) (*http.Server, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := logger.DefaultMetrics().Register(reg, "seminarcal"); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", logger.Fields{"addr": addr}, err)
		}
	}()
	logger.Info("Serving metrics", logger.Fields{"addr": addr})
	return srv, nil
}
