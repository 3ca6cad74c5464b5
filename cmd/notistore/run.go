package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/nhle/notistore/internal/capture"
	"github.com/nhle/notistore/internal/logger"
	"github.com/nhle/notistore/internal/metrics"
	"github.com/nhle/notistore/internal/reporter"
	"github.com/nhle/notistore/internal/scheduler"
	"github.com/nhle/notistore/internal/store"
	"github.com/nhle/notistore/internal/sweeper"
)

var exitOnEOF bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Capture events from stdin and keep the status rollup live",
	Long: `Run reads one JSON notification event per line from stdin, stores it,
re-renders the status rollup on every change and schedules the retention
sweep. It stops on SIGINT or SIGTERM, or at end of input with --exit-on-eof.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		feed := store.NewFeed()
		s, err := openStore(store.WithFeed(feed))
		if err != nil {
			return err
		}
		defer s.Close()

		var reg *prometheus.Registry
		if cfg.Metrics.Enabled {
			reg = prometheus.NewRegistry()
		}
		m := newMetrics(reg)

		rep, err := reporter.New(reporter.Config{
			Feed:     feed,
			Records:  s,
			Resolver: reporter.NewCachingIconResolver(reporter.MapIconResolver{}, 10*time.Minute),
			Surface:  reporter.NewTerminalSurface(cmd.OutOrStdout()),
			MaxIcons: cfg.Reporter.MaxIcons,
			Logger:   logger.Component(log, "reporter"),
			Metrics:  m,
		})
		if err != nil {
			return err
		}
		if err := rep.Start(ctx); err != nil {
			return err
		}
		defer rep.Stop()

		loc, err := cfg.Cleanup.TimeLocation()
		if err != nil {
			return err
		}
		sw := sweeper.New(sweeper.Config{
			Records:  s,
			Settings: s,
			Logger:   logger.Component(log, "sweeper"),
			Metrics:  m,
			Location: loc,
		})
		sched := scheduler.New(logger.Component(log, "scheduler"))
		sched.Enqueue(sw.Task(cfg.Cleanup.Period, cfg.Cleanup.Flex, cfg.Cleanup.MaxRetries), scheduler.PolicyReplace)
		defer sched.Stop()

		if reg != nil {
			srv := serveMetrics(reg, cfg.Metrics.Addr)
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()
		}

		listener := capture.NewListener(s, cfg.Capture.IgnoredPackages, logger.Component(log, "capture"), m)
		err = listener.Pipe(ctx, capture.NewJSONLinesSource(cmd.InOrStdin(), log))
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}

		if !exitOnEOF && ctx.Err() == nil {
			log.Info().Msg("input closed, waiting for signal")
			<-ctx.Done()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&exitOnEOF, "exit-on-eof", false, "stop when stdin is exhausted")
}

// newMetrics registers collectors on reg, or leaves them unregistered
// when reg is nil.
func newMetrics(reg *prometheus.Registry) *metrics.Metrics {
	if reg == nil {
		return metrics.New(nil)
	}
	return metrics.New(reg)
}

func serveMetrics(reg *prometheus.Registry, addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("metrics server stopped")
		}
	}()
	log.Info().Str("addr", addr).Msg("serving metrics")
	return srv
}
