package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/notistore/internal/logger"
	"github.com/nhle/notistore/internal/metrics"
	"github.com/nhle/notistore/internal/scheduler"
	"github.com/nhle/notistore/internal/sweeper"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one retention sweep now, retrying like the scheduled run",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		loc, err := cfg.Cleanup.TimeLocation()
		if err != nil {
			return err
		}
		sw := sweeper.New(sweeper.Config{
			Records:  s,
			Settings: s,
			Logger:   logger.Component(log, "sweeper"),
			Metrics:  metrics.New(nil),
			Location: loc,
		})

		before, err := s.Count(cmd.Context())
		if err != nil {
			return err
		}
		sched := scheduler.New(logger.Component(log, "scheduler"))
		task := sw.Task(cfg.Cleanup.Period, cfg.Cleanup.Flex, cfg.Cleanup.MaxRetries)
		if r := sched.RunNow(task); r != scheduler.ResultSuccess {
			return fmt.Errorf("sweep did not complete after %d retries; run it again later", cfg.Cleanup.MaxRetries)
		}
		after, err := s.Count(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d notifications, %d remain.\n", before-after, after)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
