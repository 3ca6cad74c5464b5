package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	setAutoCleanup bool
	setDays        int
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change retention settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the retention policy and the last sweep time",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		p, err := s.RetentionPolicy(cmd.Context())
		if err != nil {
			return err
		}
		last, err := s.LastCleanup(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "auto cleanup:   %t\n", p.AutoCleanupEnabled)
		fmt.Fprintf(out, "retention days: %d\n", p.RetentionDays)
		if last == 0 {
			fmt.Fprintln(out, "last cleanup:   never")
		} else {
			fmt.Fprintf(out, "last cleanup:   %s\n", time.UnixMilli(last).Format(time.RFC3339))
		}
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change the retention policy",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		p, err := s.RetentionPolicy(cmd.Context())
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("auto-cleanup") {
			p.AutoCleanupEnabled = setAutoCleanup
		}
		if cmd.Flags().Changed("days") {
			p.RetentionDays = setDays
		}
		return s.SetRetentionPolicy(cmd.Context(), p)
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd)

	settingsSetCmd.Flags().BoolVar(&setAutoCleanup, "auto-cleanup", true, "enable periodic cleanup")
	settingsSetCmd.Flags().IntVar(&setDays, "days", 30, "days to keep notifications")
}
