package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nhle/notistore/internal/logger"
	"github.com/nhle/notistore/internal/model"
	"github.com/nhle/notistore/internal/store"
)

var (
	cfgPath string
	cfg     *model.AppConfig
	log     zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "notistore",
	Short: "Capture, browse and expire notifications",
	Long: `Notistore persists notification events to a local SQLite database,
shows a rolled-up status of recent activity and deletes records older
than the configured retention.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := model.LoadConfig(cfgPath)
		if err != nil {
			return err
		}
		cfg = loaded

		l, err := logger.New(cfg.Log, os.Stderr)
		if err != nil {
			return err
		}
		log = l
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", model.DefaultConfigPath(), "path to config file")
}

// openStore opens the configured database with the configured retention
// defaults.
func openStore(opts ...store.Option) (*store.SQLiteStore, error) {
	opts = append([]store.Option{
		store.WithRetentionDefaults(model.RetentionPolicy{
			AutoCleanupEnabled: cfg.Retention.AutoCleanup,
			RetentionDays:      cfg.Retention.Days,
		}),
	}, opts...)

	s, err := store.NewSQLiteStore(cfg.Database.Path, opts...)
	if err != nil {
		return nil, fmt.Errorf("opening store %s: %w", cfg.Database.Path, err)
	}
	return s, nil
}
