package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/YK-03/SharePlate/internal/config"
	"github.com/YK-03/SharePlate/internal/logger"
	"github.com/YK-03/SharePlate/internal/repository"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg     *config.Config
	log     *zap.SugaredLogger
	store   repository.Store
	timeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:          "shareplatectl",
	Short:        "SharePlate database maintenance CLI",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		log = logger.New(cfg.App, cfg.Log)

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		store, err = repository.Open(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if store != nil {
			if err := store.Close(); err != nil {
				return fmt.Errorf("close store: %w", err)
			}
		}
		log.Sync()
		return nil
	},
}

// commandContext bounds a subcommand by --timeout and interrupt signals.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Timeout for database operations")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(tablesCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(createUserCmd)
}
