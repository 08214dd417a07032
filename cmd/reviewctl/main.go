// Package main implements reviewctl, the operator CLI for the review backend.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"reviewhub_backend/internal/app"
	"reviewhub_backend/internal/config"
	"reviewhub_backend/internal/logger"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "reviewctl",
	Short: "Operator commands for the review backend",
	Long: `reviewctl runs the HTTP server and the maintenance tasks that share its
configuration (.env, CONFIG_PATH and environment variables).`,
	Version:       version,
	SilenceUsage:  true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Run: func(cmd *cobra.Command, args []string) {
		app.Run()
	},
}

// openStore loads configuration, initializes logging and opens a migrated
// database for one-shot commands.
func openStore() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger.Init(cfg.Server.Env)

	db, err := app.OpenDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := app.Migrate(db); err != nil {
		closeStore(db)
		return nil, nil, err
	}
	return cfg, db, nil
}

func closeStore(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Sync()
}

func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
