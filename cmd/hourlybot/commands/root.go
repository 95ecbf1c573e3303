package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/SsToRR/HourlyBot/internal/app"
	"github.com/SsToRR/HourlyBot/internal/config"
	"github.com/SsToRR/HourlyBot/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:           "hourlybot",
	Short:         "Teams check-in bot: asks scheduled questions and summarizes the day",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// bootstrap loads config, builds the logger and wires the application.
// Callers must Close the app (or Run it, which closes on shutdown).
func bootstrap(ctx context.Context) (*app.App, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	application, err := app.New(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return application, log, nil
}
