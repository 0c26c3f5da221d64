package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"doubtit/support-api/internal/config"
	"doubtit/support-api/internal/infrastructure/logger"
)

var version = "1.0.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "supportctl",
	Short: "Operator tooling for the Doubt-It support API",
	Long: `supportctl manages the resources the support API depends on.

It reads the same environment (and .env file) as the server.

Examples:
  # Register the Telegram webhook for PUBLIC_DOMAIN
  supportctl webhook set

  # Create the DynamoDB table and indexes (local DynamoDB or a fresh account)
  supportctl store init`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(webhookCmd)
	rootCmd.AddCommand(storeCmd)

	rootCmd.PersistentFlags().String("env-file", ".env", "Environment file to overlay before reading configuration")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
}

// loadConfig overlays the env file and parses configuration the way the server does.
func loadConfig(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Overload(envFile); err != nil {
				return nil, zerolog.Nop(), fmt.Errorf("load %s: %w", envFile, err)
			}
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, logger.New(cfg), nil
}
