package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bstardust/photosync/internal/config"
	"github.com/bstardust/photosync/internal/logger"
)

// Execute runs the photosync command line
func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interruption signals
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalCh
		logger.Info("Received interrupt signal, finishing current photo and stopping...")
		cancel()
	}()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		logger.Error("Error executing command: %v", err)
		os.Exit(1)
	}
}

// NewRootCommand builds the command tree
func NewRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "photosync",
		Short:         "Sync a device photo library to S3-compatible storage",
		Long:          `Incrementally uploads new photos from a device library (directory or zip) to S3-compatible storage, skipping photos whose content was already uploaded and tagging each with its capture time and place name.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a config file (yaml, json or toml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", config.LogFormatText, "Log format (text, json)")

	rootCmd.AddCommand(newSyncCommand(&configPath))
	rootCmd.AddCommand(newInspectCommand(&configPath))

	return rootCmd
}

// setupLogging applies the configured level and format
func setupLogging(cfg *config.Config) error {
	if err := cfg.CheckLogFormat(); err != nil {
		return err
	}
	if cfg.LogFormat == config.LogFormatJSON {
		logger.SetJSONOutput(os.Stderr)
	}
	logger.SetLevel(cfg.LogLevel)
	return nil
}
