package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cfgpkg "github.com/KaramelBytes/metaclean/internal/config"
	"github.com/KaramelBytes/metaclean/internal/logging"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile   string
	debug     bool
	logFormat string

	// Loaded configuration
	cfg *cfgpkg.Global
	// cfgErr holds the reason cfg is nil
	cfgErr error
)

var rootCmd = &cobra.Command{
	Use:   "metaclean",
	Short: "Clean, filter and scale metabolomics feature tables",
	Long: `metaclean prepares an untargeted metabolomics feature table and its sample metadata for statistics.
It aligns both tables, removes blank features, imputes values below the detection limit,
normalizes every sample and z-scores every feature.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, format := "info", "console"
		if cfg != nil {
			level, format = cfg.LogLevel, cfg.LogFormat
		}
		if debug {
			level = "debug"
		}
		if cmd.Flags().Changed("log-format") {
			format = logFormat
		}
		logger, err := logging.New(logging.Options{Level: level, Format: format, Out: cmd.ErrOrStderr()})
		if err != nil {
			return err
		}
		cmd.SetContext(logger.WithContext(cmd.Context()))
		return nil
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.metaclean/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format: console or json (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: config commands still work without a valid file
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		cfg, cfgErr = nil, err
		return
	}
	cfg, cfgErr = c, nil
}

// requireConfig returns the loaded configuration or the reason it is missing.
func requireConfig() (*cfgpkg.Global, error) {
	if cfg == nil {
		if cfgErr != nil {
			return nil, fmt.Errorf("configuration not loaded: %w", cfgErr)
		}
		return nil, fmt.Errorf("configuration not loaded")
	}
	return cfg, nil
}
