// Package main provides the coursemind CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"coursemind/internal/config"
	"coursemind/internal/logging"
)

const version = "0.1.0"

var (
	// Global flags
	configPath string
	verbose    bool

	// Loaded configuration
	cfg *config.Config

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "coursemind",
	Short: "coursemind - tool-augmented Q&A over course materials",
	Long: `coursemind answers questions about indexed course materials.

The model decides per query whether to search course content, fetch a
course outline, or answer from general knowledge, with a bounded number
of tool-calling rounds per question.

Run without arguments to start the interactive chat interface.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; flags and the environment win over it.
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if err := logging.Initialize(cfg.Logging.Dir, verbose || cfg.Logging.Debug, cfg.Logging.Level); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}

		// Interactive chat has its own UI; keep zap quiet there.
		if cmd.Use == "coursemind" && cmd.CalledAs() == "coursemind" {
			return nil
		}

		zapConfig := zap.NewProductionConfig()
		if verbose {
			zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zapConfig.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("coursemind %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "coursemind.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
