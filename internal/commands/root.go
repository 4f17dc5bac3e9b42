// Package commands provides the CLI commands for multichat.
package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rafael/multichat/internal/config"
)

var (
	// Global flags
	modelsFlag  string
	apiURLFlag  string
	verboseFlag bool
	fileFlag    string

	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "multichat [prompt]",
	Short: "Chat with several language models at once",
	Long: `multichat sends one prompt to any number of language-model backends
simultaneously and shows their answers as they stream in. Each model's
channel succeeds or fails on its own; one bad model never loses the turn.

Examples:
  multichat chat                          Start the interactive chat TUI
  multichat "What is Go?" -m gpt-4o,claude-3-haiku
  multichat -f prompt.md                  Read prompt from file
  cat prompt.md | multichat               Read prompt from stdin
  multichat history list                  List stored conversations
  multichat history show @last            Replay a conversation`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("multichat %s (built %s)\n", Version, BuildTime)
			return nil
		}

		if fileFlag != "" {
			data, err := os.ReadFile(fileFlag)
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}
			return runQuery(string(data))
		}

		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
			return runQuery(string(data))
		}

		if len(args) > 0 {
			return runQuery(args[0])
		}

		return cmd.Help()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&modelsFlag, "models", "m", "", "Comma-separated model ids (e.g. gpt-4o,claude-3-haiku)")
	rootCmd.PersistentFlags().StringVar(&apiURLFlag, "api-url", "", "Backend base URL (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&verboseFlag, "verbose", false, "Enable debug logging")
	rootCmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Read prompt from file")
	rootCmd.Flags().BoolP("version", "v", false, "Show version and exit")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(configCmd)
}

// setupLogging configures the global zerolog logger. Warnings (malformed
// frames and the like) always show; channel lifecycle needs --verbose.
func setupLogging() {
	level := zerolog.WarnLevel
	if verboseFlag {
		level = zerolog.DebugLevel
	} else if cfg, err := config.LoadConfig(); err == nil && cfg.Verbose {
		level = zerolog.DebugLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

// loadRuntimeConfig loads the config file and applies command-line
// overrides.
func loadRuntimeConfig() (config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return cfg, err
	}
	if apiURLFlag != "" {
		cfg.APIBaseURL = apiURLFlag
	}
	if modelsFlag != "" {
		cfg.DefaultModels = config.SplitModels(modelsFlag)
	}
	return cfg, nil
}
