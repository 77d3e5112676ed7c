// rag indexes text files into a vector store and retrieves context for queries.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ragcore/internal/app"
	"ragcore/internal/config"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "rag",
	Short: "Index text and retrieve context with vector search",
	Long: `rag splits text files into chunks, embeds them with a local hashed
bag-of-words model or an OpenAI-compatible endpoint, and stores the vectors
in memory or in a persisted snapshot (file, sqlite or minio).

Queries are embedded the same way and the best matching chunks are joined
into a context string bounded by a character budget.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to YAML config file (default ./config.yaml or ~/.config/rag/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format override (text, json)")

	indexCmd.Flags().Bool("clear", false, "Clear the store before indexing")
	indexCmd.Flags().Int("concurrency", 0, "Parallel file reads (0 = default)")
	indexCmd.Flags().Int("summary", 0, "Print an extractive summary of this many sentences")

	queryCmd.Flags().Int("top-k", 0, "Number of candidates (0 = config)")
	queryCmd.Flags().Float64("min-score", -1, "Minimum score (negative = config)")
	queryCmd.Flags().Int("max-context", 0, "Context budget in characters (0 = config)")
	queryCmd.Flags().Bool("no-metadata", false, "Do not render metadata in the context")
	queryCmd.Flags().Bool("json", false, "Print the full result as JSON")

	tuiCmd.Flags().Int("top-k", 10, "Number of candidates per query")

	tokensCmd.Flags().String("model", "", "Model name used to pick the estimate multiplier (default from config)")
	tokensCmd.Flags().Int("max-tokens", 0, "Split the input into parts of at most this many tokens")

	rootCmd.AddCommand(indexCmd, queryCmd, tuiCmd, exportCmd, clearCmd, tokensCmd)
}

func loadConfig() (*config.AppConfig, error) {
	var (
		cfg *config.AppConfig
		err error
	)
	if cfgFile == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgFile)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	return cfg, nil
}

// openApp loads configuration and wires the components. Callers close the app.
func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := app.NewLogger(cfg.Logging, os.Stderr)
	return app.New(ctx, cfg, logger)
}
