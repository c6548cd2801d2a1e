// Command newsent analyzes company news sentiment.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Nikita-NA/News-sentiment-analysis/api"
	"github.com/Nikita-NA/News-sentiment-analysis/internal/config"
	"github.com/Nikita-NA/News-sentiment-analysis/internal/logging"
	"github.com/Nikita-NA/News-sentiment-analysis/internal/pipeline"
	"github.com/Nikita-NA/News-sentiment-analysis/pkg/models"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var (
	cfg    *config.Config
	logger *slog.Logger
)

func main() {
	// Best effort; a missing .env file is fine.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "newsent",
	Short: "newsent — company news sentiment analysis",
	Long: `newsent discovers recent news articles about a company, extracts and
summarizes each one, classifies sentiment, scores publisher credibility,
and optionally synthesizes spoken audio of every summary.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		logger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("newsent %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Analyze Command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze [company]",
	Short: "Analyze recent news sentiment for a company",
	Long: `Discover recent news articles about a company and report a summary,
sentiment label, and credibility score for each.

Examples:
  newsent analyze "Acme Corp"
  newsent analyze Tesla --limit 10 --json
  newsent analyze Tesla --csv results.csv --audio-dir ./audio`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")
		csvPath, _ := cmd.Flags().GetString("csv")
		audioDir, _ := cmd.Flags().GetString("audio-dir")
		noAudio, _ := cmd.Flags().GetBool("no-audio")

		if noAudio {
			cfg.Speech.Enabled = false
		}

		ctx := cmd.Context()
		pipe, err := pipeline.FromConfig(ctx, cfg, logger)
		if err != nil {
			return err
		}

		result, err := pipe.Run(ctx, args[0], limit)
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return err
			}
		} else {
			printResult(os.Stdout, result)
		}

		if csvPath != "" {
			if err := writeCSV(csvPath, result); err != nil {
				return fmt.Errorf("write csv: %w", err)
			}
			fmt.Fprintf(os.Stderr, "batch written to %s\n", csvPath)
		}
		if audioDir != "" {
			saved, err := saveAudio(audioDir, result)
			if err != nil {
				return fmt.Errorf("save audio: %w", err)
			}
			if saved > 0 {
				fmt.Fprintf(os.Stderr, "%d audio file(s) written to %s\n", saved, audioDir)
			}
		}

		if result.Status == models.RunOK && result.PartialCoverage() {
			fmt.Fprintf(os.Stderr, "⚠️  only %d of %d requested articles could be processed (%d skipped)\n",
				result.Batch.Len(), result.Requested, result.Skipped)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().Int("limit", 0, "number of articles to analyze (default from config)")
	analyzeCmd.Flags().Bool("json", false, "print the full result as JSON")
	analyzeCmd.Flags().String("csv", "", "export the batch to a CSV file")
	analyzeCmd.Flags().String("audio-dir", "", "save per-article MP3 files to this directory")
	analyzeCmd.Flags().Bool("no-audio", false, "skip speech synthesis")
}

// --- History Command ---

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect or reset session history",
	Long: `List the analysis runs recorded in the session history, or clear them.
With the default in-memory backend the history lives for one process;
configure the redis backend to share it across invocations.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		clearHistory, _ := cmd.Flags().GetBool("clear")

		ctx := cmd.Context()
		pipe, err := pipeline.FromConfig(ctx, cfg, logger)
		if err != nil {
			return err
		}

		if clearHistory {
			if err := pipe.Reset(ctx); err != nil {
				return err
			}
			fmt.Println("session history cleared")
			return nil
		}

		entries, err := pipe.History().Entries(ctx)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("session history is empty")
			return nil
		}
		for i, e := range entries {
			fmt.Printf("%2d. %-30s %3d article(s)  %s\n",
				i+1, e.Query, e.Batch.Len(), e.AddedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().Bool("clear", false, "reset history and the run cache")
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := api.NewServer(cmd.Context(), cfg, logger, version)
		if err != nil {
			return err
		}
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		fmt.Printf("🌐 newsent API listening on %s\n", addr)
		return srv.ListenAndServe(addr)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and backend status",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  newsent — Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:    %s (%s)\n", version, commit)
		fmt.Println()

		fmt.Println("  Configuration:")
		source := cfg.Discovery.Source
		if source == "" {
			source = "bing"
		}
		backend := cfg.Summarize.Backend
		if backend == "" {
			backend = "extractive"
		}
		histBackend := cfg.History.Backend
		if histBackend == "" {
			histBackend = "memory"
		}
		fmt.Printf("    Discovery:   %s (limit %d)\n", source, cfg.Discovery.Limit)
		fmt.Printf("    Summarizer:  %s\n", backend)
		fmt.Printf("    Speech:      %s\n", onOff(cfg.Speech.Enabled))
		fmt.Printf("    History:     %s\n", histBackend)
		fmt.Printf("    API Server:  %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Println()

		fmt.Println("  Secrets:")
		for _, k := range config.CheckSecrets(cfg) {
			status := "❌ not set"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-18s %s\n", k.Name+":", status)
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

func onOff(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}
