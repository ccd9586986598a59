package cli

import (
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/seqfetch/internal/core/config"
	"github.com/vietddude/stylelog"
)

var (
	cfgPath string
	isDebug bool
)

var rootCmd = &cobra.Command{
	Use:   "seqfetch",
	Short: "Resilient FASTA retrieval for structure batches",
	Long: `seqfetch downloads FASTA sequence records for a directory of PDB/mmCIF files,
falling back across RCSB and PDBe and following obsolete entries to their
replacements. It also prepares per-entry inputs for structure prediction.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "seqfetch.yaml", "config file (optional)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
}

// loadConfig loads the config file (defaults when the default path is absent)
// and initialises logging from it.
func loadConfig(cmd *cobra.Command) *config.AppConfig {
	allowMissing := !cmd.Flags().Changed("config")
	cfg, err := config.Load(cfgPath, allowMissing)
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	slogLevel := slog.LevelInfo
	if isDebug || cfg.Logging.Level == "debug" {
		slogLevel = slog.LevelDebug
	}
	stylelog.InitDefault(&tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
	})
	slog.Debug("Logger initialized", "level", slogLevel.String())
	return cfg
}
