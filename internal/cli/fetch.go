package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/vietddude/seqfetch/internal/batch"
	"github.com/vietddude/seqfetch/internal/core/config"
	"github.com/vietddude/seqfetch/internal/core/domain"
	redisclient "github.com/vietddude/seqfetch/internal/infra/redis"
	"github.com/vietddude/seqfetch/internal/infra/source/provider"
	"github.com/vietddude/seqfetch/internal/infra/source/routing"
	"github.com/vietddude/seqfetch/internal/infra/storage"
	"github.com/vietddude/seqfetch/internal/infra/storage/memory"
	"github.com/vietddude/seqfetch/internal/metrics"
	"github.com/vietddude/seqfetch/internal/retrieval"
)

var fetchFlags struct {
	overwrite   bool
	timeout     time.Duration
	retries     int
	backoff     float64
	itemDelay   time.Duration
	pattern     string
	metricsPort int
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <structure_dir> [fasta_out_dir]",
	Short: "Download FASTA records for every structure file in a directory",
	Long: `Download FASTA records for every .pdb/.cif/.ent file in structure_dir.
Output defaults to <structure_dir>/../fasta. An audit log
(fasta_download_log.csv) is rewritten in the output directory on every run.`,
	Args: cobra.RangeArgs(1, 2),
	Run:  runFetch,
}

func init() {
	f := fetchCmd.Flags()
	f.BoolVar(&fetchFlags.overwrite, "overwrite", false, "re-download records that already exist")
	f.DurationVar(&fetchFlags.timeout, "timeout", 0, "per-request timeout (default from config, 30s)")
	f.IntVar(&fetchFlags.retries, "retries", 0, "retries per source after the first attempt (default 2)")
	f.Float64Var(&fetchFlags.backoff, "backoff", 0, "backoff base between retries (default 1.5)")
	f.DurationVar(&fetchFlags.itemDelay, "item-delay", 0, "pause between items (default 150ms)")
	f.StringVar(&fetchFlags.pattern, "pattern", "", "identifier pattern (default "+domain.DefaultIDPattern+")")
	f.IntVar(&fetchFlags.metricsPort, "metrics-port", 0, "serve Prometheus metrics on this port while running")
	rootCmd.AddCommand(fetchCmd)
}

// applyFetchFlags lets explicitly set flags win over the config file.
func applyFetchFlags(cmd *cobra.Command, cfg *config.AppConfig) {
	f := cmd.Flags()
	if f.Changed("overwrite") {
		cfg.Output.Overwrite = fetchFlags.overwrite
	}
	if f.Changed("timeout") {
		cfg.Fetch.Timeout = fetchFlags.timeout
	}
	if f.Changed("retries") {
		r := fetchFlags.retries
		cfg.Fetch.Retries = &r
	}
	if f.Changed("backoff") {
		cfg.Fetch.BackoffBase = fetchFlags.backoff
	}
	if f.Changed("item-delay") {
		cfg.Fetch.ItemDelay = fetchFlags.itemDelay
	}
	if f.Changed("pattern") {
		cfg.Fetch.IDPattern = fetchFlags.pattern
	}
	if f.Changed("metrics-port") {
		cfg.Metrics.Port = fetchFlags.metricsPort
	}
}

func runFetch(cmd *cobra.Command, args []string) {
	cfg := loadConfig(cmd)
	applyFetchFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	inputDir, err := filepath.Abs(args[0])
	if err != nil {
		slog.Error("Invalid input directory", "error", err)
		os.Exit(1)
	}
	outDir := cfg.Output.Dir
	if len(args) == 2 {
		outDir = args[1]
	}
	if outDir == "" {
		outDir = filepath.Join(filepath.Dir(inputDir), "fasta")
	}

	names, err := batch.DiscoverInputs(inputDir)
	if err != nil {
		slog.Error("Failed to discover inputs", "error", err)
		os.Exit(1)
	}

	extractor, err := domain.NewExtractor(cfg.Fetch.IDPattern)
	if err != nil {
		slog.Error("Invalid identifier pattern", "error", err)
		os.Exit(1)
	}

	failures, closeFailures, err := openFailureRegistry(cfg.Redis)
	if err != nil {
		slog.Error("Failed to open failure registry", "error", err)
		os.Exit(1)
	}
	defer closeFailures()

	probe := provider.NewHTTPProbe(cfg.Fetch.Timeout, cfg.Fetch.UserAgent)
	defer probe.Close()

	retry := routing.RetryConfig{
		Retries:     cfg.Fetch.RetryCount(),
		BackoffBase: cfg.Fetch.BackoffBase,
		Unit:        cfg.Fetch.BackoffUnit,
	}
	orch := retrieval.NewOrchestrator(
		retrieval.Config{Sources: cfg.Sources},
		routing.NewFetcher(probe, retry),
		retrieval.NewMetadataResolver(probe, cfg.Metadata, slog.Default()),
		slog.Default(),
	)

	runner := batch.NewRunner(
		batch.Config{OutputDir: outDir, Overwrite: cfg.Output.Overwrite, ItemDelay: cfg.Fetch.ItemDelay},
		extractor,
		orch,
		batch.WithFailureRegistry(failures),
	)

	if cfg.Metrics.Port > 0 {
		srv := metrics.NewServer(cfg.Metrics.Port)
		srv.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Stop(shutdownCtx)
		}()
	}

	// The runner finishes the item in flight before honouring the signal.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sum, err := runner.Run(ctx, names)
	printSummary(sum, probe.Health())
	if err != nil {
		slog.Error("Batch did not complete", "error", err)
		os.Exit(1)
	}
}

func openFailureRegistry(cfg redisclient.Config) (storage.FailedItemRepository, func(), error) {
	if !cfg.Enabled() {
		return memory.NewFailedItemRepo(), func() {}, nil
	}
	client, err := redisclient.NewClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	return redisclient.NewFailedItemRepo(client, cfg.Namespace), func() { _ = client.Close() }, nil
}

func printSummary(sum batch.Summary, health map[string]provider.HealthStatus) {
	fmt.Printf("\nDone. OK=%d, FAIL=%d, SKIP=%d\n", sum.OK, sum.Failed, sum.Skipped)
	if sum.LogPath != "" {
		fmt.Printf("Log: %s\n", sum.LogPath)
	}
	if len(health) == 0 {
		return
	}

	names := make([]string, 0, len(health))
	for name := range health {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nSOURCE\tSTATUS\tREQUESTS\tVALID\tMISSES\tERRORS\tAVG LATENCY")
	for _, name := range names {
		h := health[name]
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			name, h.Status, h.Requests, h.Valid, h.Misses, h.TransportErrors, h.Latency.Round(time.Millisecond))
	}
	_ = w.Flush()
}
