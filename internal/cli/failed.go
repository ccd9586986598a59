package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	redisclient "github.com/vietddude/seqfetch/internal/infra/redis"
)

var failedCmd = &cobra.Command{
	Use:   "failed",
	Short: "List identifiers recorded in the Redis failure registry",
	Run:   runFailed,
}

func init() {
	rootCmd.AddCommand(failedCmd)
}

func runFailed(cmd *cobra.Command, args []string) {
	cfg := loadConfig(cmd)
	if !cfg.Redis.Enabled() {
		slog.Error("redis.url is not configured; the failure registry only persists in Redis")
		os.Exit(1)
	}

	client, err := redisclient.NewClient(cfg.Redis)
	if err != nil {
		slog.Error("Failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = client.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	items, err := redisclient.NewFailedItemRepo(client, cfg.Redis.Namespace).GetAll(ctx)
	if err != nil {
		slog.Error("Failed to read failure registry", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PDB ID\tFAILURES\tLAST ATTEMPT\tSOURCE FILE\tERROR")
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
			it.ItemID,
			it.FailureCount,
			time.Unix(it.LastAttempt, 0).Format(time.RFC3339),
			it.SourceFile,
			it.Error,
		)
	}
	_ = w.Flush()
}
