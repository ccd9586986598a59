package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vietddude/seqfetch/internal/score"
)

var scoreFlags struct {
	scoreFile string
	out       string
}

var scoreCmd = &cobra.Command{
	Use:   "score <model.pdb>...",
	Short: "Collect Rosetta total_score for a set of models",
	Long: `Collect Rosetta total_score for each model. Values come from --scorefile when
it lists the model (by file stem), otherwise from the model's REMARK lines.`,
	Args: cobra.MinimumNArgs(1),
	Run:  runScore,
}

func init() {
	scoreCmd.Flags().StringVar(&scoreFlags.scoreFile, "scorefile", "", "Rosetta score file (SCORE: lines)")
	scoreCmd.Flags().StringVarP(&scoreFlags.out, "out", "o", "", "write a TSV here instead of stdout")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) {
	loadConfig(cmd)

	scores := map[string]float64{}
	if scoreFlags.scoreFile != "" {
		f, err := os.Open(scoreFlags.scoreFile)
		if err != nil {
			slog.Error("Failed to open score file", "error", err)
			os.Exit(1)
		}
		scores = score.ParseScoreFile(f)
		_ = f.Close()
	}

	var w io.Writer = os.Stdout
	if scoreFlags.out != "" {
		f, err := os.Create(scoreFlags.out)
		if err != nil {
			slog.Error("Failed to create output", "error", err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}

	fmt.Fprintln(w, "object\tenergy_total_score")
	for _, path := range args {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		energy, ok := scores[name]
		if !ok {
			data, err := os.ReadFile(path)
			if err != nil {
				slog.Warn("Failed to read model", "path", path, "error", err)
			} else {
				energy, ok = score.TotalScore(string(data))
			}
		}
		val := ""
		if ok {
			val = fmt.Sprintf("%.6f", energy)
		}
		fmt.Fprintf(w, "%s\t%s\n", name, val)
	}
}
