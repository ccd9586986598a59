package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/vietddude/seqfetch/internal/fasta"
	"github.com/vietddude/seqfetch/internal/layout"
)

var organizeOpts layout.Options

var organizeCmd = &cobra.Command{
	Use:   "organize <fasta_dir> <data_dir>",
	Short: "Put each FASTA file into its own per-entry folder",
	Args:  cobra.ExactArgs(2),
	Run:   runOrganize,
}

var boltzSeqName string

var boltzCmd = &cobra.Command{
	Use:   "boltz <data_dir>",
	Short: "Rewrite <data_dir>/*/sequence.fasta as per-chain boltz_input.fasta",
	Args:  cobra.ExactArgs(1),
	Run:   runBoltz,
}

func init() {
	organizeCmd.Flags().BoolVar(&organizeOpts.Move, "move", false, "move files instead of copying")
	organizeCmd.Flags().StringVar(&organizeOpts.Rename, "rename", "", "file name inside each folder (e.g. sequence.fasta)")
	organizeCmd.Flags().BoolVar(&organizeOpts.Overwrite, "overwrite", false, "overwrite existing files")
	boltzCmd.Flags().StringVar(&boltzSeqName, "input-name", "sequence.fasta", "sequence file name inside each entry folder")
	rootCmd.AddCommand(organizeCmd, boltzCmd)
}

func runOrganize(cmd *cobra.Command, args []string) {
	loadConfig(cmd)

	res, err := layout.Organize(args[0], args[1], organizeOpts)
	if err != nil {
		slog.Error("Organize failed", "error", err)
		os.Exit(1)
	}
	fmt.Printf("\nDone. Created/updated %d entries; skipped %d.\n", res.Placed, res.Skipped)
}

func runBoltz(cmd *cobra.Command, args []string) {
	loadConfig(cmd)

	written, err := fasta.PrepareBoltzInputs(args[0], boltzSeqName)
	for _, path := range written {
		slog.Info("[OK] boltz input", "path", path)
	}
	if err != nil {
		slog.Error("Boltz conversion failed", "error", err)
		os.Exit(1)
	}
	fmt.Printf("\nDone. Wrote %d files.\n", len(written))
}
