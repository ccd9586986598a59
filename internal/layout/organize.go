// Package layout places fetched FASTA files into per-entry directories.
package layout

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Options controls Organize.
type Options struct {
	// Move removes the source file instead of copying it.
	Move bool

	// Rename sets the file name inside each entry directory. Empty keeps <ID>.fasta.
	Rename string

	Overwrite bool
}

// Result counts organized and skipped entries.
type Result struct {
	Placed  int
	Skipped int
}

// Organize puts each <fastaDir>/*.fasta into <dataDir>/<ID>/.
func Organize(fastaDir, dataDir string, opts Options) (Result, error) {
	var res Result

	files, err := filepath.Glob(filepath.Join(fastaDir, "*.fasta"))
	if err != nil {
		return res, fmt.Errorf("glob fasta files: %w", err)
	}
	if len(files) == 0 {
		return res, fmt.Errorf("no .fasta files found in %s", fastaDir)
	}
	sort.Strings(files)

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return res, fmt.Errorf("create data directory: %w", err)
	}

	for _, src := range files {
		id := strings.ToUpper(strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)))
		destDir := filepath.Join(dataDir, id)
		if err := os.MkdirAll(destDir, 0o755); err != nil {
			return res, fmt.Errorf("create %s: %w", destDir, err)
		}

		name := opts.Rename
		if name == "" {
			name = id + ".fasta"
		}
		dest := filepath.Join(destDir, name)

		if _, err := os.Stat(dest); err == nil && !opts.Overwrite {
			slog.Info("[SKIP] exists", "id", id, "path", dest)
			res.Skipped++
			continue
		}

		if opts.Move {
			err = moveFile(src, dest)
		} else {
			err = copyFile(src, dest)
		}
		if err != nil {
			return res, err
		}
		slog.Info("[OK] placed", "id", id, "path", dest)
		res.Placed++
	}
	return res, nil
}

func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}
	// Cross-device: copy then remove.
	if err := copyFile(src, dest); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dest, info.ModTime(), info.ModTime())
}
