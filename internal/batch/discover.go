package batch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoInputs is returned when the input directory holds no structure files.
var ErrNoInputs = errors.New("no structure files found")

// StructureExts are the file extensions treated as inputs.
var StructureExts = []string{".pdb", ".cif", ".ent"}

// DiscoverInputs lists structure files in dir by name, sorted.
func DiscoverInputs(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("input directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input directory: %s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if isStructureFile(e.Name()) {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoInputs, dir)
	}
	sort.Strings(names)
	return names, nil
}

func isStructureFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range StructureExts {
		if ext == e {
			return true
		}
	}
	return false
}

// stem strips the final extension from a file name.
func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
