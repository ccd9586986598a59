package batch

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDiscoverInputs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"2XYZ.cif", "1ABC_relaxed.pdb", "notes.txt", "3DEF.ENT", "model.pdb.bak"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "4GHI.pdb"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := DiscoverInputs(dir)
	if err != nil {
		t.Fatalf("DiscoverInputs failed: %v", err)
	}
	want := []string{"1ABC_relaxed.pdb", "2XYZ.cif", "3DEF.ENT"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("inputs mismatch (-want +got):\n%s", diff)
	}
}

func TestDiscoverInputs_Errors(t *testing.T) {
	if _, err := DiscoverInputs(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing directory")
	}

	empty := t.TempDir()
	if _, err := DiscoverInputs(empty); !errors.Is(err, ErrNoInputs) {
		t.Errorf("expected ErrNoInputs, got %v", err)
	}
}
