package batch

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/vietddude/seqfetch/internal/core/domain"
	"github.com/vietddude/seqfetch/internal/infra/source/provider"
	"github.com/vietddude/seqfetch/internal/infra/source/routing"
	"github.com/vietddude/seqfetch/internal/infra/storage/memory"
	"github.com/vietddude/seqfetch/internal/retrieval"
)

func noSleep(context.Context, time.Duration) error { return nil }

// fakeRCSB serves 1ABC from the primary source and marks 9XYZ as replaced by 1NEW.
type fakeRCSB struct {
	mu   sync.Mutex
	hits []string
}

func (f *fakeRCSB) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.hits = append(f.hits, r.URL.Path)
	f.mu.Unlock()

	switch r.URL.Path {
	case "/fasta/1ABC":
		_, _ = fmt.Fprint(w, ">1ABC_1|Chain A|Lysozyme\nKVFGRCELAAAMKRHGLDNY\n")
	case "/fasta/1NEW":
		_, _ = fmt.Fprint(w, ">1NEW_1|Chains A, B|Replacement\nMKVLAAGIV\n")
	case "/entry/9XYZ":
		_, _ = fmt.Fprint(w, `{"rcsb_accession_info":{"status_code":"OBS","replaced_by":"1NEW"}}`)
	case "/entry/0000":
		_, _ = fmt.Fprint(w, `{"rcsb_accession_info":{"status_code":"REL"}}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = fmt.Fprint(w, `{"status":404,"message":"not found"}`)
	}
}

func (f *fakeRCSB) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.hits)
}

func newTestRunner(t *testing.T, serverURL, outDir string, overwrite bool) (*Runner, *memory.FailedItemRepo) {
	t.Helper()

	cfg := retrieval.Config{
		Sources: []provider.Endpoint{
			{Name: "primary", Template: serverURL + "/fasta/{id}"},
			{Name: "fallback", Template: serverURL + "/legacy/{id}"},
			{Name: "secondary", Template: serverURL + "/pdbe/{id}"},
		},
	}
	metadata := provider.Endpoint{Name: "metadata", Template: serverURL + "/entry/{id}"}
	probe := provider.NewHTTPProbe(2*time.Second, "")
	fetcher := routing.NewFetcher(probe, routing.DefaultRetryConfig)
	fetcher.Sleep = noSleep
	orch := retrieval.NewOrchestrator(cfg, fetcher, retrieval.NewMetadataResolver(probe, metadata, nil), nil)

	ext, err := domain.NewExtractor("")
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}
	failures := memory.NewFailedItemRepo()
	r := NewRunner(
		Config{OutputDir: outDir, Overwrite: overwrite, ItemDelay: time.Millisecond},
		ext,
		orch,
		WithFailureRegistry(failures),
		WithSleep(noSleep),
	)
	return r, failures
}

func readAudit(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open audit log: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read audit log: %v", err)
	}
	return rows
}

func TestRunner_Scenarios(t *testing.T) {
	srv := &fakeRCSB{}
	server := httptest.NewServer(srv)
	defer server.Close()

	outDir := filepath.Join(t.TempDir(), "fasta")
	r, failures := newTestRunner(t, server.URL, outDir, false)

	names := []string{"readme.txt", "9XYZ_model.cif", "1ABC_relaxed.pdb", "0000.pdb"}
	sum, err := r.Run(context.Background(), names)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if sum.OK != 2 || sum.Failed != 1 || sum.Skipped != 1 {
		t.Errorf("unexpected summary %+v", sum)
	}

	want := [][]string{
		{"pdb_id", "source", "status", "note"},
		{"0000", "", "fail", "no FASTA found for 0000"},
		{"1ABC", "primary", "ok", ""},
		{"9XYZ", "primary", "ok", ""},
		{"", "", "skip", "no id found"},
	}
	if diff := cmp.Diff(want, readAudit(t, sum.LogPath)); diff != "" {
		t.Errorf("audit log mismatch (-want +got):\n%s", diff)
	}

	got, err := os.ReadFile(filepath.Join(outDir, "1ABC.fasta"))
	if err != nil {
		t.Fatalf("1ABC artifact missing: %v", err)
	}
	if string(got) != ">1ABC_1|Chain A|Lysozyme\nKVFGRCELAAAMKRHGLDNY\n" {
		t.Errorf("unexpected 1ABC content %q", got)
	}

	got, err = os.ReadFile(filepath.Join(outDir, "9XYZ.fasta"))
	if err != nil {
		t.Fatalf("9XYZ artifact missing: %v", err)
	}
	if string(got) != ">1NEW_1|Chains A, B|Replacement\nMKVLAAGIV\n" {
		t.Errorf("9XYZ artifact should hold the replacement record, got %q", got)
	}

	if _, err := os.Stat(filepath.Join(outDir, "0000.fasta")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("no artifact expected for 0000, stat err = %v", err)
	}

	all, _ := failures.GetAll(context.Background())
	if len(all) != 1 || all[0].ItemID != "0000" || all[0].RunID != sum.RunID {
		t.Errorf("unexpected failure registry contents: %+v", all)
	}
}

func TestRunner_SkipExistingWithoutNetwork(t *testing.T) {
	srv := &fakeRCSB{}
	server := httptest.NewServer(srv)
	defer server.Close()

	outDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(outDir, "1ABC.fasta"), []byte(">old\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	r, _ := newTestRunner(t, server.URL, outDir, false)
	sum, err := r.Run(context.Background(), []string{"1abc.pdb"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if srv.count() != 0 {
		t.Errorf("expected no network calls, got %d", srv.count())
	}

	want := [][]string{
		{"pdb_id", "source", "status", "note"},
		{"1ABC", "", "skip", "exists"},
	}
	if diff := cmp.Diff(want, readAudit(t, sum.LogPath)); diff != "" {
		t.Errorf("audit log mismatch (-want +got):\n%s", diff)
	}
}

func TestRunner_OverwriteAndTruncatedLog(t *testing.T) {
	srv := &fakeRCSB{}
	server := httptest.NewServer(srv)
	defer server.Close()

	outDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(outDir, "1ABC.fasta"), []byte(">old\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(outDir, AuditLogName), []byte("stale,row,from,before\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	r, _ := newTestRunner(t, server.URL, outDir, true)
	sum, err := r.Run(context.Background(), []string{"1ABC.pdb"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	rows := readAudit(t, sum.LogPath)
	if len(rows) != 2 || rows[1][2] != "ok" {
		t.Errorf("expected a fresh log with one ok row, got %v", rows)
	}
	got, _ := os.ReadFile(filepath.Join(outDir, "1ABC.fasta"))
	if string(got) == ">old\n" {
		t.Error("artifact should have been overwritten")
	}
}

// countingRetriever cancels the run after the first item.
type countingRetriever struct {
	cancel context.CancelFunc
	calls  int
}

func (c *countingRetriever) Retrieve(_ context.Context, id domain.ItemID) domain.Outcome {
	c.calls++
	c.cancel()
	return domain.Success("primary", id, ">"+string(id)+"\nA\n")
}

func TestRunner_CancelAfterCurrentItem(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ext, _ := domain.NewExtractor("")
	ret := &countingRetriever{cancel: cancel}
	r := NewRunner(Config{OutputDir: t.TempDir()}, ext, ret, WithSleep(noSleep))

	sum, err := r.Run(ctx, []string{"1AAA.pdb", "2BBB.pdb", "3CCC.pdb"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if ret.calls != 1 || sum.OK != 1 {
		t.Errorf("expected exactly one processed item, calls=%d summary=%+v", ret.calls, sum)
	}

	rows := readAudit(t, sum.LogPath)
	if len(rows) != 2 || rows[1][0] != "1AAA" {
		t.Errorf("expected header plus one complete row, got %v", rows)
	}
}

func TestRunner_RowPerItem(t *testing.T) {
	ext, _ := domain.NewExtractor("")
	ret := &staticRetriever{outcome: domain.Failed("no FASTA found")}
	r := NewRunner(Config{OutputDir: t.TempDir()}, ext, ret, WithSleep(noSleep))

	names := []string{"a.pdb", "1AAA.pdb", "1AAA_copy.pdb", "b.cif", "2BBB.ent"}
	sum, err := r.Run(context.Background(), names)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if rows := readAudit(t, sum.LogPath); len(rows)-1 != len(names) {
		t.Errorf("expected %d rows, got %d", len(names), len(rows)-1)
	}
	if sum.Total() != len(names) {
		t.Errorf("summary total %d != %d", sum.Total(), len(names))
	}
}

type staticRetriever struct {
	outcome domain.Outcome
}

func (s *staticRetriever) Retrieve(context.Context, domain.ItemID) domain.Outcome {
	return s.outcome
}

func TestRunner_UnwritableOutput(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	ext, _ := domain.NewExtractor("")
	ret := &staticRetriever{}
	r := NewRunner(Config{OutputDir: filepath.Join(blocker, "out")}, ext, ret)

	if _, err := r.Run(context.Background(), []string{"1ABC.pdb"}); err == nil {
		t.Fatal("expected setup error")
	}
}

func TestRunner_SignalDuringRequestFinishesItem(t *testing.T) {
	started := make(chan struct{})
	var once sync.Once
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() { close(started) })
		if r.URL.Path != "/fasta/1ABC" {
			http.NotFound(w, r)
			return
		}
		time.Sleep(300 * time.Millisecond)
		_, _ = fmt.Fprint(w, ">1ABC_1|Chain A|Lysozyme\nKVFGRCELAAAMKRHGLDNY\n")
	}))
	defer server.Close()

	outDir := filepath.Join(t.TempDir(), "fasta")
	r, failures := newTestRunner(t, server.URL, outDir, false)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-started
		cancel()
	}()

	sum, err := r.Run(ctx, []string{"1ABC.pdb", "2BBB.pdb"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	want := [][]string{
		{"pdb_id", "source", "status", "note"},
		{"1ABC", "primary", "ok", ""},
	}
	if diff := cmp.Diff(want, readAudit(t, sum.LogPath)); diff != "" {
		t.Errorf("audit log mismatch (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(filepath.Join(outDir, "1ABC.fasta")); err != nil {
		t.Errorf("expected artifact for the item in flight: %v", err)
	}
	if n, _ := failures.Count(context.Background()); n != 0 {
		t.Errorf("interrupted item must not be recorded as a failure, count=%d", n)
	}
}
