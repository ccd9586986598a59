package retrieval

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vietddude/seqfetch/internal/core/domain"
	"github.com/vietddude/seqfetch/internal/infra/source/provider"
)

func TestMetadataResolver_Resolve(t *testing.T) {
	docs := map[string]string{
		"/entry/9XYZ": `{"rcsb_accession_info":{"status_code":"OBS","replaced_by":"1new"}}`,
		"/entry/8LST": `{"rcsb_entry_container_identifiers":{"replaced_entry_id":["2abc","3abc"]}}`,
		"/entry/7INF": `{"rcsb_accession_info":{"replaced_by":null},"rcsb_entry_info":{"replaced_by":"4def"}}`,
		"/entry/6SLF": `{"rcsb_accession_info":{"replaced_by":"6slf"}}`,
		"/entry/5NON": `{"rcsb_accession_info":{"status_code":"REL"}}`,
		"/entry/4EMP": `{"rcsb_accession_info":{"replaced_by":[]}}`,
		"/entry/3BAD": `{not json`,
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		doc, ok := docs[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(doc))
	}))
	defer server.Close()

	probe := provider.NewHTTPProbe(time.Second, "")
	res := NewMetadataResolver(probe, provider.Endpoint{Name: "metadata", Template: server.URL + "/entry/{id}"}, nil)

	tests := []struct {
		id     domain.ItemID
		want   domain.ItemID
		wantOK bool
	}{
		{"9XYZ", "1NEW", true},
		{"8LST", "2ABC", true},
		{"7INF", "4DEF", true},
		{"6SLF", "", false}, // self-reference
		{"5NON", "", false},
		{"4EMP", "", false},
		{"3BAD", "", false},
		{"0000", "", false}, // 404
	}
	for _, tt := range tests {
		got, ok := res.Resolve(context.Background(), tt.id)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Resolve(%s) = (%q, %v), want (%q, %v)", tt.id, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestFirstValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{" 1abc ", "1abc"},
		{[]any{"2abc", "3abc"}, "2abc"},
		{[]any{}, ""},
		{float64(42), "42"},
		{true, ""},
	}
	for _, tt := range tests {
		if got := firstValue(tt.in); got != tt.want {
			t.Errorf("firstValue(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
