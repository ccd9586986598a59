package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vietddude/seqfetch/internal/core/domain"
	"github.com/vietddude/seqfetch/internal/infra/source/provider"
	"github.com/vietddude/seqfetch/internal/metrics"
)

// Sections of an entry document that may announce a replacement, in lookup order.
var replacementSections = []string{
	"rcsb_accession_info",
	"rcsb_entry_container_identifiers",
	"rcsb_entry_info",
}

// Fields inside a section that carry the replacement id, in lookup order.
var replacementFields = []string{"replaced_by", "replaced_entry_id"}

// JSONFetcher performs a single JSON GET.
type JSONFetcher interface {
	FetchJSON(ctx context.Context, source, url string, v any) error
}

// Resolver finds the identifier that supersedes an obsolete one.
type Resolver interface {
	Resolve(ctx context.Context, id domain.ItemID) (domain.ItemID, bool)
}

// MetadataResolver looks up replacements in the entry metadata service.
type MetadataResolver struct {
	client   JSONFetcher
	endpoint provider.Endpoint
	logger   *slog.Logger
}

// NewMetadataResolver creates a resolver against endpoint.
func NewMetadataResolver(client JSONFetcher, endpoint provider.Endpoint, logger *slog.Logger) *MetadataResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &MetadataResolver{client: client, endpoint: endpoint, logger: logger}
}

// Resolve returns the replacement of id. It reports false when the lookup
// fails, no replacement is announced, or the entry points at itself.
func (r *MetadataResolver) Resolve(ctx context.Context, id domain.ItemID) (domain.ItemID, bool) {
	var doc map[string]any
	if err := r.client.FetchJSON(ctx, r.endpoint.Name, r.endpoint.URL(id), &doc); err != nil {
		r.logger.Debug("Replacement lookup failed", "id", id, "error", err)
		metrics.ReplacementsTotal.WithLabelValues("error").Inc()
		return "", false
	}

	rep := findReplacement(doc)
	if rep == "" || rep == id {
		metrics.ReplacementsTotal.WithLabelValues("none").Inc()
		return "", false
	}

	metrics.ReplacementsTotal.WithLabelValues("found").Inc()
	return rep, true
}

func findReplacement(doc map[string]any) domain.ItemID {
	for _, key := range replacementSections {
		section, ok := doc[key].(map[string]any)
		if !ok {
			continue
		}
		for _, field := range replacementFields {
			if v := firstValue(section[field]); v != "" {
				return domain.ItemID(strings.ToUpper(v))
			}
		}
	}
	return ""
}

// firstValue flattens a scalar or list field to a string; lists yield their first element.
func firstValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []any:
		if len(t) == 0 {
			return ""
		}
		return firstValue(t[0])
	case bool:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
