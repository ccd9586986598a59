// Package provider implements the sequence source endpoints.
//
// This package contains:
//   - Endpoint: a named URL template for one remote sequence source
//   - HTTPProbe: a single bounded GET classified as valid, invalid or transport error
//   - SourceMonitor: per-source latency and throttle tracking
package provider

import (
	"context"
	"strings"
	"time"

	"github.com/vietddude/seqfetch/internal/core/domain"
)

// Class is the classification of a single probe.
type Class int

const (
	ClassValid          Class = iota // 2xx and the body looks like a FASTA record
	ClassInvalid                     // transport succeeded but the body is not usable
	ClassTransportError              // network, timeout or protocol failure
)

func (c Class) String() string {
	switch c {
	case ClassValid:
		return "valid"
	case ClassInvalid:
		return "invalid"
	case ClassTransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

// Result is the outcome of one probe.
type Result struct {
	Class   Class
	Body    string
	Status  int
	Err     error
	Latency time.Duration
}

// Valid reports whether the probe produced a usable record.
func (r Result) Valid() bool { return r.Class == ClassValid }

// Prober performs a single request against a fully formed URL.
type Prober interface {
	Probe(ctx context.Context, source, url string) Result
}

// Endpoint is an immutable, named request template. The template carries an
// {id} placeholder ({pid} is accepted as well).
type Endpoint struct {
	Name     string `yaml:"name"`
	Template string `yaml:"url"`
}

// URL renders the request URL for id.
func (e Endpoint) URL(id domain.ItemID) string {
	r := strings.NewReplacer("{id}", string(id), "{pid}", string(id))
	return r.Replace(e.Template)
}

// Default sequence sources, in priority order.
var (
	RCSBPrimary  = Endpoint{Name: "primary", Template: "https://www.rcsb.org/fasta/entry/{id}"}
	RCSBFallback = Endpoint{
		Name:     "fallback",
		Template: "https://www.rcsb.org/pdb/download/downloadFastaFiles.do?structureIdList={id}&compressionType=uncompressed",
	}
	PDBe = Endpoint{Name: "secondary", Template: "https://www.ebi.ac.uk/pdbe/entry/pdb/{id}/fasta?download=1"}

	// RCSBEntry is the metadata service used to discover replacement ids.
	RCSBEntry = Endpoint{Name: "metadata", Template: "https://data.rcsb.org/rest/v1/core/entry/{id}"}
)

// DefaultEndpoints returns a fresh copy of the default source list.
func DefaultEndpoints() []Endpoint {
	return []Endpoint{RCSBPrimary, RCSBFallback, PDBe}
}

// LooksLikeFASTA reports whether body starts with a '>' record marker once
// leading whitespace is removed.
func LooksLikeFASTA(body string) bool {
	return strings.HasPrefix(strings.TrimSpace(body), ">")
}
