// Package retrieval decides which sources to try for an identifier, and in
// what order, including the single obsolete-entry fallback.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vietddude/seqfetch/internal/core/domain"
	"github.com/vietddude/seqfetch/internal/infra/source/provider"
)

// Config is the immutable retrieval configuration. Retry settings belong to
// the SourceFetcher and the metadata endpoint to the Resolver.
type Config struct {
	Sources []provider.Endpoint
}

// DefaultConfig returns the public RCSB/PDBe source order.
func DefaultConfig() Config {
	return Config{Sources: provider.DefaultEndpoints()}
}

// SourceFetcher tries an ordered list of endpoints for one id.
type SourceFetcher interface {
	FetchFirst(ctx context.Context, endpoints []provider.Endpoint, id domain.ItemID) (string, provider.Result, bool)
}

// State is a step of the per-item retrieval machine.
type State int

const (
	StateTryPrimary State = iota
	StateAllMissed
	StateResolve
	StateTryReplacement
	StateSuccess
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateTryPrimary:
		return "try_primary"
	case StateAllMissed:
		return "all_missed"
	case StateResolve:
		return "resolve"
	case StateTryReplacement:
		return "try_replacement"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether s ends the machine.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateFailed
}

// Orchestrator retrieves one record per call. It keeps no state between items.
type Orchestrator struct {
	cfg      Config
	fetcher  SourceFetcher
	resolver Resolver
	logger   *slog.Logger
}

// NewOrchestrator wires the orchestrator. cfg.Sources is copied.
func NewOrchestrator(cfg Config, fetcher SourceFetcher, resolver Resolver, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.Sources = append([]provider.Endpoint(nil), cfg.Sources...)
	return &Orchestrator{cfg: cfg, fetcher: fetcher, resolver: resolver, logger: logger}
}

// run carries the machine's data between transitions.
type run struct {
	id          domain.ItemID
	replacement domain.ItemID
	outcome     domain.Outcome
}

// Retrieve runs the machine for id and returns a Success or Failed outcome.
// Sources are tried in configured order for id, then at most once more for
// its replacement. There is no second pass over id.
func (o *Orchestrator) Retrieve(ctx context.Context, id domain.ItemID) domain.Outcome {
	r := &run{id: id}
	state := StateTryPrimary
	for !state.Terminal() {
		next := o.step(ctx, state, r)
		o.logger.Debug("Retrieval transition", "id", id, "from", state.String(), "to", next.String())
		state = next
	}
	return r.outcome
}

func (o *Orchestrator) step(ctx context.Context, state State, r *run) State {
	switch state {
	case StateTryPrimary:
		if o.tryAll(ctx, r.id, r) {
			return StateSuccess
		}
		return StateAllMissed

	case StateAllMissed:
		if ctx.Err() != nil {
			r.outcome = domain.Failed(fmt.Sprintf("interrupted while fetching %s: %v", r.id, ctx.Err()))
			return StateFailed
		}
		return StateResolve

	case StateResolve:
		if o.resolver == nil {
			return o.fail(r)
		}
		rep, ok := o.resolver.Resolve(ctx, r.id)
		if !ok || rep == r.id {
			return o.fail(r)
		}
		r.replacement = rep
		o.logger.Info("Following replacement entry", "id", r.id, "replacement", rep)
		return StateTryReplacement

	case StateTryReplacement:
		if o.tryAll(ctx, r.replacement, r) {
			return StateSuccess
		}
		return o.fail(r)
	}

	// Terminal states never reach step.
	return o.fail(r)
}

func (o *Orchestrator) tryAll(ctx context.Context, id domain.ItemID, r *run) bool {
	source, res, ok := o.fetcher.FetchFirst(ctx, o.cfg.Sources, id)
	if !ok {
		return false
	}
	r.outcome = domain.Success(source, id, res.Body)
	return true
}

func (o *Orchestrator) fail(r *run) State {
	r.outcome = domain.Failed(fmt.Sprintf("no FASTA found for %s", r.id))
	return StateFailed
}
