package scope

import (
	"context"
	"log/slog"

	"github.com/mewshq/mews/internal/location"
)

// LocationSetResolver maps a target location to the set of location-tree
// node IDs that stand for the same logical place. The location-ingestion
// pipeline produced duplicate nodes with inconsistent whitespace and casing
// for the same place, so a single assigned node may expand to several IDs.
type LocationSetResolver interface {
	ResolveSet(ctx context.Context, target *location.Location) ([]string, error)
}

// NameSetResolver resolves the set by matching name and type, trimmed and
// case-insensitive. When the tree is clean the set collapses to the target
// itself (structural resolution); duplicate-name matches are the explicit
// fallback and are logged and counted rather than silently absorbed.
type NameSetResolver struct {
	locations location.Repository
	logger    *slog.Logger
	metrics   *Metrics
}

// NewNameSetResolver creates a NameSetResolver. metrics may be nil.
func NewNameSetResolver(locations location.Repository, logger *slog.Logger, metrics *Metrics) *NameSetResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &NameSetResolver{locations: locations, logger: logger, metrics: metrics}
}

// ResolveSet returns every node ID sharing the target's name and type.
// The target's own ID is always in the set, even if the name query misses it.
func (r *NameSetResolver) ResolveSet(ctx context.Context, target *location.Location) ([]string, error) {
	matches, err := r.locations.FindByNameType(ctx, target.Name, target.Type)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(matches)+1)
	seen := make(map[string]bool, len(matches)+1)
	for _, m := range matches {
		if !seen[m.ID] {
			seen[m.ID] = true
			ids = append(ids, m.ID)
		}
	}
	if !seen[target.ID] {
		ids = append(ids, target.ID)
	}

	if len(ids) > 1 {
		r.logger.WarnContext(ctx, "ambiguous location name match",
			"name", target.Name,
			"type", target.Type,
			"matched", len(ids))
		if r.metrics != nil {
			r.metrics.AmbiguousNameMatch(string(target.Type))
		}
	}
	return ids, nil
}
