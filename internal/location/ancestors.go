package location

import (
	"context"
	"log/slog"
)

// RebuildResult tracks statistics for an ancestor rebuild pass.
type RebuildResult struct {
	Processed int // Total nodes examined
	Updated   int // Nodes whose ancestors path changed
}

// RebuildAncestors re-derives every node's ancestors path from parent
// pointers and writes back only the paths that changed. The pass is
// idempotent: running it twice in a row yields zero updates the second time.
//
// Parent chains are walked through an in-memory id map, root first, with a
// depth bound so a cycle in seeded data terminates the walk instead of
// hanging it.
func RebuildAncestors(ctx context.Context, repo Repository, logger *slog.Logger) (*RebuildResult, error) {
	if logger == nil {
		logger = slog.Default()
	}

	all, err := repo.List(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*Location, len(all))
	for _, loc := range all {
		byID[loc.ID] = loc
	}

	result := &RebuildResult{Processed: len(all)}
	updates := make(map[string][]Ancestor)

	for _, loc := range all {
		path := derivePath(loc, byID, logger)
		if !pathsEqual(loc.Ancestors, path) {
			updates[loc.ID] = path
		}
	}

	if len(updates) > 0 {
		if err := repo.UpdateAncestors(ctx, updates); err != nil {
			return nil, err
		}
	}
	result.Updated = len(updates)

	logger.InfoContext(ctx, "ancestor rebuild complete",
		"processed", result.Processed,
		"updated", result.Updated)
	return result, nil
}

// derivePath walks parent pointers from loc to the root and returns the
// root-first ancestors path.
func derivePath(loc *Location, byID map[string]*Location, logger *slog.Logger) []Ancestor {
	var path []Ancestor
	current := loc
	for depth := 0; current.ParentID != nil; depth++ {
		if depth >= maxTreeDepth {
			logger.Warn("parent chain exceeds max depth, possible cycle",
				"location_id", loc.ID, "name", loc.Name)
			break
		}
		parent, ok := byID[*current.ParentID]
		if !ok {
			// Dangling parent reference: stop here, keep the partial path.
			logger.Warn("dangling parent reference",
				"location_id", current.ID, "parent_id", *current.ParentID)
			break
		}
		path = append([]Ancestor{{
			LocationID: parent.ID,
			Name:       parent.Name,
			Type:       parent.Type,
		}}, path...)
		current = parent
	}
	return path
}

// pathsEqual compares two ancestors paths element-wise.
func pathsEqual(a, b []Ancestor) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
