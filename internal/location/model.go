// Package location provides the administrative-region hierarchy: a tree of
// nodes (state down to village/ward) with a denormalized ancestors path for
// fast upward lookups.
package location

import (
	"errors"
	"time"
)

// Common errors for location operations.
var (
	ErrLocationNotFound = errors.New("location not found")
)

// Type identifies the administrative level of a node.
type Type string

// Administrative levels, root first.
const (
	TypeState        Type = "STATE"
	TypeDistrict     Type = "DISTRICT"
	TypeConstituency Type = "CONSTITUENCY"
	TypeMandal       Type = "MANDAL"
	TypeMunicipality Type = "MUNICIPALITY"
	TypeVillage      Type = "VILLAGE"
	TypeWard         Type = "WARD"
)

// Valid reports whether t is a known administrative level.
func (t Type) Valid() bool {
	switch t {
	case TypeState, TypeDistrict, TypeConstituency, TypeMandal,
		TypeMunicipality, TypeVillage, TypeWard:
		return true
	}
	return false
}

// Ancestor is a snapshot of one node on the path from the root to a
// location's immediate parent. It is a cache of the parent chain, not a
// source of truth; RebuildAncestors re-derives it.
type Ancestor struct {
	LocationID string `json:"location_id"`
	Name       string `json:"name"`
	Type       Type   `json:"type"`
}

// Location is one node in the administrative-region tree.
// Every non-root node has exactly one parent; cycles are forbidden by
// ingestion discipline, not by the schema, so tree walks are depth-bounded.
type Location struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Pincode string  `json:"pincode,omitempty"`
	Type    Type    `json:"type"`
	ParentID *string `json:"parent_id,omitempty"`

	// Ancestors is the materialized path from the root to the immediate
	// parent, root first. Empty for root nodes.
	Ancestors []Ancestor `json:"ancestors,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasAncestor reports whether id appears in the node's ancestors path or is
// the node's direct parent. Used for jurisdiction checks.
func (l *Location) HasAncestor(id string) bool {
	if l.ParentID != nil && *l.ParentID == id {
		return true
	}
	for _, a := range l.Ancestors {
		if a.LocationID == id {
			return true
		}
	}
	return false
}
