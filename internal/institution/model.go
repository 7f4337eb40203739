// Package institution stores community institutions (schools, temples,
// function halls) and matches them to a caller's jurisdiction by address
// text, since institution records predate the structured location tree.
package institution

import (
	"errors"
	"time"
)

// ErrInstitutionNotFound is returned when an institution id does not exist.
var ErrInstitutionNotFound = errors.New("institution not found")

// Institution is a community institution record.
type Institution struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`

	// FullAddress is free text. Jurisdiction matching runs a case-insensitive
	// substring search over it; see Repository.CountMatching.
	FullAddress string `json:"full_address"`

	ContactName   string `json:"contact_name,omitempty"`
	ContactMobile string `json:"contact_mobile,omitempty"`

	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
