// Package adminmgmt implements the admin-management workflow: listing and
// managing subordinate admins, and promoting members into admin roles
// within the caller's jurisdiction.
package adminmgmt

import "errors"

// Sentinel errors mapped to HTTP statuses at the API layer.
var (
	// ErrForbidden is returned when the caller's role or jurisdiction does
	// not permit the operation.
	ErrForbidden = errors.New("operation not permitted for caller")

	// ErrNotFound is returned when the target admin, member, or location
	// does not exist.
	ErrNotFound = errors.New("target not found")

	// ErrConflict is returned when the target is already in the requested
	// state, such as promoting a member who already holds an admin role.
	ErrConflict = errors.New("target already in requested state")

	// ErrValidation is returned for malformed input.
	ErrValidation = errors.New("invalid input")
)
