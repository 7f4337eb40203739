package identity

import (
	"errors"
	"time"
)

// Common errors for admin identity operations.
var (
	ErrAdminNotFound = errors.New("admin not found")
	ErrUsernameTaken = errors.New("username already exists")
)

// Admin is a system login identity. Admins are created at seed time or by the
// promotion workflow; they are deactivated via IsActive rather than deleted,
// except by explicit hierarchy-checked admin action.
type Admin struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email,omitempty"`
	MobileNumber string `json:"mobile_number,omitempty"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`

	// AssignedLocationID scopes the admin to a location subtree. Nil means
	// global (unscoped), used by SUPER_ADMIN.
	AssignedLocationID *string `json:"assigned_location_id,omitempty"`

	// MemberID links back to the Member record this admin was promoted from.
	MemberID *string `json:"member_id,omitempty"`

	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
