// Package member provides the community-member records and the scoped
// queries the dashboard and analytics layers run over them.
package member

import (
	"errors"
	"time"

	"github.com/mewshq/mews/internal/identity"
	"github.com/mewshq/mews/internal/scope"
)

// Common errors for member operations.
var (
	ErrMemberNotFound = errors.New("member not found")
)

// VerificationStatus tracks a member through the approval pipeline.
type VerificationStatus string

// Verification states.
const (
	StatusPending        VerificationStatus = "PENDING"
	StatusApprovedVillage VerificationStatus = "APPROVED_VILLAGE"
	StatusApprovedMandal  VerificationStatus = "APPROVED_MANDAL"
	StatusActive          VerificationStatus = "ACTIVE"
	StatusRejected        VerificationStatus = "REJECTED"
)

// Address carries a member's location-tree references plus the free-text
// parts of a postal address. Empty ids mean the reference is unset.
type Address struct {
	DistrictID     string `json:"district_id,omitempty"`
	MandalID       string `json:"mandal_id,omitempty"`
	MunicipalityID string `json:"municipality_id,omitempty"`
	VillageID      string `json:"village_id,omitempty"`
	ConstituencyID string `json:"constituency_id,omitempty"`
	WardNumber     string `json:"ward_number,omitempty"`
	HouseNumber    string `json:"house_number,omitempty"`
	Street         string `json:"street,omitempty"`
	PinCode        string `json:"pin_code,omitempty"`
	State          string `json:"state,omitempty"`
}

// Ref converts the address to the reference struct scope predicates
// evaluate against.
func (a Address) Ref() scope.AddressRef {
	return scope.AddressRef{
		VillageID:      a.VillageID,
		MandalID:       a.MandalID,
		MunicipalityID: a.MunicipalityID,
		DistrictID:     a.DistrictID,
	}
}

// Member is a community member record, household head or dependent. The
// role field is MEMBER by default and is elevated by the promotion workflow,
// which also sets AssignedLocationID.
type Member struct {
	ID         string `json:"id"`
	MewsID     string `json:"mews_id,omitempty"`
	Surname    string `json:"surname"`
	Name       string `json:"name"`
	FatherName string `json:"father_name,omitempty"`

	Gender        string     `json:"gender,omitempty"`
	Age           int        `json:"age,omitempty"`
	DOB           *time.Time `json:"dob,omitempty"`
	Occupation    string     `json:"occupation,omitempty"`
	MaritalStatus string     `json:"marital_status,omitempty"`
	BloodGroup    string     `json:"blood_group,omitempty"`

	MobileNumber  string `json:"mobile_number,omitempty"`
	Email         string `json:"email,omitempty"`
	AadhaarNumber string `json:"aadhaar_number,omitempty"`

	Address Address `json:"address"`

	// RationCardNumber is the preferred household grouping key; empty means
	// the synthetic house-number key is used instead.
	RationCardNumber string `json:"ration_card_number,omitempty"`

	VerificationStatus VerificationStatus `json:"verification_status"`

	// HeadOfFamilyID links a dependent to the household head.
	HeadOfFamilyID string `json:"head_of_family_id,omitempty"`
	RelationToHead string `json:"relation_to_head,omitempty"`

	// Role is MEMBER unless the member has been promoted to an admin role.
	Role               identity.Role `json:"role"`
	AssignedLocationID *string       `json:"assigned_location_id,omitempty"`

	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
