package adminmgmt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/mewshq/mews/internal/identity"
	"github.com/mewshq/mews/internal/location"
	"github.com/mewshq/mews/internal/member"
	"github.com/mewshq/mews/internal/notify"
	"github.com/mewshq/mews/internal/scope"
	"github.com/mewshq/mews/internal/validate"
)

// Service implements the admin-management workflow. Every operation takes
// the caller so role and jurisdiction checks happen here, not in handlers.
type Service struct {
	admins    identity.Repository
	members   member.Repository
	locations location.Repository
	resolver  *scope.Resolver
	tx        TxStore
	notifier  notify.Notifier
	logger    *slog.Logger
}

// NewService creates an admin-management Service.
func NewService(admins identity.Repository, members member.Repository, locations location.Repository, resolver *scope.Resolver, tx TxStore, notifier notify.Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		admins:    admins,
		members:   members,
		locations: locations,
		resolver:  resolver,
		tx:        tx,
		notifier:  notifier,
		logger:    logger,
	}
}

// ListSubordinates returns the admins the caller may manage: every admin
// holding a strictly lower-ranked role, restricted to the caller's location
// subtree when the caller is scoped.
func (s *Service) ListSubordinates(ctx context.Context, caller scope.Caller) ([]*identity.Admin, error) {
	roles := identity.ManageableRoles(caller.Role)
	if len(roles) == 0 {
		return nil, nil
	}

	filter := identity.SubordinateFilter{ExcludeID: caller.AdminID, Roles: roles}
	if caller.AssignedLocationID != nil {
		ids, err := s.locations.FindDescendantIDs(ctx, *caller.AssignedLocationID)
		if err != nil {
			return nil, fmt.Errorf("resolve caller subtree: %w", err)
		}
		filter.LocationIDs = append(ids, *caller.AssignedLocationID)
	}
	return s.admins.FindSubordinates(ctx, filter)
}

// ChildLocations lists the direct children of a location the caller has
// jurisdiction over, optionally filtered by type. Used by the drill-down
// navigation.
func (s *Service) ChildLocations(ctx context.Context, caller scope.Caller, parentID string, t location.Type) ([]*location.Location, error) {
	if parentID == "" {
		return nil, fmt.Errorf("%w: parent location id required", ErrValidation)
	}
	ok, err := s.resolver.VerifyJurisdiction(ctx, caller, parentID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: location outside jurisdiction", ErrForbidden)
	}
	return s.locations.FindChildren(ctx, parentID, t)
}

// SearchMemberByMobile finds a member by mobile number within the caller's
// scope. A member outside the caller's jurisdiction is reported as not
// found rather than revealed.
func (s *Service) SearchMemberByMobile(ctx context.Context, caller scope.Caller, mobile string) (*member.Member, error) {
	mobile, err := validate.MobileNumber(mobile)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed mobile number", ErrValidation)
	}

	m, err := s.members.GetByMobile(ctx, mobile)
	if errors.Is(err, member.ErrMemberNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	sc, err := s.resolver.Resolve(ctx, caller, "")
	if err != nil {
		return nil, err
	}
	if !sc.Predicate.Matches(m.Address.Ref()) {
		return nil, ErrNotFound
	}
	return m, nil
}

// PromoteRequest names the member, the role to grant, and the location the
// new admin is assigned to.
type PromoteRequest struct {
	MemberID   string
	Role       identity.Role
	LocationID string
}

// PromoteResult reports the outcome of a promotion.
type PromoteResult struct {
	Admin *identity.Admin `json:"admin"`

	// CredentialsSent is false when the credential notice could not be
	// dispatched; the promotion itself still stands.
	CredentialsSent bool `json:"credentials_sent"`
}

// PromoteMember elevates a member to an admin role. The caller must outrank
// the granted role and hold jurisdiction over the assigned location. The
// admin record and the member's elevated role are written atomically, and
// login credentials are sent to the member's mobile number.
func (s *Service) PromoteMember(ctx context.Context, caller scope.Caller, req PromoteRequest) (*PromoteResult, error) {
	if req.MemberID == "" || req.LocationID == "" {
		return nil, fmt.Errorf("%w: member id and location id required", ErrValidation)
	}
	if !req.Role.Valid() || !req.Role.IsAdmin() || req.Role == identity.RoleSuperAdmin {
		return nil, fmt.Errorf("%w: role %q is not grantable", ErrValidation, req.Role)
	}
	if !identity.CanManage(caller.Role, req.Role) {
		return nil, fmt.Errorf("%w: %s may not grant %s", ErrForbidden, caller.Role, req.Role)
	}

	ok, err := s.resolver.VerifyJurisdiction(ctx, caller, req.LocationID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: location outside jurisdiction", ErrForbidden)
	}
	if _, err := s.locations.GetByID(ctx, req.LocationID); err != nil {
		if errors.Is(err, location.ErrLocationNotFound) {
			return nil, fmt.Errorf("%w: location %s", ErrNotFound, req.LocationID)
		}
		return nil, err
	}

	m, err := s.members.GetByID(ctx, req.MemberID)
	if errors.Is(err, member.ErrMemberNotFound) {
		return nil, fmt.Errorf("%w: member %s", ErrNotFound, req.MemberID)
	}
	if err != nil {
		return nil, err
	}
	if m.Role.IsAdmin() {
		return nil, fmt.Errorf("%w: member already holds role %s", ErrConflict, m.Role)
	}
	mobile, err := validate.MobileNumber(m.MobileNumber)
	if err != nil {
		return nil, fmt.Errorf("%w: member has no usable mobile number", ErrValidation)
	}

	password := defaultPassword(mobile)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash credential: %w", err)
	}

	locID := req.LocationID
	admin := &identity.Admin{
		Username:           mobile,
		MobileNumber:       mobile,
		Email:              m.Email,
		PasswordHash:       string(hash),
		Role:               req.Role,
		AssignedLocationID: &locID,
		MemberID:           &m.ID,
		IsActive:           true,
	}

	m.Role = req.Role
	m.AssignedLocationID = &locID

	if err := s.tx.Promote(ctx, admin, m); err != nil {
		if errors.Is(err, identity.ErrUsernameTaken) {
			return nil, fmt.Errorf("%w: an admin login already exists for %s", ErrConflict, mobile)
		}
		return nil, fmt.Errorf("promote member: %w", err)
	}

	result := &PromoteResult{Admin: admin, CredentialsSent: true}
	if err := s.notifier.SendCredentials(ctx, notify.CredentialNotice{
		MobileNumber: mobile,
		Username:     admin.Username,
		Password:     password,
		Role:         string(req.Role),
	}); err != nil {
		s.logger.WarnContext(ctx, "credential notice failed",
			"admin_id", admin.ID, "error", err)
		result.CredentialsSent = false
	}

	s.logger.InfoContext(ctx, "member promoted",
		"member_id", m.ID, "admin_id", admin.ID,
		"role", req.Role, "location_id", req.LocationID,
		"promoted_by", caller.AdminID)
	return result, nil
}

// DemoteAdmin reverses a promotion: the admin record is removed and the
// linked member returns to the plain MEMBER role, atomically.
func (s *Service) DemoteAdmin(ctx context.Context, caller scope.Caller, adminID string) error {
	admin, err := s.getManagedAdmin(ctx, caller, adminID)
	if err != nil {
		return err
	}
	if admin.MemberID == nil {
		return fmt.Errorf("%w: admin %s was not promoted from a member", ErrConflict, adminID)
	}

	m, err := s.members.GetByID(ctx, *admin.MemberID)
	if errors.Is(err, member.ErrMemberNotFound) {
		return fmt.Errorf("%w: member %s", ErrNotFound, *admin.MemberID)
	}
	if err != nil {
		return err
	}

	m.Role = identity.RoleMember
	m.AssignedLocationID = nil

	if err := s.tx.Demote(ctx, adminID, m); err != nil {
		return fmt.Errorf("demote admin: %w", err)
	}
	s.logger.InfoContext(ctx, "admin demoted",
		"admin_id", adminID, "member_id", m.ID, "demoted_by", caller.AdminID)
	return nil
}

// CreateRequest creates an admin login directly, without a member record.
// Used for seeding the upper tiers of the hierarchy.
type CreateRequest struct {
	Username     string
	Email        string
	MobileNumber string
	Password     string
	Role         identity.Role
	LocationID   string
}

// CreateAdmin creates a subordinate admin login.
func (s *Service) CreateAdmin(ctx context.Context, caller scope.Caller, req CreateRequest) (*identity.Admin, error) {
	if req.Username == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: username and password required", ErrValidation)
	}
	username, err := validate.Username(req.Username)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed username", ErrValidation)
	}
	req.Username = username
	if req.Email != "" {
		email, err := validate.Email(req.Email)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed email", ErrValidation)
		}
		req.Email = email
	}
	if req.MobileNumber != "" {
		mobile, err := validate.MobileNumber(req.MobileNumber)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed mobile number", ErrValidation)
		}
		req.MobileNumber = mobile
	}
	if !req.Role.Valid() || !req.Role.IsAdmin() || req.Role == identity.RoleSuperAdmin {
		return nil, fmt.Errorf("%w: role %q is not grantable", ErrValidation, req.Role)
	}
	if !identity.CanManage(caller.Role, req.Role) {
		return nil, fmt.Errorf("%w: %s may not grant %s", ErrForbidden, caller.Role, req.Role)
	}

	var assigned *string
	if req.LocationID != "" {
		ok, err := s.resolver.VerifyJurisdiction(ctx, caller, req.LocationID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: location outside jurisdiction", ErrForbidden)
		}
		if _, err := s.locations.GetByID(ctx, req.LocationID); err != nil {
			if errors.Is(err, location.ErrLocationNotFound) {
				return nil, fmt.Errorf("%w: location %s", ErrNotFound, req.LocationID)
			}
			return nil, err
		}
		id := req.LocationID
		assigned = &id
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash credential: %w", err)
	}

	admin := &identity.Admin{
		Username:           req.Username,
		Email:              req.Email,
		MobileNumber:       req.MobileNumber,
		PasswordHash:       string(hash),
		Role:               req.Role,
		AssignedLocationID: assigned,
		IsActive:           true,
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		if errors.Is(err, identity.ErrUsernameTaken) {
			return nil, fmt.Errorf("%w: username %s", ErrConflict, req.Username)
		}
		return nil, fmt.Errorf("create admin: %w", err)
	}

	s.logger.InfoContext(ctx, "admin created",
		"admin_id", admin.ID, "role", req.Role, "created_by", caller.AdminID)
	return admin, nil
}

// UpdateRequest carries the mutable admin fields. Nil pointers leave the
// field unchanged.
type UpdateRequest struct {
	Email        *string
	MobileNumber *string
	IsActive     *bool
	LocationID   *string
}

// UpdateAdmin updates a subordinate admin.
func (s *Service) UpdateAdmin(ctx context.Context, caller scope.Caller, adminID string, req UpdateRequest) (*identity.Admin, error) {
	admin, err := s.getManagedAdmin(ctx, caller, adminID)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		admin.Email = ""
		if *req.Email != "" {
			email, err := validate.Email(*req.Email)
			if err != nil {
				return nil, fmt.Errorf("%w: malformed email", ErrValidation)
			}
			admin.Email = email
		}
	}
	if req.MobileNumber != nil {
		mobile, err := validate.MobileNumber(*req.MobileNumber)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed mobile number", ErrValidation)
		}
		admin.MobileNumber = mobile
	}
	if req.IsActive != nil {
		admin.IsActive = *req.IsActive
	}
	if req.LocationID != nil {
		ok, err := s.resolver.VerifyJurisdiction(ctx, caller, *req.LocationID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: location outside jurisdiction", ErrForbidden)
		}
		id := *req.LocationID
		admin.AssignedLocationID = &id
	}

	if err := s.admins.Update(ctx, admin); err != nil {
		return nil, fmt.Errorf("update admin: %w", err)
	}
	s.logger.InfoContext(ctx, "admin updated",
		"admin_id", adminID, "updated_by", caller.AdminID)
	return admin, nil
}

// DeleteAdmin removes a subordinate admin login. Promoted admins are routed
// through the demotion path so the linked member is reset in the same
// transaction.
func (s *Service) DeleteAdmin(ctx context.Context, caller scope.Caller, adminID string) error {
	admin, err := s.getManagedAdmin(ctx, caller, adminID)
	if err != nil {
		return err
	}
	if admin.MemberID != nil {
		return s.DemoteAdmin(ctx, caller, adminID)
	}
	if err := s.admins.Delete(ctx, adminID); err != nil {
		return fmt.Errorf("delete admin: %w", err)
	}
	s.logger.InfoContext(ctx, "admin deleted",
		"admin_id", adminID, "deleted_by", caller.AdminID)
	return nil
}

// FindOrphanedPromotions runs the consistency sweep for members holding an
// admin role without a login. SUPER_ADMIN only.
func (s *Service) FindOrphanedPromotions(ctx context.Context, caller scope.Caller) ([]string, error) {
	if caller.Role != identity.RoleSuperAdmin {
		return nil, fmt.Errorf("%w: orphan sweep is restricted", ErrForbidden)
	}
	return s.tx.FindOrphanedPromotions(ctx)
}

// getManagedAdmin loads an admin and verifies the caller outranks it and
// holds jurisdiction over its assigned location.
func (s *Service) getManagedAdmin(ctx context.Context, caller scope.Caller, adminID string) (*identity.Admin, error) {
	if adminID == "" {
		return nil, fmt.Errorf("%w: admin id required", ErrValidation)
	}
	admin, err := s.admins.GetByID(ctx, adminID)
	if errors.Is(err, identity.ErrAdminNotFound) {
		return nil, fmt.Errorf("%w: admin %s", ErrNotFound, adminID)
	}
	if err != nil {
		return nil, err
	}
	if !identity.CanManage(caller.Role, admin.Role) {
		return nil, fmt.Errorf("%w: %s may not manage %s", ErrForbidden, caller.Role, admin.Role)
	}
	if admin.AssignedLocationID != nil {
		ok, err := s.resolver.VerifyJurisdiction(ctx, caller, *admin.AssignedLocationID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: admin outside jurisdiction", ErrForbidden)
		}
	}
	return admin, nil
}

// defaultPassword is the generated first-login credential sent to a
// promoted member.
func defaultPassword(mobile string) string {
	return "Mews@" + mobile
}
