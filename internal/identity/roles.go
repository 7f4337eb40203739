// Package identity provides the system's administrative identities and the
// role hierarchy that governs who may manage whom.
package identity

// Role is an access-control role held by an admin or a member.
type Role string

// Roles, highest rank first. MEMBER and INSTITUTION hold no administrative
// rank.
const (
	RoleSuperAdmin        Role = "SUPER_ADMIN"
	RoleStateAdmin        Role = "STATE_ADMIN"
	RoleDistrictAdmin     Role = "DISTRICT_ADMIN"
	RoleMunicipalityAdmin Role = "MUNICIPALITY_ADMIN"
	RoleMandalAdmin       Role = "MANDAL_ADMIN"
	RoleVillageAdmin      Role = "VILLAGE_ADMIN"
	RoleInstitution       Role = "INSTITUTION"
	RoleMember            Role = "MEMBER"
)

// roleRanks orders the admin roles. Mandal and municipality admins both
// administer fourth-level units and share a rank, so neither can manage the
// other.
var roleRanks = map[Role]int{
	RoleSuperAdmin:        5,
	RoleStateAdmin:        4,
	RoleDistrictAdmin:     3,
	RoleMunicipalityAdmin: 2,
	RoleMandalAdmin:       2,
	RoleVillageAdmin:      1,
	RoleInstitution:       0,
	RoleMember:            0,
}

// Rank returns the hierarchy level of a role. Unknown roles rank 0 so they
// can never manage anything and can always be managed.
func Rank(r Role) int {
	return roleRanks[r]
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// IsAdmin reports whether r carries an administrative rank.
func (r Role) IsAdmin() bool {
	return roleRanks[r] > 0 || r == RoleSuperAdmin
}

// CanManage reports whether a creator role may create, update, delete or view
// records held by the target role. The order is strict: equal ranks cannot
// manage each other, and no role can manage itself.
func CanManage(creator, target Role) bool {
	if !creator.Valid() || !target.Valid() {
		return false
	}
	return Rank(creator) > Rank(target)
}

// ManageableRoles returns the admin roles a creator may grant or manage,
// i.e. every admin role ranked strictly below the creator.
func ManageableRoles(creator Role) []Role {
	var out []Role
	for _, r := range []Role{RoleStateAdmin, RoleDistrictAdmin,
		RoleMunicipalityAdmin, RoleMandalAdmin, RoleVillageAdmin} {
		if CanManage(creator, r) {
			out = append(out, r)
		}
	}
	return out
}
