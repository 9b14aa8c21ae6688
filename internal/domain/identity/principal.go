package identity

import "github.com/google/uuid"

// Principal is the authenticated caller of an operation
type Principal struct {
	UserID uuid.UUID
	Role   Role
	NPSN   string
	OrgID  *uuid.UUID
}

// IsAdmin reports whether the caller is a district admin
func (p Principal) IsAdmin() bool {
	return p.Role == RoleDistrictAdmin
}

// CanManageOrg reports whether the caller may edit content of orgID.
// Admins manage every organization; operators only their own school.
func (p Principal) CanManageOrg(orgID uuid.UUID) bool {
	if p.IsAdmin() {
		return true
	}
	return p.Role == RoleOperator && p.OrgID != nil && *p.OrgID == orgID
}
