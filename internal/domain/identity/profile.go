// Package identity holds user profiles, login attempts and contact
// verification codes.
package identity

import (
	"regexp"
	"strings"

	"github.com/datadik/portal/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Role is the access level of a profile
type Role string

const (
	RoleDistrictAdmin Role = "admin_kecamatan"
	RoleOperator      Role = "operator"
)

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	return r == RoleDistrictAdmin || r == RoleOperator
}

// Email domains for synthesized login identities
const (
	OperatorEmailDomain = "datadikcilebar.id"
	AdminEmailDomain    = "admin.kecamatan"
	AdminEmailLocalPart = "admin"
)

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 6

// Password cost for bcrypt
const bcryptCost = 12

var npsnPattern = regexp.MustCompile(`^\d+$`)

// Validation errors carry the user-facing Indonesian messages
var (
	ErrMissingProfileFields = shared.NewDomainError("VALIDATION_ERROR", "Nama lengkap, role, dan password harus diisi.")
	ErrPasswordTooShort     = shared.NewDomainError("VALIDATION_ERROR", "Password minimal 6 karakter.")
	ErrOperatorNeedsNPSN    = shared.NewDomainError("VALIDATION_ERROR", "NPSN wajib diisi untuk operator.")
	ErrInvalidRole          = shared.NewDomainError("VALIDATION_ERROR", "Role tidak valid.")
	ErrInvalidNPSN          = shared.NewDomainError("VALIDATION_ERROR", "NPSN hanya boleh berisi angka.")
)

// OperatorEmail returns the login email of a school operator
func OperatorEmail(npsn string) string {
	return npsn + "@" + OperatorEmailDomain
}

// AdminEmail returns the login email of a district admin
func AdminEmail(npsn string) string {
	local := npsn
	if local == "" {
		local = AdminEmailLocalPart
	}
	return local + "@" + AdminEmailDomain
}

// EmailFor synthesizes the login email for a role
func EmailFor(role Role, npsn string) string {
	if role == RoleOperator {
		return OperatorEmail(npsn)
	}
	return AdminEmail(npsn)
}

// Profile is an authentication identity together with its portal role
type Profile struct {
	shared.BaseEntity
	Email        string
	PasswordHash string
	Role         Role
	FullName     string
	NPSN         *string
}

// NewProfile validates input, hashes the password and synthesizes the email
func NewProfile(fullName string, role Role, npsn, password string) (*Profile, error) {
	fullName = strings.TrimSpace(fullName)
	npsn = strings.TrimSpace(npsn)
	if fullName == "" || role == "" || password == "" {
		return nil, ErrMissingProfileFields
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}
	if err := validateRoleNPSN(role, npsn); err != nil {
		return nil, err
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	p := &Profile{
		BaseEntity:   shared.NewBaseEntity(),
		Email:        EmailFor(role, npsn),
		PasswordHash: hash,
		Role:         role,
		FullName:     fullName,
	}
	if npsn != "" {
		p.NPSN = &npsn
	}
	return p, nil
}

// ProfileChanges is a partial update. Nil fields are unchanged.
type ProfileChanges struct {
	FullName *string
	Role     *Role
	NPSN     *string
	Password *string
}

// Apply updates the profile and re-synthesizes the email when role or NPSN change
func (p *Profile) Apply(c ProfileChanges) error {
	role := p.Role
	if c.Role != nil {
		role = *c.Role
	}
	npsn := ""
	if p.NPSN != nil {
		npsn = *p.NPSN
	}
	if c.NPSN != nil {
		npsn = strings.TrimSpace(*c.NPSN)
	}
	if err := validateRoleNPSN(role, npsn); err != nil {
		return err
	}

	if c.FullName != nil {
		name := strings.TrimSpace(*c.FullName)
		if name == "" {
			return ErrMissingProfileFields
		}
		p.FullName = name
	}
	if c.Password != nil && *c.Password != "" {
		if err := p.SetPassword(*c.Password); err != nil {
			return err
		}
	}

	p.Role = role
	if npsn == "" {
		p.NPSN = nil
	} else {
		p.NPSN = &npsn
	}
	p.Email = EmailFor(role, npsn)
	p.Touch()
	return nil
}

// SetPassword replaces the password hash
func (p *Profile) SetPassword(password string) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	p.PasswordHash = hash
	p.Touch()
	return nil
}

// VerifyPassword checks a plaintext password against the stored hash
func (p *Profile) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)) == nil
}

// IsAdmin reports whether the profile is a district admin
func (p *Profile) IsAdmin() bool {
	return p.Role == RoleDistrictAdmin
}

// NPSNValue returns the NPSN or an empty string
func (p *Profile) NPSNValue() string {
	if p.NPSN == nil {
		return ""
	}
	return *p.NPSN
}

// ValidatePassword enforces the minimum password length
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

func validateRoleNPSN(role Role, npsn string) error {
	if !role.IsValid() {
		return ErrInvalidRole
	}
	if role == RoleOperator && npsn == "" {
		return ErrOperatorNeedsNPSN
	}
	if npsn != "" && !npsnPattern.MatchString(npsn) {
		return ErrInvalidNPSN
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
