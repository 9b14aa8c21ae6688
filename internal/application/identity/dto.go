package identity

import (
	"time"

	"github.com/datadik/portal/internal/domain/identity"
	"github.com/google/uuid"
)

// LoginInput contains the input for an NPSN login
type LoginInput struct {
	NPSN     string
	Password string
	IP       string // Client IP for the attempt log
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	User    UserInfo
	Session Session
}

// Session is the issued token pair
type Session struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_expires_at"`
	TokenType             string    `json:"token_type"`
}

// UserInfo is the public view of a profile
type UserInfo struct {
	ID        uuid.UUID     `json:"id"`
	Email     string        `json:"email"`
	Role      identity.Role `json:"role"`
	FullName  string        `json:"full_name"`
	NPSN      *string       `json:"npsn"`
	OrgID     *uuid.UUID    `json:"org_id"`
	CreatedAt time.Time     `json:"created_at"`
}

// ToUserInfo converts a profile. orgID may be nil.
func ToUserInfo(p *identity.Profile, orgID *uuid.UUID) UserInfo {
	return UserInfo{
		ID:        p.ID,
		Email:     p.Email,
		Role:      p.Role,
		FullName:  p.FullName,
		NPSN:      p.NPSN,
		OrgID:     orgID,
		CreatedAt: p.CreatedAt,
	}
}

// LogoutInput identifies the token being revoked
type LogoutInput struct {
	UserID         uuid.UUID
	TokenJTI       string
	TokenExpiresAt time.Time
}

// CreateUserInput is the admin request to provision a profile
type CreateUserInput struct {
	NPSN     string
	FullName string
	Role     identity.Role
	Password string
}

// UpdateUserInput is a partial profile update
type UpdateUserInput struct {
	FullName *string
	Role     *identity.Role
	NPSN     *string
	Password *string
}

// RequestCodeInput asks for a verification code on a contact channel
type RequestCodeInput struct {
	OrgID  uuid.UUID
	Type   string
	Target string
}

// RequestCodeResult describes an issued code without revealing it
type RequestCodeResult struct {
	Type      string    `json:"type"`
	Target    string    `json:"target"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ConfirmCodeInput submits a code for verification
type ConfirmCodeInput struct {
	OrgID  uuid.UUID
	Type   string
	Target string
	Code   string
}
