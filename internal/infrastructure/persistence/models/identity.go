package models

import (
	"time"

	"github.com/datadik/portal/internal/domain/identity"
	"github.com/datadik/portal/internal/domain/organization"
	"github.com/google/uuid"
)

// ProfileModel is the persistence model for the Profile entity.
type ProfileModel struct {
	BaseModel
	Email        string        `gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHash string        `gorm:"type:varchar(255);not null"`
	Role         identity.Role `gorm:"type:varchar(32);not null;index"`
	FullName     string        `gorm:"type:varchar(255);not null"`
	NPSN         *string       `gorm:"column:npsn;type:varchar(16);index"`
}

// TableName returns the table name for GORM
func (ProfileModel) TableName() string {
	return "profiles"
}

// ToDomain converts the persistence model to a domain Profile.
func (m *ProfileModel) ToDomain() *identity.Profile {
	return &identity.Profile{
		BaseEntity:   m.BaseModel.ToDomain(),
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Role:         m.Role,
		FullName:     m.FullName,
		NPSN:         m.NPSN,
	}
}

// FromDomain populates the model from a domain Profile.
func (m *ProfileModel) FromDomain(p *identity.Profile) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.Email = p.Email
	m.PasswordHash = p.PasswordHash
	m.Role = p.Role
	m.FullName = p.FullName
	m.NPSN = p.NPSN
}

// LoginAttemptModel is one row of the login audit trail.
type LoginAttemptModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	NPSN         string    `gorm:"column:npsn;type:varchar(16);not null;index:idx_login_attempts_npsn_created_at,priority:1"`
	IPAddress    string    `gorm:"type:varchar(64)"`
	IsSuccessful bool      `gorm:"not null;default:false"`
	CreatedAt    time.Time `gorm:"not null;index:idx_login_attempts_npsn_created_at,priority:2"`
}

// TableName returns the table name for GORM
func (LoginAttemptModel) TableName() string {
	return "login_attempts"
}

// ToDomain converts the persistence model to a domain LoginAttempt.
func (m *LoginAttemptModel) ToDomain() *identity.LoginAttempt {
	return &identity.LoginAttempt{
		ID:           m.ID,
		NPSN:         m.NPSN,
		IPAddress:    m.IPAddress,
		IsSuccessful: m.IsSuccessful,
		CreatedAt:    m.CreatedAt,
	}
}

// LoginAttemptModelFromDomain creates a model from a domain LoginAttempt.
func LoginAttemptModelFromDomain(a *identity.LoginAttempt) *LoginAttemptModel {
	return &LoginAttemptModel{
		ID:           a.ID,
		NPSN:         a.NPSN,
		IPAddress:    a.IPAddress,
		IsSuccessful: a.IsSuccessful,
		CreatedAt:    a.CreatedAt,
	}
}

// VerificationCodeModel is the persistence model for a contact verification code.
type VerificationCodeModel struct {
	ID         uuid.UUID            `gorm:"type:uuid;primary_key"`
	OrgID      uuid.UUID            `gorm:"type:uuid;not null;index"`
	Type       organization.Channel `gorm:"type:varchar(16);not null"`
	Target     string               `gorm:"type:varchar(255);not null"`
	Code       string               `gorm:"type:varchar(6);not null"`
	ExpiresAt  time.Time            `gorm:"not null;index"`
	VerifiedAt *time.Time
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (VerificationCodeModel) TableName() string {
	return "verification_codes"
}

// ToDomain converts the persistence model to a domain VerificationCode.
func (m *VerificationCodeModel) ToDomain() *identity.VerificationCode {
	return &identity.VerificationCode{
		ID:         m.ID,
		OrgID:      m.OrgID,
		Type:       m.Type,
		Target:     m.Target,
		Code:       m.Code,
		ExpiresAt:  m.ExpiresAt,
		VerifiedAt: m.VerifiedAt,
		CreatedAt:  m.CreatedAt,
	}
}

// VerificationCodeModelFromDomain creates a model from a domain VerificationCode.
func VerificationCodeModelFromDomain(v *identity.VerificationCode) *VerificationCodeModel {
	return &VerificationCodeModel{
		ID:         v.ID,
		OrgID:      v.OrgID,
		Type:       v.Type,
		Target:     v.Target,
		Code:       v.Code,
		ExpiresAt:  v.ExpiresAt,
		VerifiedAt: v.VerifiedAt,
		CreatedAt:  v.CreatedAt,
	}
}
