package handler

import (
	"github.com/datadik/portal/internal/application/identity"
)

// =====================
// Auth Request DTOs
// =====================

// LoginRequest represents the request body for an NPSN login.
// Presence and length are checked by the auth service so the login form
// gets its own messages.
type LoginRequest struct {
	NPSN     string `json:"npsn" example:"20201010"`
	Password string `json:"password" example:"rahasia123"`
}

// RefreshTokenRequest represents the request body for token refresh
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// =====================
// Auth Response DTOs
// =====================

// LoginResponse represents the response body for a successful login
type LoginResponse struct {
	User    identity.UserInfo `json:"user"`
	Session identity.Session  `json:"session"`
}

// MessageResponse carries a human readable confirmation
type MessageResponse struct {
	Message string `json:"message"`
}

// =====================
// User Provisioning DTOs
// =====================

// CreateUserRequest represents the request body for provisioning a user
type CreateUserRequest struct {
	NPSN     string `json:"npsn" binding:"omitempty,numeric,max=20" example:"20201010"`
	FullName string `json:"full_name" binding:"max=200" example:"Operator SDN 1"`
	Role     string `json:"role" binding:"omitempty,oneof=admin_kecamatan operator" example:"operator"`
	Password string `json:"password" binding:"max=128"`
}

// UpdateUserRequest represents a partial user update
type UpdateUserRequest struct {
	FullName *string `json:"full_name" binding:"omitempty,max=200"`
	Role     *string `json:"role" binding:"omitempty,oneof=admin_kecamatan operator"`
	NPSN     *string `json:"npsn" binding:"omitempty,numeric,max=20"`
	Password *string `json:"password" binding:"omitempty,max=128"`
}
