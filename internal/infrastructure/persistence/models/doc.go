// Package models contains GORM persistence models that map to database tables.
// Domain entities stay free of ORM tags; each model converts to and from its
// domain type with ToDomain / FromDomain.
//
// Structure:
//   - base.go: BaseModel shared by every table
//   - organization.go: organizations and school_data
//   - content.go: posts and submissions
//   - identity.go: profiles, login_attempts and verification_codes
package models
