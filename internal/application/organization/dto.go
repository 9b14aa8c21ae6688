package organization

import (
	"time"

	"github.com/datadik/portal/internal/domain/organization"
	"github.com/google/uuid"
)

// OrganizationResponse is the API view of an organization
type OrganizationResponse struct {
	ID                 uuid.UUID         `json:"id"`
	Slug               string            `json:"slug"`
	Name               string            `json:"name"`
	Type               organization.Type `json:"type"`
	LogoURL            *string           `json:"logo_url"`
	FaviconURL         *string           `json:"favicon_url"`
	Address            *string           `json:"address"`
	ThemeColor         string            `json:"theme_color"`
	ContactEmail       *string           `json:"contact_email"`
	EmailVerifiedAt    *time.Time        `json:"email_verified_at"`
	ContactPhone       *string           `json:"contact_phone"`
	WhatsappVerifiedAt *time.Time        `json:"whatsapp_verified_at"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// ToOrganizationResponse converts a domain organization
func ToOrganizationResponse(o *organization.Organization) OrganizationResponse {
	return OrganizationResponse{
		ID:                 o.ID,
		Slug:               o.Slug,
		Name:               o.Name,
		Type:               o.Type,
		LogoURL:            o.LogoURL,
		FaviconURL:         o.FaviconURL,
		Address:            o.Address,
		ThemeColor:         o.ThemeColor,
		ContactEmail:       o.ContactEmail,
		EmailVerifiedAt:    o.EmailVerifiedAt,
		ContactPhone:       o.ContactPhone,
		WhatsappVerifiedAt: o.WhatsappVerifiedAt,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

// ToOrganizationResponses converts a slice
func ToOrganizationResponses(orgs []organization.Organization) []OrganizationResponse {
	out := make([]OrganizationResponse, 0, len(orgs))
	for i := range orgs {
		out = append(out, ToOrganizationResponse(&orgs[i]))
	}
	return out
}

// CreateOrganizationInput creates an organization. An empty slug is derived from the name.
type CreateOrganizationInput struct {
	Slug       string
	Name       string
	Type       organization.Type
	LogoURL    *string
	FaviconURL *string
	Address    *string
	ThemeColor string
}

// UpdateOrganizationInput is a partial update
type UpdateOrganizationInput struct {
	Slug       *string
	Name       *string
	Type       *organization.Type
	LogoURL    *string
	FaviconURL *string
	Address    *string
	ThemeColor *string
}

// SchoolDataResponse is the API view of a school extension
type SchoolDataResponse struct {
	OrgID     uuid.UUID                `json:"org_id"`
	NPSN      *string                  `json:"npsn"`
	Stats     organization.SchoolStats `json:"stats"`
	Extras    map[string]any           `json:"extras"`
	UpdatedAt time.Time                `json:"updated_at"`
}

// ToSchoolDataResponse converts a domain school extension
func ToSchoolDataResponse(d *organization.SchoolData) SchoolDataResponse {
	extras := d.Extras
	if extras == nil {
		extras = map[string]any{}
	}
	return SchoolDataResponse{
		OrgID:     d.OrgID,
		NPSN:      d.NPSN,
		Stats:     d.Stats,
		Extras:    extras,
		UpdatedAt: d.UpdatedAt,
	}
}

// UpdateSchoolDataInput edits the operator-owned stats and extras
type UpdateSchoolDataInput struct {
	Stats  organization.ProfileUpdate
	Extras map[string]any
}
