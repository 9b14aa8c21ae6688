// Package organization holds the tenant aggregate and its school extension.
package organization

import (
	"regexp"
	"strings"
	"time"

	"github.com/datadik/portal/internal/domain/shared"
)

// Type is the kind of organization
type Type string

const (
	TypeSchool   Type = "sekolah"
	TypeDistrict Type = "dinas"
	TypePartner  Type = "umum"
)

// IsValid reports whether t is a known organization type
func (t Type) IsValid() bool {
	switch t {
	case TypeSchool, TypeDistrict, TypePartner:
		return true
	}
	return false
}

// DefaultThemeColor is applied when no theme color is provided
const DefaultThemeColor = "#2563eb"

var (
	slugPattern  = regexp.MustCompile(`^[a-z0-9_]+(?:-[a-z0-9_]+)*$`)
	colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

// Organization is a tenant addressable by its slug as a subdomain
type Organization struct {
	shared.BaseAggregateRoot
	Slug               string
	Name               string
	Type               Type
	LogoURL            *string
	FaviconURL         *string
	Address            *string
	ThemeColor         string
	ContactEmail       *string
	EmailVerifiedAt    *time.Time
	ContactPhone       *string
	WhatsappVerifiedAt *time.Time
}

// NewOrganization creates an organization with a validated slug and name
func NewOrganization(slug, name string, orgType Type) (*Organization, error) {
	if err := ValidateSlug(slug); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Nama organisasi harus diisi")
	}
	if orgType == "" {
		orgType = TypeSchool
	}
	if !orgType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TYPE", "Tipe organisasi tidak valid")
	}

	org := &Organization{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Slug:              slug,
		Name:              name,
		Type:              orgType,
		ThemeColor:        DefaultThemeColor,
	}
	org.AddDomainEvent(NewOrganizationCreatedEvent(org))
	return org, nil
}

// ValidateSlug checks that slug can be used as a host label
func ValidateSlug(slug string) error {
	if slug == "" {
		return shared.NewDomainError("INVALID_SLUG", "Slug harus diisi")
	}
	if len(slug) > 63 || !slugPattern.MatchString(slug) {
		return shared.NewDomainError("INVALID_SLUG", "Slug hanya boleh berisi huruf kecil, angka, dan tanda hubung")
	}
	return nil
}

// Rename updates the display name
func (o *Organization) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Nama organisasi harus diisi")
	}
	o.Name = name
	o.Touch()
	return nil
}

// ChangeSlug moves the organization to a different subdomain
func (o *Organization) ChangeSlug(slug string) error {
	if err := ValidateSlug(slug); err != nil {
		return err
	}
	o.Slug = slug
	o.Touch()
	return nil
}

// ChangeType updates the organization type
func (o *Organization) ChangeType(t Type) error {
	if !t.IsValid() {
		return shared.NewDomainError("INVALID_TYPE", "Tipe organisasi tidak valid")
	}
	o.Type = t
	o.Touch()
	return nil
}

// SetThemeColor sets a #rrggbb theme color
func (o *Organization) SetThemeColor(color string) error {
	if color == "" {
		color = DefaultThemeColor
	}
	if !colorPattern.MatchString(color) {
		return shared.NewDomainError("INVALID_THEME_COLOR", "Warna tema harus berformat #RRGGBB")
	}
	o.ThemeColor = color
	o.Touch()
	return nil
}

// SetBranding updates the optional logo, favicon and address fields
func (o *Organization) SetBranding(logoURL, faviconURL, address *string) {
	if logoURL != nil {
		o.LogoURL = emptyToNil(*logoURL)
	}
	if faviconURL != nil {
		o.FaviconURL = emptyToNil(*faviconURL)
	}
	if address != nil {
		o.Address = emptyToNil(*address)
	}
	o.Touch()
}

// MarkContactVerified records a verified contact channel
func (o *Organization) MarkContactVerified(channel Channel, target string, at time.Time) {
	switch channel {
	case ChannelEmail:
		o.ContactEmail = &target
		o.EmailVerifiedAt = &at
	case ChannelWhatsapp:
		o.ContactPhone = &target
		o.WhatsappVerifiedAt = &at
	}
	o.Touch()
}

// IsSchool reports whether the organization is a school
func (o *Organization) IsSchool() bool {
	return o.Type == TypeSchool
}

func emptyToNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Channel is a contact verification channel
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelWhatsapp Channel = "whatsapp"
)

// IsValid reports whether c is a known channel
func (c Channel) IsValid() bool {
	return c == ChannelEmail || c == ChannelWhatsapp
}

// Event types
const (
	EventTypeOrganizationCreated = "organization.created"
	AggregateTypeOrganization    = "Organization"
)

// OrganizationCreatedEvent is raised when a new organization is created
type OrganizationCreatedEvent struct {
	shared.BaseDomainEvent
	Slug string `json:"slug"`
	Name string `json:"name"`
	Type Type   `json:"type"`
}

// NewOrganizationCreatedEvent creates the event for org
func NewOrganizationCreatedEvent(org *Organization) *OrganizationCreatedEvent {
	return &OrganizationCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrganizationCreated, AggregateTypeOrganization, org.ID, org.ID),
		Slug:            org.Slug,
		Name:            org.Name,
		Type:            org.Type,
	}
}

var _ shared.DomainEvent = (*OrganizationCreatedEvent)(nil)

