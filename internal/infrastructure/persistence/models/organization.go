package models

import (
	"encoding/json"
	"time"

	"github.com/datadik/portal/internal/domain/organization"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var modelLogger = zap.L().Named("models")

// OrganizationModel is the persistence model for the Organization aggregate.
type OrganizationModel struct {
	BaseModel
	Slug               string            `gorm:"type:varchar(63);not null;uniqueIndex"`
	Name               string            `gorm:"type:varchar(255);not null"`
	Type               organization.Type `gorm:"type:varchar(20);not null;default:'sekolah';index"`
	LogoURL            *string           `gorm:"type:text"`
	FaviconURL         *string           `gorm:"type:text"`
	Address            *string           `gorm:"type:text"`
	ThemeColor         string            `gorm:"type:varchar(7);not null;default:'#2563eb'"`
	ContactEmail       *string           `gorm:"type:varchar(255)"`
	EmailVerifiedAt    *time.Time
	ContactPhone       *string `gorm:"type:varchar(32)"`
	WhatsappVerifiedAt *time.Time
}

// TableName returns the table name for GORM
func (OrganizationModel) TableName() string {
	return "organizations"
}

// ToDomain converts the persistence model to a domain Organization.
func (m *OrganizationModel) ToDomain() *organization.Organization {
	return &organization.Organization{
		BaseAggregateRoot:  m.aggregateRoot(),
		Slug:               m.Slug,
		Name:               m.Name,
		Type:               m.Type,
		LogoURL:            m.LogoURL,
		FaviconURL:         m.FaviconURL,
		Address:            m.Address,
		ThemeColor:         m.ThemeColor,
		ContactEmail:       m.ContactEmail,
		EmailVerifiedAt:    m.EmailVerifiedAt,
		ContactPhone:       m.ContactPhone,
		WhatsappVerifiedAt: m.WhatsappVerifiedAt,
	}
}

// FromDomain populates the model from a domain Organization.
func (m *OrganizationModel) FromDomain(o *organization.Organization) {
	m.FromDomainBaseEntity(o.BaseEntity)
	m.Slug = o.Slug
	m.Name = o.Name
	m.Type = o.Type
	m.LogoURL = o.LogoURL
	m.FaviconURL = o.FaviconURL
	m.Address = o.Address
	m.ThemeColor = o.ThemeColor
	m.ContactEmail = o.ContactEmail
	m.EmailVerifiedAt = o.EmailVerifiedAt
	m.ContactPhone = o.ContactPhone
	m.WhatsappVerifiedAt = o.WhatsappVerifiedAt
}

// OrganizationModelFromDomain creates a model from a domain Organization.
func OrganizationModelFromDomain(o *organization.Organization) *OrganizationModel {
	m := &OrganizationModel{}
	m.FromDomain(o)
	return m
}

// SchoolDataModel is the persistence model for the one-to-one school extension.
// Known statistics are columns; operator-defined values live in extras.
type SchoolDataModel struct {
	BaseModel
	OrgID        uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex"`
	NPSN         *string             `gorm:"column:npsn;type:varchar(16);index"`
	Address      string              `gorm:"type:text"`
	Kelurahan    string              `gorm:"type:varchar(128)"`
	Status       string              `gorm:"type:varchar(32)"`
	Level        string              `gorm:"type:varchar(32)"`
	Lat          decimal.NullDecimal `gorm:"type:numeric(10,7)"`
	Lng          decimal.NullDecimal `gorm:"type:numeric(10,7)"`
	StudentCount int                 `gorm:"not null;default:0"`
	TeacherCount int                 `gorm:"not null;default:0"`
	ClassCount   int                 `gorm:"not null;default:0"`
	Vision       string              `gorm:"type:text"`
	Mission      string              `gorm:"type:text"`
	ContactEmail string              `gorm:"type:varchar(255)"`
	ContactPhone string              `gorm:"type:varchar(32)"`
	LastSync     *time.Time
	ExtrasJSON   string `gorm:"column:extras;type:jsonb;not null;default:'{}'"`
}

// TableName returns the table name for GORM
func (SchoolDataModel) TableName() string {
	return "school_data"
}

// ToDomain converts the persistence model to domain SchoolData.
func (m *SchoolDataModel) ToDomain() *organization.SchoolData {
	d := &organization.SchoolData{
		BaseEntity: m.BaseModel.ToDomain(),
		OrgID:      m.OrgID,
		NPSN:       m.NPSN,
		Stats: organization.SchoolStats{
			Address:      m.Address,
			Kelurahan:    m.Kelurahan,
			Status:       m.Status,
			Level:        m.Level,
			Lat:          floatFromNullDecimal(m.Lat),
			Lng:          floatFromNullDecimal(m.Lng),
			StudentCount: m.StudentCount,
			TeacherCount: m.TeacherCount,
			ClassCount:   m.ClassCount,
			Vision:       m.Vision,
			Mission:      m.Mission,
			ContactEmail: m.ContactEmail,
			ContactPhone: m.ContactPhone,
			LastSync:     m.LastSync,
		},
		Extras: make(map[string]any),
	}

	if m.ExtrasJSON != "" && m.ExtrasJSON != "{}" {
		if err := json.Unmarshal([]byte(m.ExtrasJSON), &d.Extras); err != nil {
			modelLogger.Warn("failed to parse school_data extras",
				zap.String("org_id", m.OrgID.String()),
				zap.Error(err))
			d.Extras = make(map[string]any)
		}
	}
	return d
}

// FromDomain populates the model from domain SchoolData.
func (m *SchoolDataModel) FromDomain(d *organization.SchoolData) error {
	m.FromDomainBaseEntity(d.BaseEntity)
	m.OrgID = d.OrgID
	m.NPSN = d.NPSN
	m.Address = d.Stats.Address
	m.Kelurahan = d.Stats.Kelurahan
	m.Status = d.Stats.Status
	m.Level = d.Stats.Level
	m.Lat = nullDecimalFromFloat(d.Stats.Lat)
	m.Lng = nullDecimalFromFloat(d.Stats.Lng)
	m.StudentCount = d.Stats.StudentCount
	m.TeacherCount = d.Stats.TeacherCount
	m.ClassCount = d.Stats.ClassCount
	m.Vision = d.Stats.Vision
	m.Mission = d.Stats.Mission
	m.ContactEmail = d.Stats.ContactEmail
	m.ContactPhone = d.Stats.ContactPhone
	m.LastSync = d.Stats.LastSync

	extras := d.Extras
	if extras == nil {
		extras = map[string]any{}
	}
	raw, err := json.Marshal(extras)
	if err != nil {
		return err
	}
	m.ExtrasJSON = string(raw)
	return nil
}

func floatFromNullDecimal(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	f, _ := d.Decimal.Float64()
	return &f
}

func nullDecimalFromFloat(f *float64) decimal.NullDecimal {
	if f == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(*f))
}
