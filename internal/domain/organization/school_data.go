package organization

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/datadik/portal/internal/domain/shared"
	"github.com/google/uuid"
)

// SchoolStats holds the known statistics fields of a school
type SchoolStats struct {
	Address      string     `json:"address,omitempty"`
	Kelurahan    string     `json:"kelurahan,omitempty"`
	Status       string     `json:"status,omitempty"`
	Level        string     `json:"level,omitempty"`
	Lat          *float64   `json:"lat"`
	Lng          *float64   `json:"lng"`
	StudentCount int        `json:"student_count"`
	TeacherCount int        `json:"teacher_count"`
	ClassCount   int        `json:"class_count"`
	Vision       string     `json:"vision,omitempty"`
	Mission      string     `json:"mission,omitempty"`
	ContactEmail string     `json:"contact_email,omitempty"`
	ContactPhone string     `json:"contact_phone,omitempty"`
	LastSync     *time.Time `json:"last_sync"`
}

// reservedStatKeys are names an operator-defined extra may not use
var reservedStatKeys = map[string]struct{}{
	"npsn": {}, "address": {}, "alamat": {}, "kelurahan": {}, "status": {}, "level": {},
	"lat": {}, "lng": {}, "student_count": {}, "teacher_count": {}, "class_count": {},
	"jml_siswa": {}, "jml_guru": {}, "rombel": {}, "visi": {}, "misi": {},
	"vision": {}, "mission": {}, "contact_email": {}, "contact_phone": {}, "last_sync": {},
}

// SchoolData is the one-to-one school extension of an Organization
type SchoolData struct {
	shared.BaseEntity
	OrgID  uuid.UUID
	NPSN   *string
	Stats  SchoolStats
	Extras map[string]any
}

// NewSchoolData creates an empty school extension for an organization
func NewSchoolData(orgID uuid.UUID) *SchoolData {
	return &SchoolData{
		BaseEntity: shared.NewBaseEntity(),
		OrgID:      orgID,
		Extras:     make(map[string]any),
	}
}

// RegistryUpdate carries the fields owned by the external registry
type RegistryUpdate struct {
	NPSN      string
	Address   string
	Kelurahan string
	Status    string
	Lat       *float64
	Lng       *float64
}

// ApplyRegistryUpdate overlays registry-owned fields and stamps the sync time.
// Operator fields and extras are left untouched.
func (d *SchoolData) ApplyRegistryUpdate(u RegistryUpdate, now time.Time) {
	if u.NPSN != "" {
		npsn := u.NPSN
		d.NPSN = &npsn
	}
	d.Stats.Address = u.Address
	d.Stats.Kelurahan = u.Kelurahan
	d.Stats.Status = u.Status
	d.Stats.Lat = u.Lat
	d.Stats.Lng = u.Lng
	d.Stats.LastSync = &now
	d.UpdatedAt = now
}

// MergeRegistryFields overlays the non-empty fields of u without stamping
// the sync time. Roster imports use it so blank cells keep stored values.
func (d *SchoolData) MergeRegistryFields(u RegistryUpdate) {
	if u.NPSN != "" {
		npsn := u.NPSN
		d.NPSN = &npsn
	}
	if u.Address != "" {
		d.Stats.Address = u.Address
	}
	if u.Kelurahan != "" {
		d.Stats.Kelurahan = u.Kelurahan
	}
	if u.Status != "" {
		d.Stats.Status = u.Status
	}
	if u.Lat != nil {
		d.Stats.Lat = u.Lat
	}
	if u.Lng != nil {
		d.Stats.Lng = u.Lng
	}
	d.Touch()
}

// ProfileUpdate carries the operator-owned fields. Nil fields are unchanged.
type ProfileUpdate struct {
	Level        *string
	StudentCount *int
	TeacherCount *int
	ClassCount   *int
	Vision       *string
	Mission      *string
	ContactEmail *string
	ContactPhone *string
	Lat          *float64
	Lng          *float64
}

// ApplyProfileUpdate applies operator edits
func (d *SchoolData) ApplyProfileUpdate(u ProfileUpdate) error {
	for _, n := range []*int{u.StudentCount, u.TeacherCount, u.ClassCount} {
		if n != nil && *n < 0 {
			return shared.NewDomainError("INVALID_STATS", "Jumlah tidak boleh negatif")
		}
	}
	setString(&d.Stats.Level, u.Level)
	setInt(&d.Stats.StudentCount, u.StudentCount)
	setInt(&d.Stats.TeacherCount, u.TeacherCount)
	setInt(&d.Stats.ClassCount, u.ClassCount)
	setString(&d.Stats.Vision, u.Vision)
	setString(&d.Stats.Mission, u.Mission)
	setString(&d.Stats.ContactEmail, u.ContactEmail)
	setString(&d.Stats.ContactPhone, u.ContactPhone)
	if u.Lat != nil {
		d.Stats.Lat = u.Lat
	}
	if u.Lng != nil {
		d.Stats.Lng = u.Lng
	}
	d.Touch()
	return nil
}

// MergeExtras merges operator-defined keys into the extras map. A nil value
// removes the key. Keys that collide with known fields are rejected.
func (d *SchoolData) MergeExtras(extras map[string]any) error {
	if err := ValidateExtras(extras); err != nil {
		return err
	}
	if d.Extras == nil {
		d.Extras = make(map[string]any, len(extras))
	}
	for k, v := range extras {
		if v == nil {
			delete(d.Extras, k)
			continue
		}
		d.Extras[k] = v
	}
	d.Touch()
	return nil
}

// ValidateExtras rejects empty or reserved keys
func ValidateExtras(extras map[string]any) error {
	var bad []string
	for k := range extras {
		key := strings.ToLower(strings.TrimSpace(k))
		if key == "" {
			return shared.NewDomainError("INVALID_EXTRAS", "Nama atribut tidak boleh kosong")
		}
		if _, ok := reservedStatKeys[key]; ok {
			bad = append(bad, k)
		}
	}
	if len(bad) > 0 {
		sort.Strings(bad)
		return shared.NewDomainError("RESERVED_EXTRAS_KEY",
			fmt.Sprintf("Atribut %s sudah digunakan oleh data sekolah", strings.Join(bad, ", ")))
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
