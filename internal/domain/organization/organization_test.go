package organization

import (
	"testing"
	"time"

	"github.com/datadik/portal/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SDN Contoh 1", "sdn-contoh-1"},
		{"  SMP Negeri 2 Cilebar  ", "smp-negeri-2-cilebar"},
		{"SD IT Al-Hikmah", "sd-it-al-hikmah"},
		{"TK (Pertiwi) / Kec. Cilebar", "tk-pertiwi-kec-cilebar"},
		{"--MI  Nurul   Huda--", "mi-nurul-huda"},
		{"Sekolah_Dasar", "sekolah_dasar"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestNewOrganization(t *testing.T) {
	t.Run("defaults to school type and theme color", func(t *testing.T) {
		org, err := NewOrganization("sdn-contoh-1", "SDN Contoh 1", "")
		require.NoError(t, err)
		assert.Equal(t, TypeSchool, org.Type)
		assert.Equal(t, DefaultThemeColor, org.ThemeColor)
		assert.NotEqual(t, uuid.Nil, org.ID)
		require.Len(t, org.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeOrganizationCreated, org.GetDomainEvents()[0].EventType())
	})

	t.Run("rejects invalid slug", func(t *testing.T) {
		_, err := NewOrganization("SDN 1", "SDN 1", TypeSchool)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_SLUG", de.Code)
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		_, err := NewOrganization("dinas", "Dinas", Type("other"))
		assert.Error(t, err)
	})

	t.Run("rejects blank name", func(t *testing.T) {
		_, err := NewOrganization("x", "  ", TypePartner)
		assert.Error(t, err)
	})
}

func TestOrganization_SetThemeColor(t *testing.T) {
	org, err := NewOrganization("mitra", "Mitra", TypePartner)
	require.NoError(t, err)

	require.NoError(t, org.SetThemeColor("#10B981"))
	assert.Equal(t, "#10B981", org.ThemeColor)

	assert.Error(t, org.SetThemeColor("green"))

	require.NoError(t, org.SetThemeColor(""))
	assert.Equal(t, DefaultThemeColor, org.ThemeColor)
}

func TestOrganization_MarkContactVerified(t *testing.T) {
	org, err := NewOrganization("sdn1", "SDN 1", TypeSchool)
	require.NoError(t, err)
	now := time.Now()

	org.MarkContactVerified(ChannelEmail, "sdn1@example.id", now)
	require.NotNil(t, org.EmailVerifiedAt)
	assert.Equal(t, "sdn1@example.id", *org.ContactEmail)
	assert.Nil(t, org.WhatsappVerifiedAt)

	org.MarkContactVerified(ChannelWhatsapp, "08123", now)
	require.NotNil(t, org.WhatsappVerifiedAt)
	assert.Equal(t, "08123", *org.ContactPhone)
}

func TestSchoolData_ApplyRegistryUpdatePreservesOperatorFields(t *testing.T) {
	data := NewSchoolData(uuid.New())
	require.NoError(t, data.ApplyProfileUpdate(ProfileUpdate{
		Vision:       ptr("X"),
		StudentCount: ptr(10),
	}))
	require.NoError(t, data.MergeExtras(map[string]any{"akreditasi": "A"}))

	lat, lng := -6.2, 107.1
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	data.ApplyRegistryUpdate(RegistryUpdate{
		NPSN:      "20201010",
		Address:   "Jl. Raya",
		Kelurahan: "Cilebar",
		Status:    "Negeri",
		Lat:       &lat,
		Lng:       &lng,
	}, now)

	assert.Equal(t, "X", data.Stats.Vision)
	assert.Equal(t, 10, data.Stats.StudentCount)
	assert.Equal(t, "A", data.Extras["akreditasi"])
	assert.Equal(t, "Jl. Raya", data.Stats.Address)
	assert.Equal(t, "Cilebar", data.Stats.Kelurahan)
	assert.Equal(t, "Negeri", data.Stats.Status)
	assert.Equal(t, &lat, data.Stats.Lat)
	assert.Equal(t, &lng, data.Stats.Lng)
	require.NotNil(t, data.NPSN)
	assert.Equal(t, "20201010", *data.NPSN)
	assert.Equal(t, now, *data.Stats.LastSync)
}

func TestSchoolData_MergeRegistryFieldsKeepsBlanks(t *testing.T) {
	data := NewSchoolData(uuid.New())
	data.ApplyRegistryUpdate(RegistryUpdate{NPSN: "20201010", Address: "Jl. Raya", Status: "Negeri"}, time.Now())
	lastSync := data.Stats.LastSync

	lat := -6.3
	data.MergeRegistryFields(RegistryUpdate{Status: "Swasta", Lat: &lat})

	assert.Equal(t, "20201010", *data.NPSN)
	assert.Equal(t, "Jl. Raya", data.Stats.Address)
	assert.Equal(t, "Swasta", data.Stats.Status)
	assert.Equal(t, &lat, data.Stats.Lat)
	assert.Nil(t, data.Stats.Lng)
	assert.Same(t, lastSync, data.Stats.LastSync)
}

func TestSchoolData_MergeExtras(t *testing.T) {
	data := NewSchoolData(uuid.New())

	require.NoError(t, data.MergeExtras(map[string]any{"kurikulum": "Merdeka", "luas_tanah": 1200}))
	assert.Len(t, data.Extras, 2)

	require.NoError(t, data.MergeExtras(map[string]any{"kurikulum": nil}))
	assert.NotContains(t, data.Extras, "kurikulum")
	assert.Equal(t, 1200, data.Extras["luas_tanah"])

	err := data.MergeExtras(map[string]any{"Lat": 1, "visi": "Y"})
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "RESERVED_EXTRAS_KEY", de.Code)
	assert.Contains(t, de.Message, "Lat, visi")

	assert.Error(t, data.MergeExtras(map[string]any{" ": 1}))
}

func TestSchoolData_ApplyProfileUpdateRejectsNegativeCounts(t *testing.T) {
	data := NewSchoolData(uuid.New())
	err := data.ApplyProfileUpdate(ProfileUpdate{TeacherCount: ptr(-1)})
	assert.Error(t, err)
	assert.Zero(t, data.Stats.TeacherCount)
}

func ptr[T any](v T) *T {
	return &v
}
