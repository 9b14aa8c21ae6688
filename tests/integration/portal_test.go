package integration

import (
	"context"
	"strings"
	"testing"
	"time"

	identityapp "github.com/datadik/portal/internal/application/identity"
	registryapp "github.com/datadik/portal/internal/application/registry"
	"github.com/datadik/portal/internal/domain/identity"
	"github.com/datadik/portal/internal/domain/shared"
	"github.com/datadik/portal/internal/infrastructure/auth"
	"github.com/datadik/portal/internal/infrastructure/config"
	"github.com/datadik/portal/internal/infrastructure/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const rosterCSV = "\ufeffNama Sekolah,NPSN,Jenjang,Status,Alamat,Jumlah Siswa,Jumlah Guru,Rombel\n" +
	"SDN 1 Cilebar,20201010,SD,Negeri,Jl. Raya Cilebar,320,14,12\n" +
	"SMPN 1 Cilebar,20201011,SMP,Negeri,Jl. Pasar Cilebar,540,28,18\n"

func TestSchoolImport_IsIdempotent(t *testing.T) {
	tdb := NewTestDB(t)
	ctx := context.Background()

	reconciler := registryapp.NewReconciler(
		persistence.NewGormOrganizationRepository(tdb.DB),
		persistence.NewGormSchoolDataRepository(tdb.DB),
		zap.NewNop(),
	)
	importer := registryapp.NewImportService(reconciler, nil, zap.NewNop())

	first, err := importer.Import(ctx, strings.NewReader(rosterCSV))
	require.NoError(t, err)
	assert.Equal(t, 2, first.CreatedRows)
	assert.Zero(t, first.ErrorRows)
	assert.ElementsMatch(t, []string{"sdn-1-cilebar", "smpn-1-cilebar"}, first.CreatedSlugs)
	assert.Equal(t, int64(2), tdb.CountRows("organizations"))
	assert.Equal(t, int64(2), tdb.CountRows("school_data"))

	second, err := importer.Import(ctx, strings.NewReader(rosterCSV))
	require.NoError(t, err)
	assert.Zero(t, second.CreatedRows)
	assert.Equal(t, 2, second.UpdatedRows)
	assert.Equal(t, int64(2), tdb.CountRows("organizations"))

	org, err := persistence.NewGormOrganizationRepository(tdb.DB).FindBySlug(ctx, "sdn-1-cilebar")
	require.NoError(t, err)
	assert.Equal(t, "SDN 1 Cilebar", org.Name)
}

func TestLogin_LocksAfterRepeatedFailures(t *testing.T) {
	tdb := NewTestDB(t)
	ctx := context.Background()

	profiles := persistence.NewGormProfileRepository(tdb.DB)
	blacklist := auth.NewInMemoryTokenBlacklist()
	users := identityapp.NewUserService(profiles, blacklist, time.Hour, zap.NewNop())
	_, err := users.Create(ctx, identityapp.CreateUserInput{
		NPSN:     "20201010",
		FullName: "Operator SDN 1 Cilebar",
		Role:     identity.RoleOperator,
		Password: "rahasia123",
	})
	require.NoError(t, err)

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "integration-secret-at-least-32-bytes!!",
		Issuer:                 "datadik-test",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: time.Hour,
	})
	authService := identityapp.NewAuthService(
		profiles,
		persistence.NewGormLoginAttemptRepository(tdb.DB),
		persistence.NewGormSchoolDataRepository(tdb.DB),
		jwtService,
		blacklist,
		identityapp.DefaultAuthServiceConfig(),
		zap.NewNop(),
	)

	ok, err := authService.Login(ctx, identityapp.LoginInput{NPSN: "20201010", Password: "rahasia123", IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, identity.RoleOperator, ok.User.Role)
	assert.NotEmpty(t, ok.Session.AccessToken)

	for i := 0; i < identity.MaxFailedAttempts; i++ {
		_, err := authService.Login(ctx, identityapp.LoginInput{NPSN: "20201010", Password: "salah-terus", IP: "10.0.0.1"})
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	}

	_, err = authService.Login(ctx, identityapp.LoginInput{NPSN: "20201010", Password: "rahasia123", IP: "10.0.0.1"})
	assert.ErrorIs(t, err, shared.ErrTooManyAttempts)
	assert.Equal(t, int64(identity.MaxFailedAttempts+2), tdb.CountRows("login_attempts"))
}
