// Package testutil holds fixtures shared by the portal's package tests.
package testutil

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/datadik/portal/internal/domain/identity"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockDB wraps a GORM database with sqlmock for testing.
type MockDB struct {
	DB    *gorm.DB
	Mock  sqlmock.Sqlmock
	SqlDB *sql.DB
}

// NewMockDB opens GORM over sqlmock with the postgres dialector. The
// connection is closed when the test ends.
func NewMockDB(t *testing.T) *MockDB {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create sqlmock")
	t.Cleanup(func() { _ = mockDB.Close() })

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err, "Failed to open GORM connection")

	return &MockDB{
		DB:    gormDB,
		Mock:  mock,
		SqlDB: mockDB,
	}
}

// ExpectationsWereMet verifies that all expectations were met.
func (m *MockDB) ExpectationsWereMet(t *testing.T) {
	t.Helper()
	require.NoError(t, m.Mock.ExpectationsWereMet(), "Unmet database expectations")
}

// NewTestUUID derives a stable UUID from seed
func NewTestUUID(seed string) uuid.UUID {
	namespace := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	return uuid.NewSHA1(namespace, []byte(seed))
}

// TestOrgID is the organization used by operator fixtures
func TestOrgID() uuid.UUID {
	return NewTestUUID("sdn-1-cilebar")
}

// TestUserID is the user behind the principal fixtures
func TestUserID() uuid.UUID {
	return NewTestUUID("test-user")
}

// AdminPrincipal is a district admin
func AdminPrincipal() identity.Principal {
	return identity.Principal{UserID: TestUserID(), Role: identity.RoleDistrictAdmin}
}

// OperatorPrincipal is a school operator bound to orgID
func OperatorPrincipal(orgID uuid.UUID) identity.Principal {
	return identity.Principal{
		UserID: TestUserID(),
		Role:   identity.RoleOperator,
		NPSN:   "20201010",
		OrgID:  &orgID,
	}
}
