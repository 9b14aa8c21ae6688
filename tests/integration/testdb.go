// Package integration runs the portal against a real PostgreSQL started with
// testcontainers.
package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/datadik/portal/internal/infrastructure/config"
	"github.com/datadik/portal/internal/infrastructure/logger"
	"github.com/datadik/portal/internal/infrastructure/migration"
	"github.com/datadik/portal/internal/infrastructure/persistence"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
)

// TestDB is a migrated portal database in a throwaway container
type TestDB struct {
	*persistence.Database
	t *testing.T
}

// NewTestDB starts PostgreSQL, connects the way the server does and applies
// the embedded migrations. Everything is torn down when the test ends.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("needs docker")
	}
	ctx := context.Background()

	cfg := config.DatabaseConfig{
		User:            "datadik",
		Password:        "datadik",
		DBName:          "datadik_test",
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5,
	}
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase(cfg.DBName),
		tcpostgres.WithUsername(cfg.User),
		tcpostgres.WithPassword(cfg.Password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute)),
	)
	require.NoError(t, err, "start postgres")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate postgres: %v", err)
		}
	})

	cfg.Host, err = container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	cfg.Port = port.Int()

	log := zaptest.NewLogger(t)
	level := "silent"
	if os.Getenv("TEST_DB_DEBUG") != "" {
		level = "debug"
	}
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg, logger.NewGormLogger(log, logger.MapGormLogLevel(level)))
	require.NoError(t, err, "connect")
	t.Cleanup(func() { _ = db.Close() })

	pool, err := db.DB.DB()
	require.NoError(t, err)
	m, err := migration.New(pool, "", log)
	require.NoError(t, err, "create migrator")
	require.NoError(t, m.Up(), "migrate")
	version, dirty, err := m.Version()
	require.NoError(t, err)
	require.False(t, dirty)
	require.NotZero(t, version)

	return &TestDB{Database: db, t: t}
}

// CountRows returns the row count of table
func (tdb *TestDB) CountRows(table string) int64 {
	tdb.t.Helper()
	var n int64
	require.NoError(tdb.t, tdb.DB.Table(table).Count(&n).Error)
	return n
}
