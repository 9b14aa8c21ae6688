package logger

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type operatorRow struct {
	ID           uint
	NPSN         string
	PasswordHash string
}

func openLoggedDB(t *testing.T, opts ...GormLoggerOption) (*gorm.DB, *observer.ObservedLogs) {
	t.Helper()
	core, recorded := observer.New(zapcore.DebugLevel)
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: NewGormLogger(zap.New(core), gormlogger.Info, opts...),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&operatorRow{}))
	return db, recorded
}

func loggedSQL(recorded *observer.ObservedLogs, table string) []string {
	var out []string
	for _, e := range recorded.All() {
		if sql := fieldMap(e)["sql"]; sql != "" && strings.Contains(sql, table) && strings.HasPrefix(sql, "INSERT") {
			out = append(out, sql)
		}
	}
	return out
}

func TestGormLogger_HidesBoundValues(t *testing.T) {
	db, recorded := openLoggedDB(t)

	require.NoError(t, db.Create(&operatorRow{NPSN: "20201010", PasswordHash: "$2a$10$secret"}).Error)

	inserts := loggedSQL(recorded, "operator_rows")
	require.Len(t, inserts, 1)
	assert.NotContains(t, inserts[0], "20201010")
	assert.NotContains(t, inserts[0], "$2a$10$secret")
}

func TestGormLogger_FullSQL(t *testing.T) {
	db, recorded := openLoggedDB(t, WithFullSQL(true))

	require.NoError(t, db.Create(&operatorRow{NPSN: "20201010", PasswordHash: "hash"}).Error)

	inserts := loggedSQL(recorded, "operator_rows")
	require.Len(t, inserts, 1)
	assert.Contains(t, inserts[0], "20201010")
}

func TestGormLogger_Trace(t *testing.T) {
	stmt := func() (string, int64) { return `SELECT * FROM "organizations" WHERE slug = ?`, 1 }

	tests := []struct {
		name    string
		level   gormlogger.LogLevel
		elapsed time.Duration
		err     error
		message string
	}{
		{"query at info", gormlogger.Info, 0, nil, "Database query"},
		{"query hidden at warn", gormlogger.Warn, 0, nil, ""},
		{"slow query", gormlogger.Warn, time.Second, nil, "Slow database query"},
		{"failed query", gormlogger.Error, 0, errors.New("relation does not exist"), "Database query failed"},
		{"missing row is not an error", gormlogger.Error, 0, gormlogger.ErrRecordNotFound, ""},
		{"silent", gormlogger.Silent, time.Second, errors.New("boom"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, recorded := observer.New(zapcore.DebugLevel)
			l := NewGormLogger(zap.New(core), tt.level)

			l.Trace(context.Background(), time.Now().Add(-tt.elapsed), stmt, tt.err)

			if tt.message == "" {
				assert.Empty(t, recorded.All())
				return
			}
			require.Len(t, recorded.All(), 1)
			entry := recorded.All()[0]
			assert.Equal(t, tt.message, entry.Message)
			assert.Equal(t, "gorm", entry.LoggerName)
		})
	}
}

func TestGormLogger_SlowThresholdDisabled(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	l := NewGormLogger(zap.New(core), gormlogger.Warn, WithSlowThreshold(0))

	l.Trace(context.Background(), time.Now().Add(-time.Minute), func() (string, int64) { return "SELECT 1", 0 }, nil)

	assert.Empty(t, recorded.All())
}

func TestGormLogger_TraceCarriesSite(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	l := NewGormLogger(zap.New(core), gormlogger.Info)

	ctx := WithRequestID(context.Background(), "req-sdn1")
	ctx = WithSite(ctx, "sdn1")
	l.Trace(ctx, time.Now(), func() (string, int64) { return `SELECT * FROM "posts"`, 5 }, nil)

	require.Len(t, recorded.All(), 1)
	fields := fieldMap(recorded.All()[0])
	assert.Equal(t, "req-sdn1", fields["request_id"])
	assert.Equal(t, "sdn1", fields["site"])
}

func TestGormLogger_LogModeCopies(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	l := NewGormLogger(zap.New(core), gormlogger.Info)

	quiet := l.LogMode(gormlogger.Silent)
	quiet.Info(context.Background(), "migrating %s", "posts")
	l.Info(context.Background(), "migrating %s", "posts")

	require.Len(t, recorded.All(), 1)
	assert.Equal(t, "migrating posts", recorded.All()[0].Message)
}

func TestMapGormLogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"debug", gormlogger.Info},
		{"info", gormlogger.Info},
		{"", gormlogger.Info},
		{"warn", gormlogger.Warn},
		{"error", gormlogger.Error},
		{"fatal", gormlogger.Error},
		{"verbose", gormlogger.Warn},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.want, MapGormLogLevel(tt.level))
		})
	}
}
