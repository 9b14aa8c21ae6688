package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func fieldMap(entry observer.LoggedEntry) map[string]string {
	m := make(map[string]string, len(entry.Context))
	for _, f := range entry.Context {
		m[f.Key] = f.String
	}
	return m
}

func validSpanContext(t *testing.T) context.Context {
	t.Helper()
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestWithContext(t *testing.T) {
	l := zap.NewExample()
	ctx := WithContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
}

func TestFromContext_NotFound(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
	//nolint:staticcheck // nil context is tolerated on purpose
	assert.NotNil(t, FromContext(nil))
}

func TestFromContext_WrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), LoggerKey, "not a logger")
	assert.NotNil(t, FromContext(ctx))
}

func TestCorrelationValues(t *testing.T) {
	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithSite(ctx, "sdn-1-cilebar")
	ctx = WithOrgID(ctx, "org-1")
	ctx = WithUserID(ctx, "user-1")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "sdn-1-cilebar", GetSite(ctx))
	assert.Equal(t, "org-1", GetOrgID(ctx))
	assert.Equal(t, "user-1", GetUserID(ctx))
}

func TestCorrelationValues_Missing(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetSite(ctx))
	assert.Empty(t, GetOrgID(ctx))
	assert.Empty(t, GetUserID(ctx))
}

func TestTraceIDs(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))
	assert.Empty(t, GetSpanID(context.Background()))

	ctx := validSpanContext(t)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", GetTraceID(ctx))
	assert.Equal(t, "00f067aa0ba902b7", GetSpanID(ctx))
}

func TestFields(t *testing.T) {
	assert.Empty(t, Fields(context.Background()))

	ctx := WithOrgID(validSpanContext(t), "org-9")
	keys := make([]string, 0)
	for _, f := range Fields(ctx) {
		keys = append(keys, f.Key)
	}
	assert.ElementsMatch(t, []string{"trace_id", "span_id", "org_id"}, keys)
}

func TestContextLogger_EnrichesWithContextFields(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	ctx := WithContext(context.Background(), zap.New(core))
	ctx = WithRequestID(ctx, "req-7")
	ctx = WithSite(ctx, "smpn-2")
	ctx = WithUserID(ctx, "u-3")

	L(ctx).Info("synced", zap.Int("count", 3))

	logs := recorded.All()
	require.Len(t, logs, 1)
	fields := fieldMap(logs[0])
	assert.Equal(t, "req-7", fields["request_id"])
	assert.Equal(t, "smpn-2", fields["site"])
	assert.Equal(t, "u-3", fields["user_id"])
	assert.NotContains(t, fields, "org_id")
}

func TestContextLogger_LogLevels(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	cl := WithLogger(context.Background(), zap.New(core))

	cl.Debug("d")
	cl.Info("i")
	cl.Warn("w")
	cl.Error("e")

	logs := recorded.All()
	require.Len(t, logs, 4)
	assert.Equal(t, zapcore.DebugLevel, logs[0].Level)
	assert.Equal(t, zapcore.InfoLevel, logs[1].Level)
	assert.Equal(t, zapcore.WarnLevel, logs[2].Level)
	assert.Equal(t, zapcore.ErrorLevel, logs[3].Level)
}

func TestContextLogger_With(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	ctx := WithOrgID(context.Background(), "org-1")
	cl := WithLogger(ctx, zap.New(core)).With(zap.String("component", "sync"))

	cl.Info("hello")
	cl.Zap().Info("via zap")
	cl.Sugar().Infow("via sugar")

	logs := recorded.All()
	require.Len(t, logs, 3)
	for _, entry := range logs {
		fields := fieldMap(entry)
		assert.Equal(t, "sync", fields["component"])
		assert.Equal(t, "org-1", fields["org_id"])
	}
}

func TestContextLogger_NilLogger(t *testing.T) {
	cl := WithLogger(context.Background(), nil)
	assert.NotPanics(t, func() {
		cl.Info("nothing")
		cl.With(zap.String("k", "v")).Warn("still nothing")
	})
}
