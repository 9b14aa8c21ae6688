package dto

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		// Login guard and rate limits
		{"TOO_MANY_ATTEMPTS", http.StatusTooManyRequests},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodeTokenExpired, http.StatusUnauthorized},
		{"FORBIDDEN", http.StatusForbidden},
		// School data edits
		{"RESERVED_EXTRAS_KEY", http.StatusBadRequest},
		{"INVALID_SLUG", http.StatusBadRequest},
		{"INVALID_NPSN", http.StatusBadRequest},
		{"ALREADY_EXISTS", http.StatusConflict},
		// Submissions
		{"FILE_TOO_LARGE", http.StatusRequestEntityTooLarge},
		{"UPLOAD_FAILED", http.StatusInternalServerError},
		// Registry sync
		{"SYNC_EMPTY", http.StatusInternalServerError},
		{"SERVICE_UNAVAILABLE", http.StatusServiceUnavailable},
		{"NOT_FOUND", http.StatusNotFound},
		{"SOMETHING_NEW", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeTooManyAttempts, NormalizeErrorCode("TOO_MANY_ATTEMPTS"))
	assert.Equal(t, ErrCodeInvalidCode, NormalizeErrorCode("INVALID_CODE"))
	assert.Equal(t, "ERR_INVALID_THEME_COLOR", NormalizeErrorCode("INVALID_THEME_COLOR"))
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode(ErrCodeNotFound), "normalized codes are stable")
	assert.Equal(t, "CUSTOM_ERROR", NormalizeErrorCode("CUSTOM_ERROR"))
}

func TestErrorCodeTables(t *testing.T) {
	for code, status := range ErrorCodeHTTPStatus {
		assert.True(t, strings.HasPrefix(code, "ERR_"), code)
		assert.GreaterOrEqual(t, status, 400, code)
	}
	for domain, code := range LegacyErrorCodeMapping {
		_, ok := ErrorCodeHTTPStatus[code]
		assert.True(t, ok, "%s maps to %s which has no status", domain, code)
	}
}

func TestErrorResponseEnvelope(t *testing.T) {
	before := time.Now()
	resp := NewErrorResponseWithRequestID("NOT_FOUND", "Sekolah tidak ditemukan.", "req-sdn1")

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.False(t, resp.Error.Timestamp.Before(before))

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, false, body["success"])
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "ERR_NOT_FOUND", errBody["code"])
	assert.Equal(t, "Sekolah tidak ditemukan.", errBody["message"])
	assert.Equal(t, "req-sdn1", errBody["request_id"])
	assert.NotContains(t, body, "data")
}

func TestNewValidationErrorResponse(t *testing.T) {
	resp := NewValidationErrorResponse("Data tidak valid", "req-42", []ValidationDetail{
		{Field: "npsn", Message: "NPSN harus 8 digit"},
		{Field: "password", Message: "Password minimal 8 karakter"},
	})

	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-42", resp.Error.RequestID)
	require.Len(t, resp.Error.Details, 2)
	assert.Equal(t, "npsn", resp.Error.Details[0].Field)
}

func TestNewErrorResponseWithHelp(t *testing.T) {
	resp := NewErrorResponseWithHelp(ErrCodeTooManyAttempts, "Akun dikunci sementara.", "req-1", "Hubungi admin kecamatan")

	require.NotNil(t, resp.Error)
	assert.Equal(t, "Hubungi admin kecamatan", resp.Error.Help)
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	tests := []struct {
		name      string
		total     int64
		pageSize  int
		wantPages int
		wantSize  int
	}{
		{"exact pages", 40, 20, 2, 20},
		{"partial last page", 41, 20, 3, 20},
		{"empty list", 0, 20, 0, 20},
		{"missing page size", 45, 0, 3, 20},
		{"negative page size", 45, -5, 3, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewSuccessResponseWithMeta([]string{"sdn-1"}, tt.total, 1, tt.pageSize)
			assert.True(t, resp.Success)
			assert.Nil(t, resp.Error)
			require.NotNil(t, resp.Meta)
			assert.Equal(t, tt.wantPages, resp.Meta.TotalPages)
			assert.Equal(t, tt.wantSize, resp.Meta.PageSize)
			assert.Equal(t, tt.total, resp.Meta.Total)
		})
	}

	plain := NewSuccessResponse(map[string]string{"slug": "sdn-1"})
	assert.True(t, plain.Success)
	assert.Nil(t, plain.Meta)
}
