package dto

import (
	"net/http"
	"strings"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeServiceUnavailable is used when a backing service is not configured
	ErrCodeServiceUnavailable = "ERR_SERVICE_UNAVAILABLE"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
	// ErrCodeValidationLength is used when a field length is invalid
	ErrCodeValidationLength = "ERR_VALIDATION_LENGTH"
	// ErrCodeReservedExtrasKey is used when an extras key shadows a known stat
	ErrCodeReservedExtrasKey = "ERR_RESERVED_EXTRAS_KEY"
	// ErrCodeInvalidCode is used for a wrong or expired verification code
	ErrCodeInvalidCode = "ERR_INVALID_CODE"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the user lacks permission
	ErrCodeForbidden = "ERR_FORBIDDEN"
	// ErrCodeTokenExpired is used when the auth token has expired
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	// ErrCodeTokenInvalid is used when the auth token is invalid
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
	// ErrCodeTooManyAttempts is used when the login guard locks an NPSN
	ErrCodeTooManyAttempts = "ERR_TOO_MANY_ATTEMPTS"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
)

// File error codes
const (
	// ErrCodeInvalidFile is used for empty or unreadable uploads
	ErrCodeInvalidFile = "ERR_INVALID_FILE"
	// ErrCodeFileTooLarge is used when an upload exceeds the size limit
	ErrCodeFileTooLarge = "ERR_FILE_TOO_LARGE"
	// ErrCodeUploadFailed is used when object storage rejects a write
	ErrCodeUploadFailed = "ERR_UPLOAD_FAILED"
	// ErrCodeDownloadFailed is used when a download link cannot be signed
	ErrCodeDownloadFailed = "ERR_DOWNLOAD_FAILED"
)

// Sync error codes
const (
	// ErrCodeSyncEmpty is used when the registry returned no schools
	ErrCodeSyncEmpty = "ERR_SYNC_EMPTY"
	// ErrCodeSyncLockFailed is used when the run lock cannot be taken
	ErrCodeSyncLockFailed = "ERR_SYNC_LOCK_FAILED"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// Rate limiting error codes
const (
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
	// ErrCodeTooManyRequests is an alias for rate limiting
	ErrCodeTooManyRequests = "ERR_TOO_MANY_REQUESTS"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:            http.StatusInternalServerError,
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationLength:   http.StatusBadRequest,
	ErrCodeReservedExtrasKey:  http.StatusBadRequest,
	ErrCodeInvalidCode:        http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized:    http.StatusUnauthorized,
	ErrCodeForbidden:       http.StatusForbidden,
	ErrCodeTokenExpired:    http.StatusUnauthorized,
	ErrCodeTokenInvalid:    http.StatusUnauthorized,
	ErrCodeTooManyAttempts: http.StatusTooManyRequests,

	// Resource errors
	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,
	ErrCodeConflict:      http.StatusConflict,

	// File errors
	ErrCodeInvalidFile:    http.StatusBadRequest,
	ErrCodeFileTooLarge:   http.StatusRequestEntityTooLarge,
	ErrCodeUploadFailed:   http.StatusInternalServerError,
	ErrCodeDownloadFailed: http.StatusInternalServerError,

	// Sync errors
	ErrCodeSyncEmpty:      http.StatusInternalServerError,
	ErrCodeSyncLockFailed: http.StatusInternalServerError,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,

	// Rate limiting -> 429 Too Many Requests
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeTooManyRequests: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unmapped ERR_INVALID_* codes are 400, anything else unknown is 500.
func GetHTTPStatus(code string) int {
	code = NormalizeErrorCode(code)
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "ERR_INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps domain error codes to standardized codes
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":           ErrCodeNotFound,
	"ALREADY_EXISTS":      ErrCodeAlreadyExists,
	"CONFLICT":            ErrCodeConflict,
	"INVALID_INPUT":       ErrCodeInvalidInput,
	"UNAUTHORIZED":        ErrCodeUnauthorized,
	"FORBIDDEN":           ErrCodeForbidden,
	"TOO_MANY_ATTEMPTS":   ErrCodeTooManyAttempts,
	"SERVICE_UNAVAILABLE": ErrCodeServiceUnavailable,
	"VALIDATION_ERROR":    ErrCodeValidation,
	"RESERVED_EXTRAS_KEY": ErrCodeReservedExtrasKey,
	"INVALID_CODE":        ErrCodeInvalidCode,
	"INVALID_FILE":        ErrCodeInvalidFile,
	"FILE_TOO_LARGE":      ErrCodeFileTooLarge,
	"UPLOAD_FAILED":       ErrCodeUploadFailed,
	"DOWNLOAD_FAILED":     ErrCodeDownloadFailed,
	"SYNC_EMPTY":          ErrCodeSyncEmpty,
	"SYNC_LOCK_FAILED":    ErrCodeSyncLockFailed,
	"BAD_REQUEST":         ErrCodeBadRequest,
	"INTERNAL_ERROR":      ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the standardized format.
// Unlisted INVALID_* codes gain the ERR_ prefix; other codes pass through.
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	if strings.HasPrefix(code, "INVALID_") {
		return "ERR_" + code
	}
	return code
}
