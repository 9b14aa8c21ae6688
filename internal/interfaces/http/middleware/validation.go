package middleware

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/datadik/portal/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// SetupValidator configures the validator with custom tags
func SetupValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		// Use JSON tag names for field names in errors
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			}
			return name
		})
	}
}

// FormatValidationErrors formats validation errors into a standard response
func FormatValidationErrors(err error, requestID string) dto.Response {
	var details []dto.ValidationDetail

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			details = append(details, dto.ValidationDetail{
				Field:   e.Field(),
				Message: getValidationMessage(e),
				Tag:     e.Tag(),
			})
		}
	}

	return dto.NewValidationErrorResponse(
		"Data yang dikirim tidak valid.",
		requestID,
		details,
	)
}

// HandleValidationError returns a validation error response
func HandleValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, getRequestID(c)))
}

// getValidationMessage returns a human-readable validation message
func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "Wajib diisi"
	case "email":
		return "Format email tidak valid"
	case "min":
		if e.Kind() == reflect.String {
			return "Minimal " + e.Param() + " karakter"
		}
		return "Minimal " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Maksimal " + e.Param() + " karakter"
		}
		return "Maksimal " + e.Param()
	case "len":
		return "Harus tepat " + e.Param() + " karakter"
	case "uuid":
		return "Format UUID tidak valid"
	case "oneof":
		return "Harus salah satu dari: " + e.Param()
	case "gte":
		return "Harus lebih besar atau sama dengan " + e.Param()
	case "lte":
		return "Harus lebih kecil atau sama dengan " + e.Param()
	case "url":
		return "Format URL tidak valid"
	case "numeric":
		return "Harus berupa angka"
	default:
		return "Nilai tidak valid"
	}
}
