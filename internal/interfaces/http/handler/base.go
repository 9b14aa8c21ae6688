package handler

import (
	"errors"
	"net/http"

	"github.com/datadik/portal/internal/domain/identity"
	"github.com/datadik/portal/internal/domain/shared"
	"github.com/datadik/portal/internal/infrastructure/logger"
	"github.com/datadik/portal/internal/interfaces/http/dto"
	"github.com/datadik/portal/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const msgInternal = "Terjadi kesalahan pada server."

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	return middleware.GetRequestID(c)
}

// getUserID extracts user ID from JWT claims or returns error
func getUserID(c *gin.Context) (uuid.UUID, error) {
	userIDStr := middleware.GetJWTUserID(c)
	if userIDStr == "" {
		return uuid.Nil, errors.New("user ID not found in context")
	}
	return uuid.Parse(userIDStr)
}

// parseUUIDParam reads a UUID path parameter, answering 400 when it is malformed
func (h *BaseHandler) parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "ID tidak valid")
		return uuid.Nil, false
	}
	return id, true
}

// principal returns the authenticated caller, answering 401 when there is none
func (h *BaseHandler) principal(c *gin.Context) (identity.Principal, bool) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		h.Unauthorized(c, "Silakan login terlebih dahulu")
		return identity.Principal{}, false
	}
	return p, true
}

// bindJSON binds the request body, answering with the validation envelope on failure
func (h *BaseHandler) bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// listFilter converts list query parameters to a repository filter
func listFilter(req dto.ListRequest) shared.Filter {
	def := dto.DefaultListRequest()
	if req.Page <= 0 {
		req.Page = def.Page
	}
	if req.PageSize <= 0 {
		req.PageSize = def.PageSize
	}
	if req.OrderDir == "" {
		req.OrderDir = def.OrderDir
	}
	return shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Search:   req.Search,
	}
}

func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta answers a paginated list
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error writes the error envelope with an explicit status
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// ErrorWithCode writes the error envelope with the status mapped from code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.ErrorWithCode(c, dto.ErrCodeBadRequest, message)
}

func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.ErrorWithCode(c, dto.ErrCodeNotFound, message)
}

func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.ErrorWithCode(c, dto.ErrCodeUnauthorized, message)
}

func (h *BaseHandler) Forbidden(c *gin.Context, message string) {
	h.ErrorWithCode(c, dto.ErrCodeForbidden, message)
}

func (h *BaseHandler) Conflict(c *gin.Context, message string) {
	h.ErrorWithCode(c, dto.ErrCodeConflict, message)
}

func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.ErrorWithCode(c, dto.ErrCodeInternal, message)
}

// ServiceUnavailable answers 503 when a backing service (database, Redis,
// object storage) is not configured
func (h *BaseHandler) ServiceUnavailable(c *gin.Context, message string) {
	h.ErrorWithCode(c, dto.ErrCodeServiceUnavailable, message)
}

func (h *BaseHandler) ValidationError(c *gin.Context, details []dto.ValidationDetail) {
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse("Data yang dikirim tidak valid.", getRequestID(c), details))
}

// HandleError maps domain errors onto the envelope. Anything else is logged
// and answered with a generic 500 so driver messages never reach the client.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	code, message := dto.ErrCodeInternal, msgInternal
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code, message = dto.NormalizeErrorCode(domainErr.Code), domainErr.Message
	}
	if dto.GetHTTPStatus(code) >= http.StatusInternalServerError {
		logger.L(c.Request.Context()).Error("Request failed",
			zap.String("code", code),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
	}
	h.ErrorWithCode(c, code, message)
}

// legacyError answers with the bare {error} shape kept by the login and sync endpoints
func (h *BaseHandler) legacyError(c *gin.Context, err error) {
	status, message := http.StatusInternalServerError, err.Error()
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		status, message = dto.GetHTTPStatus(domainErr.Code), domainErr.Message
	}
	if status >= http.StatusInternalServerError {
		logger.L(c.Request.Context()).Error("Request failed", zap.Error(err))
	}
	c.JSON(status, dto.LegacyError{Error: message})
}
