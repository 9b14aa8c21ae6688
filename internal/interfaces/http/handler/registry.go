package handler

import (
	"context"
	"crypto/subtle"
	"io"
	"net/http"

	"github.com/datadik/portal/internal/application/registry"
	"github.com/datadik/portal/internal/infrastructure/csvimport"
	"github.com/datadik/portal/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// APIKeyHeader carries the shared secret of the sync endpoint
const APIKeyHeader = "x-api-key"

// MaxImportFileSize caps roster uploads
const MaxImportFileSize = 10 << 20

type syncRunner interface {
	Run(ctx context.Context) (*registry.SyncResult, error)
}

type schoolImporter interface {
	Import(ctx context.Context, in io.Reader) (*registry.ImportResult, error)
	ImportWorkbook(ctx context.Context, in io.Reader, sheet string) (*registry.ImportResult, error)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// RegistryHandler triggers the school registry sync and roster imports
type RegistryHandler struct {
	BaseHandler
	syncService   syncRunner
	importService schoolImporter
	apiKey        string
}

// NewRegistryHandler creates a new registry handler. An empty apiKey leaves
// the sync endpoint open.
func NewRegistryHandler(syncService syncRunner, importService schoolImporter, apiKey string) *RegistryHandler {
	return &RegistryHandler{
		syncService:   syncService,
		importService: importService,
		apiKey:        apiKey,
	}
}

// Sync godoc
// @Summary      Sync schools from Kemendikdasmen
// @Description  Scrapes the registry listing and coordinates, then reconciles every school.
// @Description  Errors use the bare {error} body.
// @Tags         sync
// @Produce      json
// @Param        x-api-key header string false "Sync API key"
// @Success      200 {object} registry.SyncResult
// @Failure      401 {object} dto.LegacyError
// @Failure      409 {object} dto.LegacyError
// @Failure      500 {object} dto.LegacyError
// @Failure      503 {object} dto.LegacyError
// @Router       /sync/kemendikdasmen [get]
// @Router       /sync/kemendikdasmen [post]
func (h *RegistryHandler) Sync(c *gin.Context) {
	if !h.authorized(c.GetHeader(APIKeyHeader)) {
		c.JSON(http.StatusUnauthorized, dto.LegacyError{Error: "Unauthorized"})
		return
	}

	result, err := h.syncService.Run(c.Request.Context())
	if err != nil {
		h.legacyError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *RegistryHandler) authorized(key string) bool {
	if h.apiKey == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(h.apiKey)) == 1
}

// ImportSchools godoc
// @Summary      Import schools from CSV or Excel
// @Description  Rows are reconciled like the registry sync. Row errors are reported, not fatal.
// @Description  An .xlsx upload reads the named sheet, or the first sheet when none is given.
// @Tags         sync
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "CSV or .xlsx file"
// @Param        sheet formData string false "Worksheet name for .xlsx uploads"
// @Success      200 {object} dto.Response{data=dto.SchoolImportResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      413 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/schools/import [post]
func (h *RegistryHandler) ImportSchools(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.BadRequest(c, "Berkas CSV atau Excel wajib diunggah")
		return
	}
	defer file.Close()

	if header.Size > MaxImportFileSize {
		h.ErrorWithCode(c, dto.ErrCodeFileTooLarge, "Ukuran berkas melebihi 10MB")
		return
	}

	var result *registry.ImportResult
	if csvimport.IsWorkbookName(header.Filename) || header.Header.Get("Content-Type") == xlsxContentType {
		result, err = h.importService.ImportWorkbook(c.Request.Context(), file, c.PostForm("sheet"))
	} else {
		result, err = h.importService.Import(c.Request.Context(), file)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.SchoolImportResponse{
		TotalRows:    result.TotalRows,
		CreatedRows:  result.CreatedRows,
		UpdatedRows:  result.UpdatedRows,
		ErrorRows:    result.ErrorRows,
		Errors:       result.Errors,
		IsTruncated:  result.IsTruncated,
		TotalErrors:  result.TotalErrors,
		CreatedSlugs: result.CreatedSlugs,
	})
}
