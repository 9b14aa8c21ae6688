package handler

import (
	"context"

	"github.com/datadik/portal/internal/application/identity"
	apporg "github.com/datadik/portal/internal/application/organization"
	domainIdentity "github.com/datadik/portal/internal/domain/identity"
	"github.com/datadik/portal/internal/domain/organization"
	"github.com/datadik/portal/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type organizationService interface {
	List(ctx context.Context, filter organization.OrganizationFilter) (*shared.Paginated[apporg.OrganizationResponse], error)
	Get(ctx context.Context, id uuid.UUID) (*apporg.OrganizationResponse, error)
	Create(ctx context.Context, input apporg.CreateOrganizationInput) (*apporg.OrganizationResponse, error)
	Update(ctx context.Context, id uuid.UUID, input apporg.UpdateOrganizationInput) (*apporg.OrganizationResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetSchoolData(ctx context.Context, orgID uuid.UUID) (*apporg.SchoolDataResponse, error)
	UpdateSchoolData(ctx context.Context, actor domainIdentity.Principal, orgID uuid.UUID, input apporg.UpdateSchoolDataInput) (*apporg.SchoolDataResponse, error)
}

type verificationService interface {
	Request(ctx context.Context, input identity.RequestCodeInput) (*identity.RequestCodeResult, error)
	Confirm(ctx context.Context, input identity.ConfirmCodeInput) (*organization.Organization, error)
}

// OrganizationHandler handles the organization directory, school data and
// contact verification
type OrganizationHandler struct {
	BaseHandler
	orgService          organizationService
	verificationService verificationService
}

// NewOrganizationHandler creates a new organization handler
func NewOrganizationHandler(orgService organizationService, verificationService verificationService) *OrganizationHandler {
	return &OrganizationHandler{
		orgService:          orgService,
		verificationService: verificationService,
	}
}

// List godoc
// @Summary      List organizations
// @Tags         organizations
// @Produce      json
// @Param        type       query string false "sekolah, dinas or umum"
// @Param        q          query string false "Search by name"
// @Param        page       query int    false "Page number" default(1)
// @Param        page_size  query int    false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]apporg.OrganizationResponse,meta=dto.Meta}
// @Router       /organizations [get]
func (h *OrganizationHandler) List(c *gin.Context) {
	var query OrganizationListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, "Parameter tidak valid")
		return
	}

	filter := organization.OrganizationFilter{
		Filter: shared.Filter{
			Page:     query.Page,
			PageSize: query.PageSize,
			Search:   query.Search,
			OrderBy:  "name",
			OrderDir: "asc",
		},
		Type: organization.Type(query.Type),
	}
	result, err := h.orgService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Get godoc
// @Summary      Get organization
// @Tags         organizations
// @Produce      json
// @Param        id path string true "Organization ID"
// @Success      200 {object} dto.Response{data=apporg.OrganizationResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /organizations/{id} [get]
func (h *OrganizationHandler) Get(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	org, err := h.orgService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, org)
}

// Create godoc
// @Summary      Create organization
// @Tags         organizations
// @Accept       json
// @Produce      json
// @Param        request body CreateOrganizationRequest true "Organization"
// @Success      201 {object} dto.Response{data=apporg.OrganizationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /organizations [post]
func (h *OrganizationHandler) Create(c *gin.Context) {
	var req CreateOrganizationRequest
	if !h.bindJSON(c, &req) {
		return
	}

	org, err := h.orgService.Create(c.Request.Context(), apporg.CreateOrganizationInput{
		Slug:       req.Slug,
		Name:       req.Name,
		Type:       organization.Type(req.Type),
		LogoURL:    req.LogoURL,
		FaviconURL: req.FaviconURL,
		Address:    req.Address,
		ThemeColor: req.ThemeColor,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, org)
}

// Update godoc
// @Summary      Update organization
// @Tags         organizations
// @Accept       json
// @Produce      json
// @Param        id      path string                    true "Organization ID"
// @Param        request body UpdateOrganizationRequest true "Changes"
// @Success      200 {object} dto.Response{data=apporg.OrganizationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /organizations/{id} [patch]
func (h *OrganizationHandler) Update(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateOrganizationRequest
	if !h.bindJSON(c, &req) {
		return
	}

	input := apporg.UpdateOrganizationInput{
		Slug:       req.Slug,
		Name:       req.Name,
		LogoURL:    req.LogoURL,
		FaviconURL: req.FaviconURL,
		Address:    req.Address,
		ThemeColor: req.ThemeColor,
	}
	if req.Type != nil {
		t := organization.Type(*req.Type)
		input.Type = &t
	}

	org, err := h.orgService.Update(c.Request.Context(), id, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, org)
}

// Delete godoc
// @Summary      Delete organization
// @Description  Deletes the organization with its school data, posts and submissions
// @Tags         organizations
// @Param        id path string true "Organization ID"
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /organizations/{id} [delete]
func (h *OrganizationHandler) Delete(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.orgService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// GetSchoolData godoc
// @Summary      Get school data
// @Tags         organizations
// @Produce      json
// @Param        id path string true "Organization ID"
// @Success      200 {object} dto.Response{data=apporg.SchoolDataResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /organizations/{id}/school-data [get]
func (h *OrganizationHandler) GetSchoolData(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	data, err := h.orgService.GetSchoolData(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, data)
}

// UpdateSchoolData godoc
// @Summary      Update school data
// @Description  Admins edit any school; operators only the school matching their NPSN
// @Tags         organizations
// @Accept       json
// @Produce      json
// @Param        id      path string                  true "Organization ID"
// @Param        request body UpdateSchoolDataRequest true "School data"
// @Success      200 {object} dto.Response{data=apporg.SchoolDataResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /organizations/{id}/school-data [put]
func (h *OrganizationHandler) UpdateSchoolData(c *gin.Context) {
	actor, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateSchoolDataRequest
	if !h.bindJSON(c, &req) {
		return
	}

	data, err := h.orgService.UpdateSchoolData(c.Request.Context(), actor, id, apporg.UpdateSchoolDataInput{
		Stats: organization.ProfileUpdate{
			Level:        req.Level,
			StudentCount: req.StudentCount,
			TeacherCount: req.TeacherCount,
			ClassCount:   req.ClassCount,
			Vision:       req.Vision,
			Mission:      req.Mission,
			ContactEmail: req.ContactEmail,
			ContactPhone: req.ContactPhone,
			Lat:          req.Lat,
			Lng:          req.Lng,
		},
		Extras: req.Extras,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, data)
}

// RequestVerification godoc
// @Summary      Request contact verification code
// @Description  Sends a 6-digit code to the organization's email or WhatsApp number
// @Tags         organizations
// @Accept       json
// @Produce      json
// @Param        id      path string             true "Organization ID"
// @Param        request body RequestCodeRequest true "Channel"
// @Success      200 {object} dto.Response{data=identity.RequestCodeResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /organizations/{id}/verification [post]
func (h *OrganizationHandler) RequestVerification(c *gin.Context) {
	actor, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if !actor.CanManageOrg(id) {
		h.Forbidden(c, "Anda tidak berhak mengelola organisasi ini.")
		return
	}
	var req RequestCodeRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.verificationService.Request(c.Request.Context(), identity.RequestCodeInput{
		OrgID:  id,
		Type:   req.Type,
		Target: req.Target,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ConfirmVerification godoc
// @Summary      Confirm contact verification code
// @Tags         organizations
// @Accept       json
// @Produce      json
// @Param        id      path string             true "Organization ID"
// @Param        request body ConfirmCodeRequest true "Code"
// @Success      200 {object} dto.Response{data=apporg.OrganizationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /organizations/{id}/verification/confirm [post]
func (h *OrganizationHandler) ConfirmVerification(c *gin.Context) {
	actor, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if !actor.CanManageOrg(id) {
		h.Forbidden(c, "Anda tidak berhak mengelola organisasi ini.")
		return
	}
	var req ConfirmCodeRequest
	if !h.bindJSON(c, &req) {
		return
	}

	org, err := h.verificationService.Confirm(c.Request.Context(), identity.ConfirmCodeInput{
		OrgID:  id,
		Type:   req.Type,
		Target: req.Target,
		Code:   req.Code,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, apporg.ToOrganizationResponse(org))
}
