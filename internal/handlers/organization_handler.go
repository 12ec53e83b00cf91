package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"license-service/internal/services"
)

// OrganizationHandler handles license administration and validation requests
type OrganizationHandler struct {
	orgService *services.OrganizationService
}

// NewOrganizationHandler creates a new organization handler
func NewOrganizationHandler(orgService *services.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{orgService: orgService}
}

// List returns all organizations for the admin console
// @Summary List organizations
// @Description Lists all organizations with usage stats and validation counts
// @Tags license
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/license/list [get]
func (h *OrganizationHandler) List(c *gin.Context) {
	items, err := h.orgService.List(c.Request.Context())
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Organizations retrieved", gin.H{"organizations": items})
}

// Create provisions a new organization with a fresh license key
// @Summary Create organization
// @Description Creates an organization and generates its license key
// @Tags license
// @Accept json
// @Produce json
// @Param request body services.CreateOrganizationRequest true "Organization"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/license/create [post]
func (h *OrganizationHandler) Create(c *gin.Context) {
	var req services.CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	org, err := h.orgService.Create(c.Request.Context(), &req)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Organization created", gin.H{"organization": org})
}

// updateRequest wraps the partial update with the slug that identifies the target.
type updateRequest struct {
	Slug string `json:"slug" binding:"required"`
	services.UpdateOrganizationRequest
}

// Update applies a partial update to an organization
// @Summary Update organization
// @Description Updates license state, contact info or limits for one organization
// @Tags license
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/license/update [post]
func (h *OrganizationHandler) Update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "slug is required", err)
		return
	}

	org, err := h.orgService.Update(c.Request.Context(), req.Slug, &req.UpdateOrganizationRequest)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Organization updated", gin.H{"organization": org})
}

// Validate checks a license key for a booking app instance
// @Summary Validate license
// @Description Validates a license key against an organization slug
// @Tags license
// @Accept json
// @Produce json
// @Param request body services.ValidateRequest true "Validation request"
// @Success 200 {object} services.ValidationResult
// @Failure 400 {object} map[string]interface{}
// @Router /api/license/validate [post]
func (h *OrganizationHandler) Validate(c *gin.Context) {
	var req services.ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "license_key and org_slug are required", err)
		return
	}

	result, err := h.orgService.Validate(c.Request.Context(), &req)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}

	// The verdict is the payload; invalid licenses are still HTTP 200
	c.JSON(http.StatusOK, result)
}

// Pricing returns the monthly price breakdown for a license key
// @Summary Get pricing
// @Description Returns the monthly price breakdown for an organization
// @Tags license
// @Produce json
// @Param licenseKey query string true "License key"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/license/pricing [get]
func (h *OrganizationHandler) Pricing(c *gin.Context) {
	licenseKey := c.Query("licenseKey")
	if licenseKey == "" {
		ErrorResponse(c, http.StatusBadRequest, "licenseKey is required", nil)
		return
	}

	result, err := h.orgService.Pricing(c.Request.Context(), licenseKey)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Pricing retrieved", gin.H{"pricing": result})
}
