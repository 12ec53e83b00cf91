package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"license-service/internal/services"
)

// ModuleHandler handles the module catalog and per-organization entitlements
type ModuleHandler struct {
	moduleService *services.ModuleService
}

// NewModuleHandler creates a new module handler
func NewModuleHandler(moduleService *services.ModuleService) *ModuleHandler {
	return &ModuleHandler{moduleService: moduleService}
}

// ListCatalog returns all modules in the catalog
// @Summary List modules
// @Tags modules
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/modules [get]
func (h *ModuleHandler) ListCatalog(c *gin.Context) {
	modules, err := h.moduleService.ListCatalog(c.Request.Context())
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Modules retrieved", gin.H{"modules": modules})
}

// ListForOrganization returns an organization's module assignments
// @Summary List organization modules
// @Tags modules
// @Produce json
// @Param id path string true "Organization ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/organizations/{id}/modules [get]
func (h *ModuleHandler) ListForOrganization(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid organization ID", err)
		return
	}

	modules, err := h.moduleService.ListForOrganization(c.Request.Context(), orgID)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Organization modules retrieved", gin.H{"modules": modules})
}

// Toggle activates or deactivates a module for an organization
// @Summary Toggle organization module
// @Description Activates or deactivates a module; standard modules cannot be deactivated
// @Tags modules
// @Accept json
// @Produce json
// @Param id path string true "Organization ID"
// @Param request body services.ToggleModuleRequest true "Toggle request"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/organizations/{id}/modules [post]
func (h *ModuleHandler) Toggle(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid organization ID", err)
		return
	}

	var req services.ToggleModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "module_id and is_active are required", err)
		return
	}

	orgModule, err := h.moduleService.Toggle(c.Request.Context(), orgID, &req)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Module updated", gin.H{"organization_module": orgModule})
}
