package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"license-service/internal/services"
)

// SettingsHandler handles company settings and license type prices
type SettingsHandler struct {
	settingsService *services.SettingsService
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settingsService *services.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// GetCompany returns the company settings
// @Summary Get company settings
// @Tags settings
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/settings/company [get]
func (h *SettingsHandler) GetCompany(c *gin.Context) {
	settings, err := h.settingsService.Get(c.Request.Context())
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Settings retrieved", gin.H{"settings": settings})
}

// UpdateCompany merges a partial update into the company settings
// @Summary Update company settings
// @Tags settings
// @Accept json
// @Produce json
// @Param request body services.UpdateSettingsRequest true "Settings"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/settings/company [put]
func (h *SettingsHandler) UpdateCompany(c *gin.Context) {
	var req services.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	settings, err := h.settingsService.Update(c.Request.Context(), &req)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Settings updated", gin.H{"settings": settings})
}

// ListPrices returns the effective price for every license type
// @Summary List license type prices
// @Tags settings
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/license-types/prices [get]
func (h *SettingsHandler) ListPrices(c *gin.Context) {
	prices, err := h.settingsService.ListLicenseTypePrices(c.Request.Context())
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Prices retrieved", gin.H{"prices": prices})
}

// SetPriceRequest sets the monthly price for a license type
type SetPriceRequest struct {
	Price *int `json:"price" binding:"required"`
}

// SetPrice overrides the monthly price of one license type
// @Summary Set license type price
// @Tags settings
// @Accept json
// @Produce json
// @Param type path string true "License type"
// @Param request body SetPriceRequest true "Price"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/license-types/{type}/price [put]
func (h *SettingsHandler) SetPrice(c *gin.Context) {
	var req SetPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "price is required", err)
		return
	}

	if err := h.settingsService.SetLicenseTypePrice(c.Request.Context(), c.Param("type"), *req.Price); err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Price updated", nil)
}
