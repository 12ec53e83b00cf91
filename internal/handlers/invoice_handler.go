package handlers

import (
	"encoding/base64"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"license-service/internal/repository"
	"license-service/internal/services"
)

// InvoiceHandler handles invoice lifecycle requests
type InvoiceHandler struct {
	invoiceService *services.InvoiceService
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(invoiceService *services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// List returns invoices matching the query filters
// @Summary List invoices
// @Description Lists invoices, optionally filtered by organization, status or period
// @Tags invoices
// @Produce json
// @Param organizationId query string false "Organization ID"
// @Param status query string false "Invoice status"
// @Param year query int false "Period year"
// @Param month query int false "Period month"
// @Success 200 {object} map[string]interface{}
// @Router /api/invoices/list [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	var filter repository.InvoiceFilter

	if orgIDStr := c.Query("organizationId"); orgIDStr != "" {
		orgID, err := uuid.Parse(orgIDStr)
		if err != nil {
			ErrorResponse(c, http.StatusBadRequest, "Invalid organization ID", err)
			return
		}
		filter.OrganizationID = &orgID
	}
	filter.Status = c.Query("status")
	if yearStr := c.Query("year"); yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			ErrorResponse(c, http.StatusBadRequest, "Invalid year", err)
			return
		}
		filter.Year = year
	}
	if monthStr := c.Query("month"); monthStr != "" {
		month, err := strconv.Atoi(monthStr)
		if err != nil {
			ErrorResponse(c, http.StatusBadRequest, "Invalid month", err)
			return
		}
		filter.Month = month
	}

	invoices, err := h.invoiceService.List(c.Request.Context(), filter)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Invoices retrieved", gin.H{"invoices": invoices})
}

// Create builds an invoice for an organization and billing period
// @Summary Create invoice
// @Description Creates a draft invoice with a snapshot of current pricing
// @Tags invoices
// @Accept json
// @Produce json
// @Param request body services.CreateInvoiceRequest true "Invoice request"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/invoices/create [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req services.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "organization_id, period_month and period_year are required", err)
		return
	}

	invoice, err := h.invoiceService.Create(c.Request.Context(), &req)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Invoice created", gin.H{"invoice": invoice})
}

// Get returns one invoice
// @Summary Get invoice
// @Tags invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/invoices/{id} [get]
func (h *InvoiceHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid invoice ID", err)
		return
	}

	invoice, err := h.invoiceService.Get(c.Request.Context(), id)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Invoice retrieved", gin.H{"invoice": invoice})
}

// UpdateStatus moves an invoice through its lifecycle
// @Summary Update invoice status
// @Description Applies a status transition; invalid transitions are rejected
// @Tags invoices
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID"
// @Param request body services.UpdateInvoiceStatusRequest true "New status"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/invoices/{id} [patch]
func (h *InvoiceHandler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid invoice ID", err)
		return
	}

	var req services.UpdateInvoiceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "status is required", err)
		return
	}

	invoice, err := h.invoiceService.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Invoice status updated", gin.H{"invoice": invoice})
}

// Delete removes a cancelled invoice
// @Summary Delete invoice
// @Description Deletes an invoice; only cancelled invoices can be deleted
// @Tags invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/invoices/{id} [delete]
func (h *InvoiceHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid invoice ID", err)
		return
	}

	if err := h.invoiceService.Delete(c.Request.Context(), id); err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Invoice deleted", nil)
}

// Send emails the invoice to the organization's contact
// @Summary Send invoice
// @Description Sends the invoice email; a draft becomes sent on success
// @Tags invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/invoices/{id}/send [post]
func (h *InvoiceHandler) Send(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid invoice ID", err)
		return
	}

	// Optional body with a client-rendered PDF to attach
	var req struct {
		PDFBase64 string `json:"pdfBase64"`
	}
	_ = c.ShouldBindJSON(&req)

	var pdf []byte
	if req.PDFBase64 != "" {
		pdf, err = base64.StdEncoding.DecodeString(req.PDFBase64)
		if err != nil {
			ErrorResponse(c, http.StatusBadRequest, "Invalid PDF attachment", err)
			return
		}
	}

	result, err := h.invoiceService.Send(c.Request.Context(), id, pdf)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}

	if !result.Success {
		// SMTP failure is reported in the payload, not as an HTTP error
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"error":   result.Error,
			"invoice": result.Invoice,
		})
		return
	}
	SuccessResponse(c, http.StatusOK, "Invoice sent", gin.H{"invoice": result.Invoice})
}
