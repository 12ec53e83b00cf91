package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"license-service/internal/config"
	"license-service/internal/services"
)

// EmailHandler exposes SMTP diagnostics for the admin console
type EmailHandler struct {
	emailService *services.EmailService
	cfg          config.SMTPConfig
}

// NewEmailHandler creates a new email handler
func NewEmailHandler(emailService *services.EmailService, cfg config.SMTPConfig) *EmailHandler {
	return &EmailHandler{emailService: emailService, cfg: cfg}
}

// configSummary shows the SMTP setup without exposing the password.
func (h *EmailHandler) configSummary() gin.H {
	orUnset := func(v string) string {
		if v == "" {
			return "(not set)"
		}
		return v
	}
	password := "(not set)"
	if h.cfg.Password != "" {
		password = "***configured***"
	}
	from := h.cfg.From
	if from == "" {
		from = h.cfg.User
	}
	return gin.H{
		"smtp_host":     orUnset(h.cfg.Host),
		"smtp_port":     orUnset(h.cfg.Port),
		"smtp_user":     orUnset(h.cfg.User),
		"smtp_password": password,
		"smtp_from":     orUnset(from),
	}
}

// GetConfig shows the SMTP configuration
// @Summary Show SMTP configuration
// @Tags email
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/email/test [get]
func (h *EmailHandler) GetConfig(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, "SMTP configuration", gin.H{"config": h.configSummary()})
}

// TestRequest optionally names a recipient for a test email
type TestRequest struct {
	TestEmail string `json:"test_email"`
}

// Test verifies the SMTP connection and optionally sends a test email
// @Summary Test SMTP
// @Description Verifies the SMTP connection; sends a test email when test_email is given
// @Tags email
// @Accept json
// @Produce json
// @Param request body TestRequest false "Test request"
// @Success 200 {object} map[string]interface{}
// @Router /api/email/test [post]
func (h *EmailHandler) Test(c *gin.Context) {
	var req TestRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	connResult := h.emailService.TestConnection(c.Request.Context())
	if !connResult.Success {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"step":    "connection",
			"error":   connResult.Error,
			"config":  h.configSummary(),
		})
		return
	}

	if req.TestEmail != "" {
		sendResult := h.emailService.SendTest(c.Request.Context(), req.TestEmail)
		if !sendResult.Success {
			c.JSON(http.StatusOK, gin.H{
				"success":       false,
				"step":          "sending",
				"error":         sendResult.Error,
				"config":        h.configSummary(),
				"connection_ok": true,
			})
			return
		}
		SuccessResponse(c, http.StatusOK, "Test email sent to "+req.TestEmail, gin.H{"config": h.configSummary()})
		return
	}

	SuccessResponse(c, http.StatusOK, "SMTP connection OK", gin.H{"config": h.configSummary()})
}
