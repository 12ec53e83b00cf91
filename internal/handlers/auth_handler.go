package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"license-service/internal/services"
)

// AuthHandler handles admin authentication
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// LoginRequest is the admin login payload
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// Login exchanges the admin password for an expiring Bearer token
// @Summary Admin login
// @Description Verifies the admin password and issues a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "password is required", err)
		return
	}

	result, err := h.authService.Login(req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			ErrorResponse(c, http.StatusUnauthorized, "Invalid credentials", nil)
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, "Login failed", err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Login successful", result)
}
