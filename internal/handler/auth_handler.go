package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/playpulse/playpulse-api/internal/models"
	"github.com/playpulse/playpulse-api/internal/service"
	"github.com/playpulse/playpulse-api/pkg/response"
)

type authService interface {
	Signup(ctx context.Context, req service.SignupRequest) (*service.AuthResponse, error)
	Login(ctx context.Context, req service.LoginRequest) (*service.AuthResponse, error)
	ForgotPassword(ctx context.Context, req service.ForgotPasswordRequest) error
	VerifyResetCode(ctx context.Context, req service.VerifyResetCodeRequest) error
	ResetPassword(ctx context.Context, req service.ResetPasswordRequest) error
	Profile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, req service.UpdateProfileRequest, image *service.UploadedFile) (*models.User, error)
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service authService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Signup godoc
// @Summary Register an owner or parent
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body service.SignupRequest true "Signup payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.ErrorEnvelope
// @Failure 409 {object} response.ErrorEnvelope
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req service.SignupRequest
	if !bindJSON(c, &req, "invalid signup payload") {
		return
	}
	res, err := h.service.Signup(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate user by email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body service.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.ErrorEnvelope
// @Failure 401 {object} response.ErrorEnvelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if !bindJSON(c, &req, "invalid login payload") {
		return
	}
	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// ForgotPassword godoc
// @Summary Email a password reset code
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body service.ForgotPasswordRequest true "Email"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.ErrorEnvelope
// @Failure 500 {object} response.ErrorEnvelope
// @Router /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req service.ForgotPasswordRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}
	if err := h.service.ForgotPassword(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "Reset code sent to your email"})
}

// VerifyResetCode godoc
// @Summary Check a reset code
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body service.VerifyResetCodeRequest true "Email and code"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.ErrorEnvelope
// @Router /auth/verify-reset-code [post]
func (h *AuthHandler) VerifyResetCode(c *gin.Context) {
	var req service.VerifyResetCodeRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}
	if err := h.service.VerifyResetCode(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "Code verified"})
}

// ResetPassword godoc
// @Summary Set a new password with a reset code
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body service.ResetPasswordRequest true "Email, code and new password"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.ErrorEnvelope
// @Router /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req service.ResetPasswordRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}
	if err := h.service.ResetPassword(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "Password reset successfully"})
}

// Profile godoc
// @Summary Current user profile
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /auth/profile [get]
func (h *AuthHandler) Profile(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	user, err := h.service.Profile(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, user)
}

// UpdateProfile godoc
// @Summary Edit current user profile
// @Tags Authentication
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param name formData string false "Name"
// @Param username formData string false "Username"
// @Param email formData string false "Email"
// @Param image formData file false "Profile picture"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.ErrorEnvelope
// @Router /auth/profile [put]
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.UpdateProfileRequest
	if !bindForm(c, &req, "invalid profile payload") {
		return
	}
	image, ok := formFile(c, "image")
	if !ok {
		return
	}
	user, err := h.service.UpdateProfile(c.Request.Context(), claims.UserID, req, image)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, user)
}
