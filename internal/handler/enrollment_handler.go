package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/playpulse/playpulse-api/internal/models"
	"github.com/playpulse/playpulse-api/internal/service"
	"github.com/playpulse/playpulse-api/pkg/response"
)

type enrollmentService interface {
	Create(ctx context.Context, parentID string, req service.CreateEnrollmentRequest) (*models.Enrollment, error)
	ProcessPayment(ctx context.Context, parentID string, req service.ProcessPaymentRequest) (*models.Enrollment, error)
	InitiatePayment(ctx context.Context, parent models.UserInfo, req service.InitiatePaymentRequest) (*service.InitiatePaymentResult, error)
	PaymentReturnURL(ctx context.Context, purchaseOrderID string) string
	ListForParent(ctx context.Context, parentID string) ([]models.EnrollmentDetail, error)
	ListForOwner(ctx context.Context, ownerID string) ([]models.EnrollmentDetail, error)
	GetForOwner(ctx context.Context, ownerID, id string) (*models.EnrollmentDetail, error)
	Decide(ctx context.Context, ownerID, id string, req service.DecisionRequest) (*models.EnrollmentDetail, error)
}

// EnrollmentHandler exposes the enrollment lifecycle.
type EnrollmentHandler struct {
	enrollments enrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// Create godoc
// @Summary Enroll a child in a program
// @Tags Parent
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateEnrollmentRequest true "Enrollment"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.ErrorEnvelope
// @Router /parent/enroll [post]
func (h *EnrollmentHandler) Create(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.CreateEnrollmentRequest
	if !bindJSON(c, &req, "invalid enrollment payload") {
		return
	}
	enrollment, err := h.enrollments.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// ProcessPayment godoc
// @Summary Confirm payment for an enrollment
// @Tags Parent
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.ProcessPaymentRequest true "Payment"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.ErrorEnvelope
// @Failure 403 {object} response.ErrorEnvelope
// @Failure 409 {object} response.ErrorEnvelope
// @Router /parent/payment [post]
func (h *EnrollmentHandler) ProcessPayment(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.ProcessPaymentRequest
	if !bindJSON(c, &req, "invalid payment payload") {
		return
	}
	enrollment, err := h.enrollments.ProcessPayment(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, enrollment)
}

// InitiatePayment godoc
// @Summary Demo gateway checkout
// @Description Only mounted when PAYMENT_DEMO_MODE is enabled. Marks the enrollment paid without verification.
// @Tags Parent
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.InitiatePaymentRequest true "Enrollment"
// @Success 200 {object} response.Envelope
// @Failure 500 {object} response.ErrorEnvelope
// @Router /parent/initiate-payment [post]
func (h *EnrollmentHandler) InitiatePayment(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.InitiatePaymentRequest
	if !bindJSON(c, &req, "invalid payment payload") {
		return
	}
	result, err := h.enrollments.InitiatePayment(c.Request.Context(), userInfo(claims), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// PaymentSuccess godoc
// @Summary Gateway return URL
// @Tags Parent
// @Param purchase_order_id query string false "Enrollment_<id>"
// @Success 302
// @Router /parent/payment-success [get]
func (h *EnrollmentHandler) PaymentSuccess(c *gin.Context) {
	c.Redirect(http.StatusFound, h.enrollments.PaymentReturnURL(c.Request.Context(), c.Query("purchase_order_id")))
}

// ListForParent godoc
// @Summary Parent's enrollments
// @Tags Parent
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /parent/enrollments [get]
func (h *EnrollmentHandler) ListForParent(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	rows, err := h.enrollments.ListForParent(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rows)
}

// ListForOwner godoc
// @Summary Enrollments of the owner's institute
// @Tags Owner
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /owner/enrollments [get]
func (h *EnrollmentHandler) ListForOwner(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	rows, err := h.enrollments.ListForOwner(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rows)
}

// GetForOwner godoc
// @Summary One enrollment of the owner's institute
// @Tags Owner
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.ErrorEnvelope
// @Router /owner/enrollments/{id} [get]
func (h *EnrollmentHandler) GetForOwner(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	enrollment, err := h.enrollments.GetForOwner(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, enrollment)
}

// Decide godoc
// @Summary Approve or reject a pending enrollment
// @Tags Owner
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Param payload body service.DecisionRequest true "approve or reject"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.ErrorEnvelope
// @Router /owner/enrollments/{id}/decision [put]
func (h *EnrollmentHandler) Decide(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.DecisionRequest
	if !bindJSON(c, &req, "invalid decision payload") {
		return
	}
	enrollment, err := h.enrollments.Decide(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, enrollment)
}
