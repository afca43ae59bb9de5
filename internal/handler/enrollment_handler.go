package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-api/internal/dto"
	appErrors "github.com/noah-isme/academy-api/pkg/errors"
	"github.com/noah-isme/academy-api/pkg/response"
)

type enrollmentService interface {
	Enroll(ctx context.Context, req dto.EnrollRequest) (*dto.EnrollResponse, error)
	Operation(ctx context.Context, code string) (*dto.OperationLookupResponse, error)
}

// EnrollmentHandler exposes the public enrollment endpoints.
type EnrollmentHandler struct {
	service enrollmentService
}

// NewEnrollmentHandler constructs handler.
func NewEnrollmentHandler(svc enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: svc}
}

// Create godoc
// @Summary Enroll a student in one or more schedule slots
// @Description Persists locally, mirrors to the ledger and rolls back the local rows when the ledger fails.
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body dto.EnrollRequest true "Student and selected slots"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Failure 504 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Create(c *gin.Context) {
	var req dto.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid enrollment payload"))
		return
	}
	out, err := h.service.Enroll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, http.StatusCreated, out)
}

// GetByOperation godoc
// @Summary Look up the enrollments created under an operation code
// @Tags Enrollments
// @Produce json
// @Param operationCode path string true "Operation code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /enrollments/{operationCode} [get]
func (h *EnrollmentHandler) GetByOperation(c *gin.Context) {
	out, err := h.service.Operation(c.Request.Context(), c.Param("operationCode"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, http.StatusOK, out)
}
