package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-api/internal/dto"
	appErrors "github.com/noah-isme/academy-api/pkg/errors"
	"github.com/noah-isme/academy-api/pkg/response"
)

type studentQueries interface {
	Enrollments(ctx context.Context, nationalID string, forceRefresh bool) (*dto.EnrollmentListResponse, bool, error)
	Consultation(ctx context.Context, nationalID string, forceRefresh bool) (*dto.ConsultationResponse, bool, error)
}

type receiptUploader interface {
	UploadReceipt(ctx context.Context, nationalID string, req dto.ReceiptUploadRequest) (*dto.ReceiptUploadResponse, error)
}

// StudentHandler exposes the per-student endpoints used by families.
type StudentHandler struct {
	queries  studentQueries
	receipts receiptUploader
}

// NewStudentHandler constructs handler.
func NewStudentHandler(queries studentQueries, receipts receiptUploader) *StudentHandler {
	return &StudentHandler{queries: queries, receipts: receipts}
}

// Enrollments godoc
// @Summary List the active enrollments of a student
// @Tags Students
// @Produce json
// @Param nationalId path string true "National ID"
// @Param forceRefresh query bool false "Skip the cached copy"
// @Success 200 {object} response.Envelope
// @Router /students/{nationalId}/enrollments [get]
func (h *StudentHandler) Enrollments(c *gin.Context) {
	out, hit, err := h.queries.Enrollments(c.Request.Context(), c.Param("nationalId"), forceRefresh(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondCached(c, http.StatusOK, out, hit)
}

// Consultation godoc
// @Summary Consolidated student profile with payment state and slots
// @Tags Students
// @Produce json
// @Param nationalId path string true "National ID"
// @Param forceRefresh query bool false "Skip the cached copy"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{nationalId}/consultation [get]
func (h *StudentHandler) Consultation(c *gin.Context) {
	out, hit, err := h.queries.Consultation(c.Request.Context(), c.Param("nationalId"), forceRefresh(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondCached(c, http.StatusOK, out, hit)
}

// UploadReceipt godoc
// @Summary Upload a payment receipt image
// @Tags Students
// @Accept json
// @Produce json
// @Param nationalId path string true "National ID"
// @Param payload body dto.ReceiptUploadRequest true "Receipt as a base64 data URI"
// @Success 200 {object} response.Envelope
// @Router /students/{nationalId}/receipt [post]
func (h *StudentHandler) UploadReceipt(c *gin.Context) {
	var req dto.ReceiptUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid receipt payload"))
		return
	}
	out, err := h.receipts.UploadReceipt(c.Request.Context(), c.Param("nationalId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, http.StatusOK, out)
}
