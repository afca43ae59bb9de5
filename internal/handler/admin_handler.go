package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-api/internal/dto"
	"github.com/noah-isme/academy-api/internal/service"
	appErrors "github.com/noah-isme/academy-api/pkg/errors"
	"github.com/noah-isme/academy-api/pkg/logger"
	"github.com/noah-isme/academy-api/pkg/response"
)

type adminService interface {
	ConfirmPayment(ctx context.Context, nationalID string, req dto.ConfirmPaymentRequest) (*dto.StudentStatusResponse, error)
	RejectPayment(ctx context.Context, nationalID string, req dto.RejectPaymentRequest) (*dto.StudentStatusResponse, error)
	Deactivate(ctx context.Context, nationalID string) (*dto.StudentStatusResponse, error)
	Reactivate(ctx context.Context, nationalID string) (*dto.StudentStatusResponse, error)
}

type rosterService interface {
	List(ctx context.Context, day, sport string, forceRefresh bool) (*dto.RosterResponse, bool, error)
	Export(ctx context.Context, day, sport, format string) (*service.RosterExport, error)
}

// AdminHandler exposes the back-office endpoints. Routes are expected behind JWT and RequireRoles.
type AdminHandler struct {
	admin  adminService
	roster rosterService
	logger *zap.Logger
}

// NewAdminHandler constructs handler.
func NewAdminHandler(admin adminService, roster rosterService, log *zap.Logger) *AdminHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminHandler{admin: admin, roster: roster, logger: log}
}

// ConfirmPayment godoc
// @Summary Confirm the enrollment fee of a student
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param nationalId path string true "National ID"
// @Param payload body dto.ConfirmPaymentRequest true "Payment details"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /admin/students/{nationalId}/payment/confirm [put]
func (h *AdminHandler) ConfirmPayment(c *gin.Context) {
	var req dto.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payment payload"))
		return
	}
	out, err := h.admin.ConfirmPayment(c.Request.Context(), c.Param("nationalId"), req)
	h.finish(c, "payment confirmed", out, err)
}

// RejectPayment godoc
// @Summary Reject the payment of a student and cancel their enrollments
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param nationalId path string true "National ID"
// @Param payload body dto.RejectPaymentRequest false "Reason"
// @Success 200 {object} response.Envelope
// @Router /admin/students/{nationalId}/payment/reject [put]
func (h *AdminHandler) RejectPayment(c *gin.Context) {
	var req dto.RejectPaymentRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rejection payload"))
			return
		}
	}
	out, err := h.admin.RejectPayment(c.Request.Context(), c.Param("nationalId"), req)
	h.finish(c, "payment rejected", out, err)
}

// Deactivate godoc
// @Summary Deactivate a student account
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param nationalId path string true "National ID"
// @Success 200 {object} response.Envelope
// @Router /admin/students/{nationalId}/deactivate [post]
func (h *AdminHandler) Deactivate(c *gin.Context) {
	out, err := h.admin.Deactivate(c.Request.Context(), c.Param("nationalId"))
	h.finish(c, "student deactivated", out, err)
}

// Reactivate godoc
// @Summary Reactivate a student account
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param nationalId path string true "National ID"
// @Success 200 {object} response.Envelope
// @Router /admin/students/{nationalId}/reactivate [post]
func (h *AdminHandler) Reactivate(c *gin.Context) {
	out, err := h.admin.Reactivate(c.Request.Context(), c.Param("nationalId"))
	h.finish(c, "student reactivated", out, err)
}

// Roster godoc
// @Summary List enrolled students
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param day query string false "Weekday"
// @Param sport query string false "Sport name contains"
// @Param forceRefresh query bool false "Skip the cached copy"
// @Success 200 {object} response.Envelope
// @Router /admin/rosters [get]
func (h *AdminHandler) Roster(c *gin.Context) {
	out, hit, err := h.roster.List(c.Request.Context(), c.Query("day"), c.Query("sport"), forceRefresh(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondCached(c, http.StatusOK, out, hit)
}

// ExportRoster godoc
// @Summary Download the roster as CSV or PDF
// @Tags Admin
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param day query string false "Weekday"
// @Param sport query string false "Sport name contains"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Router /admin/rosters/export [get]
func (h *AdminHandler) ExportRoster(c *gin.Context) {
	file, err := h.roster.Export(c.Request.Context(), c.Query("day"), c.Query("sport"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.FileName, file.ContentType, file.Body)
}

func (h *AdminHandler) finish(c *gin.Context, action string, out *dto.StudentStatusResponse, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	logger.WithContext(c.Request.Context(), h.logger).Info(action,
		zap.String("national_id", out.NationalID), zap.Int("affected_enrollments", out.AffectedEnrollments), actorField(c))
	respond(c, http.StatusOK, out)
}
