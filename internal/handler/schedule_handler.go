package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-api/internal/dto"
	"github.com/noah-isme/academy-api/pkg/response"
)

type scheduleLister interface {
	List(ctx context.Context, birthYear *int, forceRefresh bool) (*dto.ScheduleListResponse, bool, error)
}

// ScheduleHandler serves the public schedule.
type ScheduleHandler struct {
	service scheduleLister
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(svc scheduleLister) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// List godoc
// @Summary List available schedule slots
// @Tags Schedules
// @Produce json
// @Param birthYear query int false "Only slots accepting this birth year"
// @Param forceRefresh query bool false "Skip the cached copy"
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	birthYear, err := birthYearQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	out, hit, err := h.service.List(c.Request.Context(), birthYear, forceRefresh(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondCached(c, http.StatusOK, out, hit)
}
