package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-api/internal/dto"
	"github.com/noah-isme/academy-api/pkg/cache"
	appErrors "github.com/noah-isme/academy-api/pkg/errors"
	"github.com/noah-isme/academy-api/pkg/response"
)

type cacheAdmin interface {
	Clear(ctx context.Context) error
	Stats(ctx context.Context) (cache.Stats, error)
}

// CacheHandler exposes cache maintenance endpoints.
type CacheHandler struct {
	cache cacheAdmin
}

// NewCacheHandler constructs handler.
func NewCacheHandler(c cacheAdmin) *CacheHandler {
	return &CacheHandler{cache: c}
}

// Clear godoc
// @Summary Drop every cached response
// @Tags Cache
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /cache/clear [post]
func (h *CacheHandler) Clear(c *gin.Context) {
	if err := h.cache.Clear(c.Request.Context()); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear cache"))
		return
	}
	respond(c, http.StatusOK, dto.CacheClearResponse{Cleared: true})
}

// Stats godoc
// @Summary Cache hit rate and live keys
// @Tags Cache
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /cache/stats [get]
func (h *CacheHandler) Stats(c *gin.Context) {
	stats, err := h.cache.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read cache stats"))
		return
	}
	respond(c, http.StatusOK, stats)
}
