package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-api/internal/middleware"
	"github.com/noah-isme/academy-api/internal/models"
	appErrors "github.com/noah-isme/academy-api/pkg/errors"
	"github.com/noah-isme/academy-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.Claims(c)
	if !ok {
		return nil
	}
	return claims
}

// actorField names the admin behind a request in logs.
func actorField(c *gin.Context) zap.Field {
	if claims := claimsFromContext(c); claims != nil {
		return zap.String("actor", claims.UserID)
	}
	return zap.Skip()
}

// forceRefresh reads the forceRefresh flag. Anything but a true-ish value is false.
func forceRefresh(c *gin.Context) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(c.Query("forceRefresh")))
	return err == nil && value
}

// birthYearQuery parses the optional birthYear filter.
func birthYearQuery(c *gin.Context) (*int, error) {
	raw := strings.TrimSpace(c.Query("birthYear"))
	if raw == "" {
		return nil, nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "birthYear must be a number")
	}
	return &year, nil
}

func respondCached(c *gin.Context, status int, data interface{}, hit bool) {
	middleware.SetCacheHit(c, hit)
	respond(c, status, data)
}

func respond(c *gin.Context, status int, data interface{}) {
	response.JSON(c, status, data, middleware.ExtractMeta(c))
}
