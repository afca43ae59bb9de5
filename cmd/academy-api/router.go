package main

import (
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/academy-api/api/swagger"
	"github.com/noah-isme/academy-api/internal/handler"
	internalmiddleware "github.com/noah-isme/academy-api/internal/middleware"
	"github.com/noah-isme/academy-api/internal/models"
	"github.com/noah-isme/academy-api/internal/service"
	"github.com/noah-isme/academy-api/pkg/config"
	"github.com/noah-isme/academy-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/academy-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/academy-api/pkg/middleware/requestid"
)

func newRouter(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, metrics *service.MetricsService, cacheSvc *service.CacheService, svc appServices) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins, logr))
	r.Use(internalmiddleware.Metrics(metrics))
	r.Use(internalmiddleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(metrics, db)
	scheduleHandler := handler.NewScheduleHandler(svc.schedules)
	enrollmentHandler := handler.NewEnrollmentHandler(svc.enrollment)
	studentHandler := handler.NewStudentHandler(svc.students, svc.admin)
	adminHandler := handler.NewAdminHandler(svc.admin, svc.roster, logr)
	cacheHandler := handler.NewCacheHandler(cacheSvc)

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/schedules", scheduleHandler.List)
	api.POST("/enrollments", enrollmentHandler.Create)
	api.GET("/enrollments/:operationCode", enrollmentHandler.GetByOperation)

	students := api.Group("/students/:nationalId")
	students.GET("/enrollments", studentHandler.Enrollments)
	students.GET("/consultation", studentHandler.Consultation)
	students.POST("/receipt", studentHandler.UploadReceipt)

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(svc.auth))
	secured.Use(internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin))

	admin := secured.Group("/admin")
	admin.PUT("/students/:nationalId/payment/confirm", adminHandler.ConfirmPayment)
	admin.PUT("/students/:nationalId/payment/reject", adminHandler.RejectPayment)
	admin.POST("/students/:nationalId/deactivate", adminHandler.Deactivate)
	admin.POST("/students/:nationalId/reactivate", adminHandler.Reactivate)
	admin.GET("/rosters", adminHandler.Roster)
	admin.GET("/rosters/export", adminHandler.ExportRoster)

	secured.POST("/cache/clear", cacheHandler.Clear)
	secured.GET("/cache/stats", cacheHandler.Stats)

	return r
}
