package http

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Harsh-BH/baywatch/internal/delivery/http/middleware"
	"github.com/Harsh-BH/baywatch/internal/usecase"
)

// maxBodyBytes caps JSON request bodies on write routes.
const maxBodyBytes = 64 << 10

// RouterDeps holds everything the router wires into handlers.
type RouterDeps struct {
	Coordinator  *usecase.AssignmentCoordinator
	JobQueries   *usecase.JobQueries
	ShareLinks   *usecase.ShareLinkUsecase
	CameraAdmin  *usecase.CameraAdminUsecase
	CameraStream *usecase.CameraStreamUsecase
	Gateway      *usecase.PublicAccessGateway
	HealthChecks map[string]HealthCheck
	Logger       *zap.Logger

	// HLSDir is served under HLSPrefix. Empty disables static serving.
	HLSDir          string
	HLSPrefix       string
	StaffToken      string
	RateLimitPerMin int
}

// NewRouter creates and configures the Gin router with all routes and middleware.
// ctx bounds background work owned by middleware.
func NewRouter(ctx context.Context, deps *RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger(deps.Logger))

	// Metrics endpoint (no rate limiting)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if deps.HLSDir != "" {
		router.Static(deps.HLSPrefix, deps.HLSDir)
	}

	v1 := router.Group("/api/v1")
	{
		healthHandler := NewHealthHandler(deps.HealthChecks, deps.Logger)
		v1.GET("/health", healthHandler.Health)

		// Customer-facing routes (rate limited, no staff session)
		public := v1.Group("/public", middleware.RateLimiter(ctx, deps.RateLimitPerMin))
		{
			publicHandler := NewPublicHandler(deps.Gateway, deps.Logger)
			public.GET("/stream/:jobId/:cameraId", publicHandler.Stream)

			wsHandler := NewWebSocketHandler(deps.Gateway, deps.Logger)
			public.GET("/stream/:jobId/:cameraId/ws", wsHandler.Feed)
		}

		staff := v1.Group("", middleware.StaffAuth(deps.StaffToken))
		{
			cameraHandler := NewCameraHandler(deps.CameraAdmin, deps.CameraStream, deps.Logger)
			staff.GET("/cameras", cameraHandler.List)
			staff.POST("/cameras", middleware.BodySizeLimit(maxBodyBytes), cameraHandler.Create)
			staff.GET("/cameras/:cameraId", cameraHandler.GetByID)
			staff.GET("/cameras/:cameraId/stream", cameraHandler.Stream)

			jobHandler := NewJobHandler(deps.Coordinator, deps.JobQueries, deps.ShareLinks, deps.Logger)
			staff.GET("/jobs", jobHandler.List)
			staff.GET("/jobs/history", jobHandler.History)
			staff.GET("/jobs/:id", jobHandler.GetByID)
			staff.POST("/jobs", middleware.BodySizeLimit(maxBodyBytes), jobHandler.Create)
			staff.PUT("/jobs/:id", middleware.BodySizeLimit(maxBodyBytes), jobHandler.Update)
			staff.POST("/jobs/:id/complete", jobHandler.Complete)
			staff.POST("/jobs/:id/release", jobHandler.Release)
			staff.POST("/jobs/:id/share", jobHandler.Share)
			staff.GET("/branches/:id/jobs", jobHandler.ListForBranch)
		}
	}

	return router
}
