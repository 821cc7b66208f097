package routes

import (
	"time"

	"assetdesk/internal/core/container"
	"assetdesk/internal/middleware"
	"assetdesk/pkg/security"

	"github.com/gin-gonic/gin"
)

// RegisterPublicRoutes mounts everything reachable without a token. The
// login route sits behind a per-IP rate limit.
func RegisterPublicRoutes(router *gin.Engine, container *container.Container) {
	publicRoutes := router.Group("/")
	publicRoutes.Use(middleware.RateLimitMiddleware(middleware.NewRateLimiter(10, time.Minute)))

	container.LoginHandler.RegisterRoutes(publicRoutes)
}

// RegisterProtectedRoutes mounts the API behind JWT validation. Role checks
// sit on the individual routes, permission checks in the services.
func RegisterProtectedRoutes(router *gin.Engine, container *container.Container) {
	protectedRoutes := router.Group("/api")
	protectedRoutes.Use(security.JWTMiddleware())

	container.UserHandler.RegisterRoutes(protectedRoutes)
	container.AssetHandler.RegisterRoutes(protectedRoutes)
	container.AssignmentHandler.RegisterRoutes(protectedRoutes)
	container.InspectionHandler.RegisterRoutes(protectedRoutes)
	container.TicketHandler.RegisterRoutes(protectedRoutes)
	container.PMHandler.RegisterRoutes(protectedRoutes)
	container.AuditLogHandler.RegisterRoutes(protectedRoutes)
}

func RegisterUtilityRoutes(router *gin.Engine, container *container.Container) {
	router.GET("/health", middleware.HealthCheckMiddleware())
	router.GET("/metrics", container.Metrics.Handler())
}
