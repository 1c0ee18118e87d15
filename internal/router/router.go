package router

import (
	"github.com/gin-gonic/gin"

	"docparse/internal/handler"
	"docparse/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	docH *handler.DocumentHandler,
	healthH *handler.HealthHandler,
	corsOrigins []string,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(corsOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	// Document routes
	docs := v1.Group("/documents")
	docs.POST("/parse", docH.Parse)
	docs.GET("", docH.List)
	docs.GET("/:id", docH.GetByID)
	docs.GET("/:id/export", docH.Export)

	return r
}
