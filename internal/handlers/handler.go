package handlers

import (
	"brewsync/internal/logger"
	"brewsync/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// Snapshot push over WebSocket (HTTP upgrade) — same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		h.registerBrewerRoutes(api)
		h.registerUsageRoutes(api)
		h.registerProfileRoutes(api)
		h.registerScheduleRoutes(api)
	}
}

func (h *Handler) registerBrewerRoutes(api *gin.RouterGroup) {
	brewer := api.Group("/brewer")
	{
		brewer.GET("/snapshot", h.getSnapshot)
		// ?force=true bypasses the refresh throttle
		brewer.POST("/refresh", h.refresh)
	}
}

func (h *Handler) registerUsageRoutes(api *gin.RouterGroup) {
	usage := api.Group("/usage")
	{
		// ?period=day|week|month|lifetime
		usage.GET("/rollup", h.getRollup)
		usage.GET("/since-baseline", h.getSinceBaseline)
		usage.GET("/events", h.getEvents)
		usage.POST("/reset", h.resetBaseline)
		usage.POST("/prune", h.pruneEvents)
	}
}

func (h *Handler) registerProfileRoutes(api *gin.RouterGroup) {
	profiles := api.Group("/profiles")
	{
		profiles.GET("/", h.listProfiles)
		profiles.GET("/:id", h.getProfile)
		profiles.POST("/", h.createProfile)
		profiles.DELETE("/:id", h.deleteProfile)
	}
}

func (h *Handler) registerScheduleRoutes(api *gin.RouterGroup) {
	schedules := api.Group("/schedules")
	{
		schedules.GET("/", h.listSchedules)
		schedules.POST("/", h.createSchedule)
		schedules.DELETE("/:id", h.deleteSchedule)
		// Body example: {"enabled":true}
		schedules.PATCH("/:id/toggle", h.toggleSchedule)
	}
}
