package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"condobook/internal/infra/config"
	"condobook/internal/infra/obs"
)

type AmenityHTTP interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	UploadPhoto(c *gin.Context)
}

type BookingHTTP interface {
	Request(c *gin.Context)
	Edit(c *gin.Context)
	UpdateStatus(c *gin.Context)
	Cancel(c *gin.Context)
}

type AgendaHTTP interface {
	Month(c *gin.Context)
	ListAll(c *gin.Context)
	ListMine(c *gin.Context)
	Bulletin(c *gin.Context)
	Item(c *gin.Context)
}

type Handlers struct {
	Amenities AmenityHTTP
	Bookings  BookingHTTP
	Agenda    AgendaHTTP
	Principal gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter builds the engine without binding an address.
func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(corsConfig(cfg.CORSAllowedOrigins)))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if cfg.RequestTimeout > 0 {
		api.Use(obsMW.Timeout(cfg.RequestTimeout))
	}
	principal := h.Principal
	if principal == nil {
		principal = HeaderPrincipal()
	}
	api.Use(principal)

	if h.Amenities != nil {
		amenities := api.Group("/amenities")
		amenities.GET("", h.Amenities.List)
		amenities.POST("", h.Amenities.Create)
		amenities.GET("/:id", h.Amenities.Get)
		amenities.PUT("/:id", h.Amenities.Update)
		amenities.DELETE("/:id", h.Amenities.Delete)
		amenities.POST("/:id/photo", h.Amenities.UploadPhoto)
	}
	if h.Bookings != nil {
		items := api.Group("/calendar/items")
		items.POST("", h.Bookings.Request)
		items.PATCH("/:id", h.Bookings.Edit)
		items.POST("/:id/status", h.Bookings.UpdateStatus)
		items.POST("/:id/cancel", h.Bookings.Cancel)
	}
	if h.Agenda != nil {
		api.GET("/calendar/month", h.Agenda.Month)
		api.GET("/calendar/items", h.Agenda.ListAll)
		api.GET("/calendar/items/:id", h.Agenda.Item)
		api.GET("/me/calendar", h.Agenda.ListMine)
		api.GET("/bulletin", h.Agenda.Bulletin)
	}
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key",
			HeaderUserID, HeaderCommunityID, HeaderUnitIDs, HeaderRole,
		},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			obs.RequestIDHeader,
		},
		MaxAge: 12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
