package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"shareit/internal/infra/config"
	"shareit/internal/infra/obs"
)

type BookingHTTP interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	Transition(c *gin.Context)
	Rate(c *gin.Context)
}

type AvailabilityHTTP interface {
	BlockedDates(c *gin.Context)
	Validate(c *gin.Context)
	Calendar(c *gin.Context)
}

type ItemHTTP interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

type MeHTTP interface {
	ListBookings(c *gin.Context)
	ListItems(c *gin.Context)
	ListNotifications(c *gin.Context)
}

type AdminHTTP interface {
	Sweep(c *gin.Context)
}

type Handlers struct {
	Booking        BookingHTTP
	Availability   AvailabilityHTTP
	Item           ItemHTTP
	Me             MeHTTP
	Admin          AdminHTTP
	AuthMiddleware gin.HandlerFunc
	// WriteLimit guards mutating routes. Optional.
	WriteLimit gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(obsMW.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	write := h.WriteLimit
	if write == nil {
		write = func(c *gin.Context) { c.Next() }
	}

	api := router.Group("/api/v1")
	if h.Booking != nil {
		api.POST("/bookings", write, h.Booking.Create)
		api.GET("/bookings/:id", h.Booking.Get)
		api.POST("/bookings/:id/transition", write, h.Booking.Transition)
		api.POST("/bookings/:id/rating", write, h.Booking.Rate)
	}
	if h.Item != nil {
		api.POST("/items", write, h.Item.Create)
		api.GET("/items/:id", h.Item.Get)
		api.PUT("/items/:id", write, h.Item.Update)
		api.DELETE("/items/:id", write, h.Item.Delete)
	}
	if h.Availability != nil {
		api.GET("/items/:id/blocked-dates", h.Availability.BlockedDates)
		api.POST("/items/:id/validate", h.Availability.Validate)
		api.GET("/items/:id/calendar.ics", h.Availability.Calendar)
	}
	if h.Me != nil {
		meGroup := api.Group("/me")
		meGroup.GET("/bookings", h.Me.ListBookings)
		meGroup.GET("/items", h.Me.ListItems)
		meGroup.GET("/notifications", h.Me.ListNotifications)
	}
	if h.Admin != nil {
		api.POST("/admin/sweep", h.Admin.Sweep)
	}
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
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
