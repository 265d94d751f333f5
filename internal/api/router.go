package api

import (
	"log/slog"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type RouterOptions struct {
	RateLimitRPS float64 // zero disables rate limiting
	StaticDir    string  // served under /data when set
	Logger       *slog.Logger
}

func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.Use(Recovery(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	if opts.RateLimitRPS > 0 {
		router.Use(RateLimitMiddleware(opts.RateLimitRPS))
	}
	if opts.StaticDir != "" {
		router.Static("/data", opts.StaticDir)
	}

	h.RegisterRoutes(router)
	return router
}
