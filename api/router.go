package api

import (
	"github.com/gin-gonic/gin"
	"github.com/use-agent/pagedrop/api/handler"
	"github.com/use-agent/pagedrop/api/middleware"
	"github.com/use-agent/pagedrop/config"
	"github.com/use-agent/pagedrop/process"
)

// NewRouter creates the backend's gin engine.
//
// Middleware chain:
//
//	Global:     Recovery → Logger → CORS
//	Submission: Auth (if enabled) → RateLimit
//
// The greeting and health routes stay outside auth so health checks always work.
func NewRouter(proc *process.Processor, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.CORS())

	r.GET("/", handler.Root())

	api := r.Group("/api")
	api.GET("/", handler.APIRoot())
	api.GET("/health-check", handler.HealthCheck())

	submit := func(g *gin.RouterGroup) *gin.RouterGroup {
		if cfg.Auth.Enabled {
			g.Use(middleware.Auth(cfg.Auth.APIKeys))
		}
		g.Use(middleware.RateLimit(cfg.RateLimit))
		return g
	}

	raw := handler.ProcessRaw(proc, cfg.Server.MaxBodyBytes)
	submit(r.Group("")).POST("/", raw)
	protected := submit(api.Group(""))
	protected.POST("", raw)
	protected.POST("/process_html", handler.ProcessJSON(proc, cfg.Server.MaxBodyBytes))

	r.OPTIONS("/*path", middleware.Preflight("GET, POST, OPTIONS"))
	return r
}
