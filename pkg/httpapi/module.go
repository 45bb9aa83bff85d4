package httpapi

import (
	"virtual-economy/pkg/config"
	"virtual-economy/pkg/health"
	"virtual-economy/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("httpapi",
	fx.Provide(NewRouter),
	fx.Invoke(registerHealthEndpoints),
)

// Router holds the gin engine and the versioned route group services mount on.
type Router struct {
	Engine *gin.Engine
	V1     *gin.RouterGroup
}

func NewEngine(cfg *config.Config) *gin.Engine {
	if cfg != nil && cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.UserID(),
		middleware.Error(),
	)
	return r
}

func NewRouter(cfg *config.Config) (*Router, *gin.Engine) {
	engine := NewEngine(cfg)
	return &Router{Engine: engine, V1: engine.Group("/v1")}, engine
}

func registerHealthEndpoints(r *Router, h health.HealthService) {
	r.Engine.GET("/healthz", h.Liveness)
	r.Engine.GET("/readyz", h.Readiness)
	r.Engine.GET("/metrics", h.Metrics)
}
