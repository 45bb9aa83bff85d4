package adreward

import (
	"virtual-economy/pkg/httpapi"

	"go.uber.org/fx"
)

var Module = fx.Module("adreward.service",
	fx.Provide(NewService),
)

var Routes = fx.Module("adreward.routes",
	fx.Provide(NewHandler),
	fx.Invoke(RegisterRoutes),
)

func RegisterRoutes(r *httpapi.Router, h *Handler) {
	ads := r.V1.Group("/ads")
	ads.POST("/events", h.LogEvent)
	ads.POST("/rewards/claim", h.Claim)
	ads.GET("/stats", h.Stats)
}
