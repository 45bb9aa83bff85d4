package dailyreward

import (
	"virtual-economy/pkg/httpapi"

	"go.uber.org/fx"
)

var Module = fx.Module("dailyreward.service",
	fx.Provide(NewService),
)

var Routes = fx.Module("dailyreward.routes",
	fx.Provide(NewHandler),
	fx.Invoke(RegisterRoutes),
)

func RegisterRoutes(r *httpapi.Router, h *Handler) {
	daily := r.V1.Group("/rewards/daily")
	daily.POST("/claim", h.Claim)
	daily.GET("", h.Status)
}
