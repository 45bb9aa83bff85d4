package boost

import (
	"virtual-economy/pkg/httpapi"

	"go.uber.org/fx"
)

var Module = fx.Module("boost.service",
	fx.Provide(NewService),
)

var Routes = fx.Module("boost.routes",
	fx.Provide(NewHandler),
	fx.Invoke(RegisterRoutes),
)

func RegisterRoutes(r *httpapi.Router, h *Handler) {
	r.V1.GET("/boosts/tiers", h.Tiers)
	r.V1.POST("/submissions/:id/boosts", h.Purchase)
}
