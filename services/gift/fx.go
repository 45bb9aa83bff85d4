package gift

import (
	"virtual-economy/pkg/httpapi"

	"go.uber.org/fx"
)

var Module = fx.Module("gift.service",
	fx.Provide(NewService),
)

var Routes = fx.Module("gift.routes",
	fx.Provide(NewHandler),
	fx.Invoke(RegisterRoutes),
)

func RegisterRoutes(r *httpapi.Router, h *Handler) {
	gifts := r.V1.Group("/gifts")
	gifts.GET("/catalog", h.Catalog)
	gifts.POST("", h.Send)
	gifts.GET("/received", h.Received)
	gifts.GET("/sent", h.Sent)

	r.V1.GET("/submissions/:id/gifts", h.SubmissionGifts)
}
