package ledger

import (
	"virtual-economy/pkg/httpapi"

	"go.uber.org/fx"
)

var Module = fx.Module("ledger.service",
	fx.Provide(NewService),
)

var Routes = fx.Module("ledger.routes",
	fx.Provide(NewHandler),
	fx.Invoke(RegisterRoutes),
)

func RegisterRoutes(r *httpapi.Router, h *Handler) {
	coins := r.V1.Group("/coins")
	coins.GET("/balance", h.GetBalance)
	coins.GET("/transactions", h.ListTransactions)

	internal := r.V1.Group("/internal/coins")
	internal.POST("/credit", h.Credit)
	internal.POST("/debit", h.Debit)
	internal.GET("/:user_id/verify", h.VerifyReplay)
}
