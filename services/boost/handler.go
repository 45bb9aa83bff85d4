package boost

import (
	"net/http"

	"virtual-economy/pkg/errutil"
	"virtual-economy/pkg/middleware"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type purchaseRequest struct {
	Tier string `json:"tier" binding:"required"`
}

func (h *Handler) Tiers(c *gin.Context) {
	result, err := h.service.GetTiersForUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) Purchase(c *gin.Context) {
	userID, err := middleware.RequireUser(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	boost, err := h.service.Purchase(c.Request.Context(), userID, c.Param("id"), req.Tier)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, boost)
}
