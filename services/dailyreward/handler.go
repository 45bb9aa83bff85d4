package dailyreward

import (
	"net/http"

	"virtual-economy/pkg/middleware"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Claim(c *gin.Context) {
	userID, err := middleware.RequireUser(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	result, err := h.service.Claim(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) Status(c *gin.Context) {
	userID, err := middleware.RequireUser(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	status, err := h.service.Status(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, status)
}
