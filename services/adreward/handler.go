package adreward

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

type claimRequest struct {
	AdType    string `json:"ad_type" binding:"required"`
	Placement string `json:"placement" binding:"required"`
}

func (h *Handler) LogEvent(c *gin.Context) {
	var in EventInput
	if err := c.ShouldBindJSON(&in); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", err))
		return
	}
	in.UserID = middleware.GetUserID(c)

	event, err := h.service.LogAdEvent(c.Request.Context(), in)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, event)
}

func (h *Handler) Claim(c *gin.Context) {
	userID, err := middleware.RequireUser(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req claimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	result, err := h.service.ClaimAdReward(c.Request.Context(), userID, req.AdType, req.Placement)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) Stats(c *gin.Context) {
	userID, err := middleware.RequireUser(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	stats, err := h.service.GetDailyAdStats(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
