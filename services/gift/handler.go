package gift

import (
	"context"
	"net/http"

	"virtual-economy/pkg/db/pagination"
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

type sendRequest struct {
	ReceiverID   string  `json:"receiver_id" binding:"required"`
	SubmissionID string  `json:"submission_id" binding:"required"`
	GiftID       string  `json:"gift_id" binding:"required"`
	Message      *string `json:"message"`
}

func (h *Handler) Catalog(c *gin.Context) {
	entries, err := h.service.ListCatalog(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": entries})
}

func (h *Handler) Send(c *gin.Context) {
	senderID, err := middleware.RequireUser(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	view, err := h.service.SendGift(c.Request.Context(), SendGiftInput{
		SenderID:     senderID,
		ReceiverID:   req.ReceiverID,
		SubmissionID: req.SubmissionID,
		GiftID:       req.GiftID,
		Message:      req.Message,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

type listFunc func(ctx context.Context, id string, page pagination.Pagination) (pagination.Page[*View], error)

func (h *Handler) Received(c *gin.Context) {
	h.listForUser(c, h.service.ListReceived)
}

func (h *Handler) Sent(c *gin.Context) {
	h.listForUser(c, h.service.ListSent)
}

func (h *Handler) SubmissionGifts(c *gin.Context) {
	h.list(c, c.Param("id"), h.service.ListSubmissionGifts)
}

func (h *Handler) listForUser(c *gin.Context, fn listFunc) {
	userID, err := middleware.RequireUser(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.list(c, userID, fn)
}

func (h *Handler) list(c *gin.Context, id string, fn listFunc) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		_ = c.Error(errutil.BadRequest("invalid pagination", err))
		return
	}

	out, err := fn(c.Request.Context(), id, page)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, out)
}
