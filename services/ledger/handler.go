package ledger

import (
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

type mutateRequest struct {
	UserID      string          `json:"user_id" binding:"required"`
	Amount      int64           `json:"amount"`
	Type        TransactionType `json:"type" binding:"required"`
	ReferenceID string          `json:"reference_id"`
	Description string          `json:"description"`
}

func (r mutateRequest) params() Params {
	return Params{
		UserID:      r.UserID,
		Amount:      r.Amount,
		Type:        r.Type,
		ReferenceID: r.ReferenceID,
		Description: r.Description,
	}
}

func (h *Handler) GetBalance(c *gin.Context) {
	userID, err := middleware.RequireUser(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	balance, err := h.service.GetBalance(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, balance)
}

func (h *Handler) ListTransactions(c *gin.Context) {
	userID, err := middleware.RequireUser(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		_ = c.Error(errutil.BadRequest("invalid pagination", err))
		return
	}

	out, err := h.service.ListTransactions(c.Request.Context(), userID, page)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, out)
}

func (h *Handler) Credit(c *gin.Context) {
	var req mutateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	entry, err := h.service.Credit(c.Request.Context(), req.params())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

func (h *Handler) Debit(c *gin.Context) {
	var req mutateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	entry, err := h.service.Debit(c.Request.Context(), req.params())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

func (h *Handler) VerifyReplay(c *gin.Context) {
	report, err := h.service.VerifyReplay(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, report)
}
