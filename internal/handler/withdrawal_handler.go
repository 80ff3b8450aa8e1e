package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"agendo-api/internal/middleware"
	"agendo-api/internal/model"
	"agendo-api/internal/notify"
)

type withdrawalRequest struct {
	AmountCents int64  `json:"amount" binding:"required,gt=0"`
	PixKey      string `json:"pixKey" binding:"required,max=140"`
}

type withdrawalUpdate struct {
	Status model.WithdrawalStatus `json:"status" binding:"required,oneof=processing paid rejected"`
	Notes  string                 `json:"adminNotes" binding:"max=500"`
}

func (h *Handler) Balance(c *gin.Context) {
	b, err := h.store.ProviderBalance(c.Request.Context(), middleware.UserID(c), h.opts.PlatformFeePercent)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) CreateWithdrawal(c *gin.Context) {
	var req withdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bad(c, err)
		return
	}
	if req.AmountCents < h.opts.MinWithdrawalCents {
		abort(c, http.StatusUnprocessableEntity,
			fmt.Sprintf("minimum withdrawal is %d cents", h.opts.MinWithdrawalCents))
		return
	}
	w := &model.Withdrawal{
		ID:          uuid.NewString(),
		ProviderID:  middleware.UserID(c),
		AmountCents: req.AmountCents,
		PixKey:      req.PixKey,
		Status:      model.WithdrawalPending,
	}
	// balance is checked inside the insert transaction
	if err := h.store.CreateWithdrawal(c.Request.Context(), w, h.opts.PlatformFeePercent); err != nil {
		h.fail(c, err)
		return
	}
	h.log.Info("withdrawal requested", zap.String("withdrawal_id", w.ID), zap.Int64("amount", w.AmountCents))
	c.JSON(http.StatusCreated, w)
}

func (h *Handler) withdrawalStatus(c *gin.Context) (model.WithdrawalStatus, bool) {
	s := model.WithdrawalStatus(c.Query("status"))
	if s == "" || s.Valid() {
		return s, true
	}
	abort(c, http.StatusBadRequest, "invalid status")
	return "", false
}

func (h *Handler) MyWithdrawals(c *gin.Context) {
	s, ok := h.withdrawalStatus(c)
	if !ok {
		return
	}
	out, err := h.store.ListWithdrawals(c.Request.Context(), middleware.UserID(c), s)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(out))
}

func (h *Handler) AdminWithdrawals(c *gin.Context) {
	s, ok := h.withdrawalStatus(c)
	if !ok {
		return
	}
	out, err := h.store.ListWithdrawals(c.Request.Context(), "", s)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(out))
}

// UpdateWithdrawal moves a request along pending, processing, paid. Rejecting
// it returns the amount to the provider's balance.
func (h *Handler) UpdateWithdrawal(c *gin.Context) {
	var req withdrawalUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		bad(c, err)
		return
	}
	ctx := c.Request.Context()

	w, err := h.store.Withdrawal(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := model.CanTransitionWithdrawal(w.Status, req.Status); err != nil {
		h.fail(c, err)
		return
	}
	updated, err := h.store.UpdateWithdrawalStatus(ctx, w.ID, w.Status, req.Status, req.Notes)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.log.Info("withdrawal updated",
		zap.String("withdrawal_id", updated.ID),
		zap.String("status", string(updated.Status)),
		zap.String("admin_id", middleware.UserID(c)))
	h.send(notify.WithdrawalUpdated(updated))
	c.JSON(http.StatusOK, updated)
}
