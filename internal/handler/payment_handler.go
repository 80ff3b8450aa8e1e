package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"agendo-api/internal/middleware"
	"agendo-api/internal/model"
	"agendo-api/internal/notify"
	"agendo-api/internal/payment"
	"agendo-api/internal/store"
)

const maxWebhookBody = 64 << 10

type paymentRequest struct {
	Method string `json:"method" binding:"required,oneof=stripe asaas"`
}

// CreatePayment opens a charge for the caller's appointment on the chosen
// gateway.
func (h *Handler) CreatePayment(c *gin.Context) {
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bad(c, err)
		return
	}
	a, ok := h.visible(c, c.Param("id"))
	if !ok {
		return
	}
	if a.ClientID != middleware.UserID(c) {
		abort(c, http.StatusForbidden, "only the client pays for an appointment")
		return
	}
	if !a.Status.Payable() {
		abort(c, http.StatusConflict, "appointment is "+string(a.Status))
		return
	}
	if a.PaymentStatus == model.PaymentPaid || a.PaymentStatus == model.PaymentRefunded {
		abort(c, http.StatusConflict, "appointment already paid")
		return
	}
	gw, err := h.gateways.Get(req.Method)
	if err != nil {
		h.fail(c, err)
		return
	}
	ctx := c.Request.Context()

	client, err := h.store.UserByID(ctx, a.ClientID)
	if err != nil {
		h.fail(c, err)
		return
	}
	res, err := gw.CreateCharge(ctx, payment.Charge{
		AppointmentID: a.ID,
		AmountCents:   a.TotalCents,
		Description:   fmt.Sprintf("Agendamento %s", a.StartTime.In(h.opts.Location).Format("02/01/2006 15:04")),
		CustomerName:  client.Name,
		CustomerEmail: client.Email,
		DueDate:       a.StartTime,
		Location:      h.opts.Location,
	})
	if err != nil {
		h.log.Error("create charge", zap.String("gateway", gw.Name()), zap.String("appointment_id", a.ID), zap.Error(err))
		abort(c, http.StatusBadGateway, "payment gateway unavailable")
		return
	}

	p := &model.Payment{
		ID:            uuid.NewString(),
		AppointmentID: a.ID,
		Gateway:       res.Gateway,
		ExternalID:    res.ExternalID,
		AmountCents:   a.TotalCents,
		Status:        res.Status,
	}
	// a retried request returns the same external id from Stripe
	if err := h.store.CreatePayment(ctx, p); err != nil && !errors.Is(err, store.ErrConflict) {
		h.fail(c, err)
		return
	}
	if err := h.store.SetAppointmentPayment(ctx, a.ID, model.PaymentPending, gw.Name()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// Webhook receives gateway callbacks. Replays and unknown payments answer 200
// so the gateway stops retrying.
func (h *Handler) Webhook(c *gin.Context) {
	gw, err := h.gateways.Get(c.Param("gateway"))
	if err != nil {
		abort(c, http.StatusNotFound, "not found")
		return
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		bad(c, err)
		return
	}
	ev, err := gw.ParseWebhook(body, c.Request.Header)
	if err != nil {
		h.log.Warn("webhook rejected", zap.String("gateway", gw.Name()), zap.Error(err))
		if errors.Is(err, payment.ErrBadSignature) {
			abort(c, http.StatusUnauthorized, "invalid signature")
			return
		}
		bad(c, err)
		return
	}
	if ev.Status == "" || ev.ExternalID == "" {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	ctx := c.Request.Context()
	p, changed, err := h.store.ApplyPaymentStatus(ctx, ev.Gateway, ev.ExternalID, ev.Status)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.log.Warn("webhook for unknown payment", zap.String("gateway", ev.Gateway), zap.String("external_id", ev.ExternalID))
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}
		h.fail(c, err)
		return
	}
	h.log.Info("payment webhook",
		zap.String("gateway", ev.Gateway),
		zap.String("event", ev.Type),
		zap.String("status", string(p.Status)),
		zap.Bool("changed", changed))

	if changed && p.Status == model.PaymentPaid {
		if a, err := h.store.Appointment(ctx, p.AppointmentID); err == nil {
			h.send(notify.PaymentConfirmed(a, h.opts.Location))
		}
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
