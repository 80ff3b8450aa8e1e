package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"agendo-api/internal/middleware"
	"agendo-api/internal/model"
	"agendo-api/internal/notify"
	"agendo-api/internal/slots"
	"agendo-api/internal/store"
)

type createAppointmentRequest struct {
	ProviderID string    `json:"providerId" binding:"required"`
	ServiceID  string    `json:"serviceId" binding:"required"`
	StartTime  time.Time `json:"startTime" binding:"required"`
	Notes      string    `json:"notes" binding:"max=500"`
}

type statusRequest struct {
	Status model.AppointmentStatus `json:"status" binding:"required"`
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var req createAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bad(c, err)
		return
	}
	uid := middleware.UserID(c)
	if req.ProviderID == uid {
		abort(c, http.StatusBadRequest, "cannot book with yourself")
		return
	}
	ctx := c.Request.Context()

	// The slot must be one the calculator offers right now. This rejects
	// past, off-grid and already taken times with one rule.
	ok, svc, err := h.planner.Offered(ctx, req.ProviderID, req.ServiceID, req.StartTime)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !ok {
		abort(c, http.StatusConflict, "time slot not available")
		return
	}

	a := &model.Appointment{
		ID:                uuid.NewString(),
		ClientID:          uid,
		ProviderID:        req.ProviderID,
		ProviderServiceID: svc.ID,
		StartTime:         req.StartTime,
		EndTime:           req.StartTime.Add(time.Duration(svc.DurationMinutes) * time.Minute),
		Status:            model.StatusPending,
		PaymentStatus:     model.PaymentPending,
		TotalCents:        svc.PriceCents,
		Notes:             req.Notes,
	}
	// the store re-checks overlap under a lock, a concurrent booking of the
	// same slot ends up here as ErrSlotTaken
	if err := h.store.CreateAppointment(ctx, a); err != nil {
		h.fail(c, err)
		return
	}

	h.log.Info("appointment booked",
		zap.String("appointment_id", a.ID),
		zap.String("provider_id", a.ProviderID),
		zap.Time("start", a.StartTime))
	h.send(notify.AppointmentCreated(a, svc.Name, h.opts.Location))
	c.JSON(http.StatusCreated, a)
}

func (h *Handler) ListAppointments(c *gin.Context) {
	f := store.AppointmentFilter{
		UserID: middleware.UserID(c),
		Role:   middleware.Role(c),
		Status: model.AppointmentStatus(c.Query("status")),
	}
	if f.Status != "" && !f.Status.Valid() {
		abort(c, http.StatusBadRequest, "invalid status")
		return
	}
	var err error
	if f.From, err = h.timeParam(c.Query("from"), false); err != nil {
		bad(c, err)
		return
	}
	if f.To, err = h.timeParam(c.Query("to"), true); err != nil {
		bad(c, err)
		return
	}

	out, err := h.store.ListAppointments(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(out))
}

// timeParam accepts RFC 3339 or a local YYYY-MM-DD. A date used as an upper
// bound means the end of that day.
func (h *Handler) timeParam(v string, end bool) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	d, err := slots.ParseDate(v, h.opts.Location)
	if err != nil {
		return time.Time{}, err
	}
	if end {
		d = d.AddDate(0, 0, 1)
	}
	return d, nil
}

// visible loads an appointment the caller takes part in. Other users get a
// 404 so ids cannot be probed.
func (h *Handler) visible(c *gin.Context, id string) (*model.Appointment, bool) {
	a, err := h.store.Appointment(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	uid := middleware.UserID(c)
	if middleware.Role(c) != model.RoleAdmin && a.ClientID != uid && a.ProviderID != uid {
		abort(c, http.StatusNotFound, "not found")
		return nil, false
	}
	return a, true
}

func (h *Handler) GetAppointment(c *gin.Context) {
	a, ok := h.visible(c, c.Param("id"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, a)
}

// actingRole is the part the caller plays in a. An admin who is also a party
// acts as admin.
func actingRole(c *gin.Context, a *model.Appointment) model.Role {
	if middleware.Role(c) == model.RoleAdmin {
		return model.RoleAdmin
	}
	if a.ProviderID == middleware.UserID(c) {
		return model.RoleProvider
	}
	return model.RoleClient
}

func (h *Handler) UpdateAppointmentStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bad(c, err)
		return
	}
	if !req.Status.Valid() {
		abort(c, http.StatusBadRequest, "invalid status")
		return
	}
	a, ok := h.visible(c, c.Param("id"))
	if !ok {
		return
	}
	role := actingRole(c, a)
	if err := model.CanTransition(a.Status, req.Status, role); err != nil {
		h.fail(c, err)
		return
	}
	updated, err := h.store.UpdateAppointmentStatus(c.Request.Context(), a.ID, a.Status, req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}

	// tell whoever did not make the change
	recipient := updated.ClientID
	if role == model.RoleClient {
		recipient = updated.ProviderID
	}
	h.send(notify.AppointmentStatus(updated, recipient, h.opts.Location))
	c.JSON(http.StatusOK, updated)
}
