package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"agendo-api/internal/middleware"
	"agendo-api/internal/model"
	"agendo-api/internal/slots"
)

type availabilityRow struct {
	DayOfWeek       int     `json:"dayOfWeek" binding:"min=0,max=6"`
	Date            *string `json:"date"`
	StartTime       string  `json:"startTime" binding:"required"`
	EndTime         string  `json:"endTime" binding:"required"`
	IntervalMinutes int     `json:"intervalMinutes" binding:"min=0,max=720"`
	IsAvailable     *bool   `json:"isAvailable"`
}

type availabilityRequest struct {
	Availability []availabilityRow `json:"availability" binding:"dive"`
}

type blockedSlotRequest struct {
	StartTime time.Time `json:"startTime" binding:"required"`
	EndTime   time.Time `json:"endTime" binding:"required"`
	Reason    string    `json:"reason" binding:"max=200"`
}

type slotView struct {
	Start time.Time `json:"startTime"`
	End   time.Time `json:"endTime"`
	Label string    `json:"time"`
}

func (h *Handler) ProviderAvailability(c *gin.Context) {
	out, err := h.store.ListAvailability(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(out))
}

// toAvailability checks one row and converts it. Clock values are kept as
// sent; the slot calculator reads them the same way Postgres stores them.
func (h *Handler) toAvailability(providerID string, r availabilityRow) (model.Availability, error) {
	start, err := slots.ParseClock(r.StartTime)
	if err != nil {
		return model.Availability{}, err
	}
	end, err := slots.ParseClock(r.EndTime)
	if err != nil {
		return model.Availability{}, err
	}
	if end <= start {
		return model.Availability{}, fmt.Errorf("%w: end %s is not after start %s", slots.ErrBadClock, r.EndTime, r.StartTime)
	}
	a := model.Availability{
		ID:              uuid.NewString(),
		ProviderID:      providerID,
		DayOfWeek:       r.DayOfWeek,
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		IntervalMinutes: r.IntervalMinutes,
		IsAvailable:     r.IsAvailable == nil || *r.IsAvailable,
	}
	if r.Date != nil && *r.Date != "" {
		d, err := slots.ParseDate(*r.Date, h.opts.Location)
		if err != nil {
			return model.Availability{}, fmt.Errorf("invalid date %q", *r.Date)
		}
		key := slots.FormatDate(d, h.opts.Location)
		a.Date = &key
		a.DayOfWeek = int(d.Weekday())
	}
	return a, nil
}

// ReplaceAvailability swaps the caller's whole schedule for the one sent.
func (h *Handler) ReplaceAvailability(c *gin.Context) {
	var req availabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bad(c, err)
		return
	}
	uid := middleware.UserID(c)
	rows := make([]model.Availability, 0, len(req.Availability))
	for i, r := range req.Availability {
		a, err := h.toAvailability(uid, r)
		if err != nil {
			abort(c, http.StatusBadRequest, fmt.Sprintf("availability[%d]: %v", i, err))
			return
		}
		rows = append(rows, a)
	}
	if err := h.store.ReplaceAvailability(c.Request.Context(), uid, rows); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *Handler) CreateBlockedSlot(c *gin.Context) {
	var req blockedSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bad(c, err)
		return
	}
	if !req.EndTime.After(req.StartTime) {
		abort(c, http.StatusBadRequest, "endTime must be after startTime")
		return
	}
	b := &model.BlockedSlot{
		ID:         uuid.NewString(),
		ProviderID: middleware.UserID(c),
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Reason:     req.Reason,
	}
	if err := h.store.CreateBlockedSlot(c.Request.Context(), b); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *Handler) DeleteBlockedSlot(c *gin.Context) {
	if err := h.store.DeleteBlockedSlot(c.Request.Context(), c.Param("id"), middleware.UserID(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AvailableSlots answers GET /api/time-slots/available.
func (h *Handler) AvailableSlots(c *gin.Context) {
	providerID, serviceID, date := c.Query("providerId"), c.Query("serviceId"), c.Query("date")
	if providerID == "" || serviceID == "" || date == "" {
		abort(c, http.StatusBadRequest, "providerId, serviceId and date are required")
		return
	}
	if _, err := slots.ParseDate(date, h.opts.Location); err != nil {
		abort(c, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	got, svc, err := h.planner.Available(c.Request.Context(), providerID, serviceID, date)
	if err != nil {
		h.fail(c, err)
		return
	}
	views := make([]slotView, 0, len(got))
	for _, s := range got {
		views = append(views, slotView{Start: s.Start, End: s.End, Label: s.Label(h.opts.Location)})
	}
	c.JSON(http.StatusOK, gin.H{
		"date":     date,
		"duration": svc.DurationMinutes,
		"slots":    views,
	})
}
