package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agendo-api/internal/model"
	"agendo-api/internal/notify"
	"agendo-api/internal/payment"
	"agendo-api/internal/schedule"
	"agendo-api/internal/slots"
	"agendo-api/internal/store"
	"agendo-api/internal/whatsapp"
)

type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	UserByID(ctx context.Context, id string) (*model.User, error)
	ListUsers(ctx context.Context, role model.Role, limit, offset int) ([]model.User, error)
	SetUserFlags(ctx context.Context, id string, active, verified *bool) (*model.User, error)

	CreateRefreshToken(ctx context.Context, id, userID, tokenHash string, expiresAt time.Time) error
	RefreshTokenByHash(ctx context.Context, tokenHash string) (*store.RefreshToken, error)
	RotateRefreshToken(ctx context.Context, oldID, newID, userID, newHash string, newExpiry time.Time) error
	RevokeAllRefreshTokens(ctx context.Context, userID string) error
}

type CatalogStore interface {
	CreateNiche(ctx context.Context, n *model.Niche) error
	ListNiches(ctx context.Context) ([]model.Niche, error)
	CreateCategory(ctx context.Context, c *model.Category) error
	ListCategories(ctx context.Context, nicheID string) ([]model.Category, error)
	CreateServiceTemplate(ctx context.Context, t *model.ServiceTemplate) error
	ServiceTemplate(ctx context.Context, id string) (*model.ServiceTemplate, error)
	ListServiceTemplates(ctx context.Context, categoryID string) ([]model.ServiceTemplate, error)

	CreateProviderService(ctx context.Context, p *model.ProviderService) error
	ProviderService(ctx context.Context, id string) (*model.ProviderService, error)
	ListProviderServices(ctx context.Context, providerID string, activeOnly bool) ([]model.ProviderService, error)
	UpdateProviderService(ctx context.Context, p *model.ProviderService) error
	DeleteProviderService(ctx context.Context, id, providerID string) error
	ListProviders(ctx context.Context, categoryID string) ([]store.ProviderSummary, error)
}

type BookingStore interface {
	ListAvailability(ctx context.Context, providerID string) ([]model.Availability, error)
	ReplaceAvailability(ctx context.Context, providerID string, rows []model.Availability) error
	CreateBlockedSlot(ctx context.Context, b *model.BlockedSlot) error
	DeleteBlockedSlot(ctx context.Context, id, providerID string) error

	CreateAppointment(ctx context.Context, a *model.Appointment) error
	Appointment(ctx context.Context, id string) (*model.Appointment, error)
	ListAppointments(ctx context.Context, f store.AppointmentFilter) ([]model.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id string, from, to model.AppointmentStatus) (*model.Appointment, error)

	CreateReview(ctx context.Context, r *model.Review) error
	ListReviews(ctx context.Context, providerID string, limit int) ([]model.Review, error)
	ProviderRating(ctx context.Context, providerID string) (model.Rating, error)
}

type MoneyStore interface {
	CreatePayment(ctx context.Context, p *model.Payment) error
	ApplyPaymentStatus(ctx context.Context, gateway, externalID string, next model.PaymentStatus) (*model.Payment, bool, error)
	SetAppointmentPayment(ctx context.Context, id string, status model.PaymentStatus, method string) error

	ProviderBalance(ctx context.Context, providerID string, feePercent int) (model.Balance, error)
	CreateWithdrawal(ctx context.Context, w *model.Withdrawal, feePercent int) error
	Withdrawal(ctx context.Context, id string) (*model.Withdrawal, error)
	ListWithdrawals(ctx context.Context, providerID string, status model.WithdrawalStatus) ([]model.Withdrawal, error)
	UpdateWithdrawalStatus(ctx context.Context, id string, from, to model.WithdrawalStatus, notes string) (*model.Withdrawal, error)
}

type NotificationStore interface {
	ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error)
}

// Store is everything the HTTP API reads and writes. *store.Store satisfies it.
type Store interface {
	UserStore
	CatalogStore
	BookingStore
	MoneyStore
	NotificationStore
	Ping(ctx context.Context) error
}

type Gateways interface {
	Get(name string) (payment.Gateway, error)
}

type Notifier interface {
	Enqueue(m notify.Message) error
}

type Options struct {
	Secret             string
	Location           *time.Location
	PlatformFeePercent int
	MinWithdrawalCents int64
}

type Handler struct {
	store    Store
	planner  *schedule.Planner
	gateways Gateways
	notify   Notifier
	opts     Options
	log      *zap.Logger
}

func New(st Store, planner *schedule.Planner, gw Gateways, n Notifier, opts Options, log *zap.Logger) *Handler {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Handler{store: st, planner: planner, gateways: gw, notify: n, opts: opts, log: log}
}

type errorResponse struct {
	Error string `json:"error"`
}

func abort(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, errorResponse{Error: msg})
}

// fail maps package errors to responses. Anything unknown is logged and
// reported as a 500 without detail.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, schedule.ErrNoService):
		abort(c, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrSlotTaken):
		abort(c, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrConflict):
		abort(c, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrStale):
		abort(c, http.StatusConflict, "changed by another request, reload and retry")
	case errors.Is(err, model.ErrBadTransition):
		abort(c, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrInsufficientBalance):
		abort(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, slots.ErrBadClock), errors.Is(err, slots.ErrBadDuration):
		abort(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, whatsapp.ErrBadPhone):
		abort(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, payment.ErrUnknownGateway):
		abort(c, http.StatusBadRequest, err.Error())
	default:
		_ = c.Error(err)
		h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		abort(c, http.StatusInternalServerError, "internal error")
	}
}

func bad(c *gin.Context, err error) {
	abort(c, http.StatusBadRequest, err.Error())
}

func (h *Handler) send(m notify.Message) {
	if h.notify == nil {
		return
	}
	if err := h.notify.Enqueue(m); err != nil {
		h.log.Warn("notification not queued", zap.String("type", m.Type), zap.Error(err))
	}
}

func queryInt(c *gin.Context, key string, def, max int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		h.log.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
