package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/stretchr/testify/mock"

	"agendo-api/internal/model"
	"agendo-api/internal/notify"
	"agendo-api/internal/payment"
	"agendo-api/internal/store"
)

// mockStore mocks the store methods the tests exercise. Calling anything else
// panics on the nil embedded Store.
type mockStore struct {
	mock.Mock
	Store
}

func (m *mockStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) CreateUser(ctx context.Context, u *model.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockStore) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockStore) UserByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockStore) CreateRefreshToken(ctx context.Context, id, userID, tokenHash string, expiresAt time.Time) error {
	return m.Called(ctx, id, userID, tokenHash, expiresAt).Error(0)
}

func (m *mockStore) RefreshTokenByHash(ctx context.Context, tokenHash string) (*store.RefreshToken, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.RefreshToken), args.Error(1)
}

func (m *mockStore) RotateRefreshToken(ctx context.Context, oldID, newID, userID, newHash string, newExpiry time.Time) error {
	return m.Called(ctx, oldID, newID, userID, newHash, newExpiry).Error(0)
}

func (m *mockStore) RevokeAllRefreshTokens(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockStore) ListProviderServices(ctx context.Context, providerID string, activeOnly bool) ([]model.ProviderService, error) {
	args := m.Called(ctx, providerID, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ProviderService), args.Error(1)
}

func (m *mockStore) ProviderService(ctx context.Context, id string) (*model.ProviderService, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProviderService), args.Error(1)
}

func (m *mockStore) ListAvailability(ctx context.Context, providerID string) ([]model.Availability, error) {
	args := m.Called(ctx, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Availability), args.Error(1)
}

func (m *mockStore) ReplaceAvailability(ctx context.Context, providerID string, rows []model.Availability) error {
	return m.Called(ctx, providerID, rows).Error(0)
}

// ProviderBusy and BlockedSlots are not part of Store; the planner reads
// them through schedule.Source.
func (m *mockStore) ProviderBusy(ctx context.Context, providerID string, from, to time.Time) ([]model.Appointment, error) {
	args := m.Called(ctx, providerID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Appointment), args.Error(1)
}

func (m *mockStore) BlockedSlots(ctx context.Context, providerID string, from, to time.Time) ([]model.BlockedSlot, error) {
	args := m.Called(ctx, providerID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.BlockedSlot), args.Error(1)
}

func (m *mockStore) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockStore) Appointment(ctx context.Context, id string) (*model.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appointment), args.Error(1)
}

func (m *mockStore) UpdateAppointmentStatus(ctx context.Context, id string, from, to model.AppointmentStatus) (*model.Appointment, error) {
	args := m.Called(ctx, id, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appointment), args.Error(1)
}

func (m *mockStore) CreatePayment(ctx context.Context, p *model.Payment) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockStore) SetAppointmentPayment(ctx context.Context, id string, status model.PaymentStatus, method string) error {
	return m.Called(ctx, id, status, method).Error(0)
}

func (m *mockStore) ApplyPaymentStatus(ctx context.Context, gateway, externalID string, next model.PaymentStatus) (*model.Payment, bool, error) {
	args := m.Called(ctx, gateway, externalID, next)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*model.Payment), args.Bool(1), args.Error(2)
}

func (m *mockStore) CreateReview(ctx context.Context, r *model.Review) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockStore) CreateWithdrawal(ctx context.Context, w *model.Withdrawal, feePercent int) error {
	return m.Called(ctx, w, feePercent).Error(0)
}

func (m *mockStore) Withdrawal(ctx context.Context, id string) (*model.Withdrawal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Withdrawal), args.Error(1)
}

func (m *mockStore) UpdateWithdrawalStatus(ctx context.Context, id string, from, to model.WithdrawalStatus, notes string) (*model.Withdrawal, error) {
	args := m.Called(ctx, id, from, to, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Withdrawal), args.Error(1)
}

func (m *mockStore) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Enqueue(msg notify.Message) error {
	return m.Called(msg).Error(0)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Name() string { return payment.GatewayStripe }

func (m *mockGateway) CreateCharge(ctx context.Context, c payment.Charge) (*payment.ChargeResult, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.ChargeResult), args.Error(1)
}

func (m *mockGateway) ParseWebhook(payload []byte, header http.Header) (*payment.Event, error) {
	args := m.Called(payload, header)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Event), args.Error(1)
}

func (m *mockStore) ListUsers(ctx context.Context, role model.Role, limit, offset int) ([]model.User, error) {
	args := m.Called(ctx, role, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *mockStore) SetUserFlags(ctx context.Context, id string, active, verified *bool) (*model.User, error) {
	args := m.Called(ctx, id, active, verified)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}
