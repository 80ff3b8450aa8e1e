package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"agendo-api/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateNotification(ctx context.Context, n *model.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *mockStore) UserByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, phone, text string) error {
	return m.Called(ctx, phone, text).Error(0)
}

func stop(t *testing.T, d *Dispatcher) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, d.Stop(ctx))
}

func TestDeliverWithWhatsApp(t *testing.T) {
	st := &mockStore{}
	snd := &mockSender{}
	st.On("CreateNotification", mock.Anything, mock.MatchedBy(func(n *model.Notification) bool {
		return n.UserID == "prov-1" && n.Type == TypeAppointmentCreated &&
			n.AppointmentID != nil && *n.AppointmentID == "apt-1" && n.ID != ""
	})).Return(nil).Once()
	st.On("UserByID", mock.Anything, "prov-1").Return(&model.User{ID: "prov-1", Phone: "11987654321"}, nil).Once()
	snd.On("Send", mock.Anything, "11987654321", mock.AnythingOfType("string")).Return(nil).Once()

	d := New(st, snd, zaptest.NewLogger(t), 2, 8)
	d.Start()

	loc := time.FixedZone("BRT", -3*60*60)
	a := &model.Appointment{ID: "apt-1", ProviderID: "prov-1", StartTime: time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC)}
	require.NoError(t, d.Enqueue(AppointmentCreated(a, "Corte", loc)))
	stop(t, d)

	st.AssertExpectations(t)
	snd.AssertExpectations(t)
	text := snd.Calls[0].Arguments.String(2)
	assert.Contains(t, text, "Novo agendamento")
	assert.Contains(t, text, "10/03/2026 às 10:00")
}

func TestDeliverWithoutSender(t *testing.T) {
	st := &mockStore{}
	st.On("CreateNotification", mock.Anything, mock.Anything).Return(nil).Once()

	d := New(st, nil, zap.NewNop(), 1, 1)
	d.Start()
	require.NoError(t, d.Enqueue(Message{UserID: "u1", Title: "x", WhatsApp: true}))
	stop(t, d)

	st.AssertExpectations(t)
	st.AssertNotCalled(t, "UserByID", mock.Anything, mock.Anything)
}

func TestDeliverSkipsMissingPhoneAndErrors(t *testing.T) {
	st := &mockStore{}
	snd := &mockSender{}
	st.On("CreateNotification", mock.Anything, mock.Anything).Return(errors.New("db down")).Twice()
	st.On("UserByID", mock.Anything, "u1").Return(&model.User{ID: "u1"}, nil).Once()
	st.On("UserByID", mock.Anything, "u2").Return(nil, errors.New("not found")).Once()

	d := New(st, snd, zap.NewNop(), 1, 4)
	d.Start()
	require.NoError(t, d.Enqueue(Message{UserID: "u1", WhatsApp: true}))
	require.NoError(t, d.Enqueue(Message{UserID: "u2", WhatsApp: true}))
	stop(t, d)

	st.AssertExpectations(t)
	snd.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestEnqueueFullQueueDrops(t *testing.T) {
	st := &mockStore{}
	st.On("CreateNotification", mock.Anything, mock.Anything).Return(nil)

	d := New(st, nil, zap.NewNop(), 1, 1)
	require.NoError(t, d.Enqueue(Message{UserID: "u1"}))
	assert.Error(t, d.Enqueue(Message{UserID: "u2"}))

	d.Start()
	stop(t, d)
	st.AssertNumberOfCalls(t, "CreateNotification", 1)
}

func TestStopDrainsQueue(t *testing.T) {
	st := &mockStore{}
	st.On("CreateNotification", mock.Anything, mock.Anything).Return(nil)

	d := New(st, nil, zap.NewNop(), 3, 16)
	for i := 0; i < 10; i++ {
		require.NoError(t, d.Enqueue(Message{UserID: "u"}))
	}
	d.Start()
	stop(t, d)

	st.AssertNumberOfCalls(t, "CreateNotification", 10)
	assert.ErrorIs(t, d.Enqueue(Message{UserID: "late"}), ErrStopped)
	// second Stop is a no-op
	stop(t, d)
}

func TestMessages(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	a := &model.Appointment{
		ID: "apt-1", ClientID: "cli-1", ProviderID: "prov-1",
		StartTime:  time.Date(2026, 3, 10, 17, 30, 0, 0, time.UTC),
		Status:     model.StatusCancelled,
		TotalCents: 4550,
	}

	m := AppointmentStatus(a, "cli-1", loc)
	assert.Equal(t, "cli-1", m.UserID)
	assert.Equal(t, "Agendamento cancelado", m.Title)
	assert.Contains(t, m.Body, "10/03/2026 às 14:30")
	assert.True(t, m.WhatsApp)

	a.Status = model.StatusCompleted
	assert.False(t, AppointmentStatus(a, "cli-1", loc).WhatsApp)

	p := PaymentConfirmed(a, loc)
	assert.Equal(t, "prov-1", p.UserID)
	assert.Contains(t, p.Body, "R$ 45,50")

	w := WithdrawalUpdated(&model.Withdrawal{ProviderID: "prov-1", AmountCents: 10000, Status: model.WithdrawalRejected, AdminNotes: "Chave PIX inválida."})
	assert.Equal(t, "Seu saque de R$ 100,00 está rejeitado. Chave PIX inválida.", w.Body)
	assert.False(t, w.WhatsApp)
}
