// Package notify delivers in-app notifications and, when a WhatsApp sender is
// configured, a text message to the user's phone. Work is queued so request
// handlers never wait on the database write or the Graph API call.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"agendo-api/internal/model"
)

const (
	TypeAppointmentCreated = "appointment_created"
	TypeAppointmentStatus  = "appointment_status"
	TypePaymentConfirmed   = "payment_confirmed"
	TypeWithdrawalUpdated  = "withdrawal_updated"
)

var ErrStopped = errors.New("notify: dispatcher stopped")

type Store interface {
	CreateNotification(ctx context.Context, n *model.Notification) error
	UserByID(ctx context.Context, id string) (*model.User, error)
}

type Sender interface {
	Send(ctx context.Context, phone, text string) error
}

// Message is one notification for one user.
type Message struct {
	UserID        string
	Title         string
	Body          string
	Type          string
	AppointmentID string
	// WhatsApp also sends the body to the user's phone.
	WhatsApp bool
}

type Dispatcher struct {
	store   Store
	sender  Sender
	log     *zap.Logger
	queue   chan Message
	workers int
	timeout time.Duration

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// New builds a dispatcher. sender may be nil, in which case only the
// notification row is written.
func New(store Store, sender Sender, log *zap.Logger, workers, buffer int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if buffer < 1 {
		buffer = 64
	}
	return &Dispatcher{
		store:   store,
		sender:  sender,
		log:     log.Named("notify"),
		queue:   make(chan Message, buffer),
		workers: workers,
		timeout: 10 * time.Second,
	}
}

// Start launches the workers. They exit once Stop closes the queue and it is
// drained.
func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for m := range d.queue {
				d.deliver(m)
			}
		}()
	}
}

// Enqueue never blocks. A full queue drops the message.
func (d *Dispatcher) Enqueue(m Message) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return ErrStopped
	}
	select {
	case d.queue <- m:
		return nil
	default:
		d.log.Warn("queue full, dropping notification",
			zap.String("user_id", m.UserID), zap.String("type", m.Type))
		return errors.New("notify: queue full")
	}
}

// Stop refuses new messages and waits for queued ones to be delivered or for
// ctx to expire.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.stopped {
		d.stopped = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) deliver(m Message) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	n := &model.Notification{
		ID:      uuid.NewString(),
		UserID:  m.UserID,
		Title:   m.Title,
		Message: m.Body,
		Type:    m.Type,
	}
	if m.AppointmentID != "" {
		n.AppointmentID = &m.AppointmentID
	}
	if err := d.store.CreateNotification(ctx, n); err != nil {
		d.log.Error("save notification", zap.String("user_id", m.UserID), zap.Error(err))
	}

	if !m.WhatsApp || d.sender == nil {
		return
	}
	u, err := d.store.UserByID(ctx, m.UserID)
	if err != nil {
		d.log.Warn("whatsapp lookup user", zap.String("user_id", m.UserID), zap.Error(err))
		return
	}
	if u.Phone == "" {
		return
	}
	if err := d.sender.Send(ctx, u.Phone, m.Title+"\n"+m.Body); err != nil {
		d.log.Warn("whatsapp send", zap.String("user_id", m.UserID), zap.Error(err))
	}
}
