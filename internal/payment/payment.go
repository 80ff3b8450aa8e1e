// Package payment wraps the card and PIX gateways the marketplace charges
// through. Each gateway creates a charge for an appointment and turns its
// signed webhook calls into status events.
package payment

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"agendo-api/internal/model"
)

var (
	ErrBadSignature   = errors.New("webhook signature mismatch")
	ErrUnknownGateway = errors.New("unknown payment gateway")
)

type Charge struct {
	AppointmentID string
	AmountCents   int64
	Description   string
	CustomerName  string
	CustomerEmail string
	DueDate       time.Time
	// Location is where DueDate is read as a calendar day; UTC when nil.
	Location *time.Location
}

type ChargeResult struct {
	Gateway    string              `json:"gateway"`
	ExternalID string              `json:"externalId"`
	Status     model.PaymentStatus `json:"status"`
	// Stripe Elements confirms the intent client side with this.
	ClientSecret string `json:"clientSecret,omitempty"`
	// Asaas hosted invoice (PIX QR code, boleto).
	PaymentURL string `json:"paymentUrl,omitempty"`
}

// Event is a parsed webhook. An empty Status means the event is not one we act on.
type Event struct {
	Gateway    string
	ExternalID string
	Status     model.PaymentStatus
	Type       string
}

type Gateway interface {
	Name() string
	CreateCharge(ctx context.Context, c Charge) (*ChargeResult, error)
	ParseWebhook(payload []byte, header http.Header) (*Event, error)
}

// Registry holds the gateways that are configured.
type Registry struct {
	gateways map[string]Gateway
}

func NewRegistry(gs ...Gateway) *Registry {
	r := &Registry{gateways: make(map[string]Gateway)}
	for _, g := range gs {
		if g != nil {
			r.gateways[g.Name()] = g
		}
	}
	return r
}

func (r *Registry) Get(name string) (Gateway, error) {
	g, ok := r.gateways[name]
	if !ok {
		return nil, ErrUnknownGateway
	}
	return g, nil
}

func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.gateways))
	for n := range r.gateways {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
