package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"agendo-api/internal/model"
)

const GatewayStripe = "stripe"

type Stripe struct {
	api           *client.API
	webhookSecret string
}

func NewStripe(secretKey, webhookSecret string) *Stripe {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &Stripe{api: sc, webhookSecret: webhookSecret}
}

func (s *Stripe) Name() string { return GatewayStripe }

// CreateCharge opens a PaymentIntent in BRL. The idempotency key makes a
// retried request return the same intent instead of charging twice.
func (s *Stripe) CreateCharge(ctx context.Context, c Charge) (*ChargeResult, error) {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(c.AmountCents),
		Currency:    stripe.String(string(stripe.CurrencyBRL)),
		Description: stripe.String(c.Description),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if c.CustomerEmail != "" {
		params.ReceiptEmail = stripe.String(c.CustomerEmail)
	}
	params.AddMetadata("appointment_id", c.AppointmentID)
	params.SetIdempotencyKey("appointment-" + c.AppointmentID)
	params.Context = ctx

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe payment intent: %w", err)
	}
	return &ChargeResult{
		Gateway:      GatewayStripe,
		ExternalID:   pi.ID,
		Status:       model.PaymentPending,
		ClientSecret: pi.ClientSecret,
	}, nil
}

func (s *Stripe) ParseWebhook(payload []byte, header http.Header) (*Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, header.Get("Stripe-Signature"), s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}

	out := &Event{Gateway: GatewayStripe, Type: string(ev.Type)}
	switch string(ev.Type) {
	case "payment_intent.succeeded", "payment_intent.payment_failed", "payment_intent.canceled":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("stripe event %s: %w", ev.ID, err)
		}
		out.ExternalID = pi.ID
		out.Status = model.PaymentFailed
		if string(ev.Type) == "payment_intent.succeeded" {
			out.Status = model.PaymentPaid
		}
	case "charge.refunded":
		var ch stripe.Charge
		if err := json.Unmarshal(ev.Data.Raw, &ch); err != nil {
			return nil, fmt.Errorf("stripe event %s: %w", ev.ID, err)
		}
		if ch.PaymentIntent != nil {
			out.ExternalID = ch.PaymentIntent.ID
			out.Status = model.PaymentRefunded
		}
	}
	return out, nil
}
