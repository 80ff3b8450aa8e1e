package payment

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"agendo-api/internal/model"
)

const GatewayAsaas = "asaas"

// Asaas talks to the Asaas v3 REST API. Charges are created with billing type
// UNDEFINED so the client picks PIX, boleto or card on the hosted invoice.
type Asaas struct {
	apiKey       string
	baseURL      string
	webhookToken string
	client       *http.Client
}

func NewAsaas(apiKey, baseURL, webhookToken string) *Asaas {
	return &Asaas{
		apiKey:       apiKey,
		baseURL:      strings.TrimRight(baseURL, "/"),
		webhookToken: webhookToken,
		client:       &http.Client{Timeout: 15 * time.Second},
	}
}

func (a *Asaas) Name() string { return GatewayAsaas }

type asaasCustomer struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type asaasPayment struct {
	ID                string  `json:"id,omitempty"`
	Customer          string  `json:"customer"`
	BillingType       string  `json:"billingType"`
	Value             float64 `json:"value"`
	DueDate           string  `json:"dueDate"`
	Description       string  `json:"description,omitempty"`
	ExternalReference string  `json:"externalReference,omitempty"`
	Status            string  `json:"status,omitempty"`
	InvoiceURL        string  `json:"invoiceUrl,omitempty"`
}

type asaasErrors struct {
	Errors []struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"errors"`
}

func (a *Asaas) CreateCharge(ctx context.Context, c Charge) (*ChargeResult, error) {
	var cust asaasCustomer
	if err := a.post(ctx, "/v3/customers", asaasCustomer{Name: c.CustomerName, Email: c.CustomerEmail}, &cust); err != nil {
		return nil, err
	}

	due := c.DueDate
	if due.IsZero() {
		due = time.Now()
	}
	if c.Location != nil {
		due = due.In(c.Location)
	}
	req := asaasPayment{
		Customer:          cust.ID,
		BillingType:       "UNDEFINED",
		Value:             float64(c.AmountCents) / 100,
		DueDate:           due.Format("2006-01-02"),
		Description:       c.Description,
		ExternalReference: c.AppointmentID,
	}
	var pay asaasPayment
	if err := a.post(ctx, "/v3/payments", req, &pay); err != nil {
		return nil, err
	}
	return &ChargeResult{
		Gateway:    GatewayAsaas,
		ExternalID: pay.ID,
		Status:     model.PaymentPending,
		PaymentURL: pay.InvoiceURL,
	}, nil
}

func (a *Asaas) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("access_token", a.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "agendo-api")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("asaas %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("asaas %s: %w", path, err)
	}
	if resp.StatusCode >= 300 {
		var e asaasErrors
		if json.Unmarshal(raw, &e) == nil && len(e.Errors) > 0 {
			return fmt.Errorf("asaas %s: %s: %s", path, e.Errors[0].Code, e.Errors[0].Description)
		}
		return fmt.Errorf("asaas %s: status %d", path, resp.StatusCode)
	}
	return json.Unmarshal(raw, out)
}

type asaasWebhook struct {
	Event   string       `json:"event"`
	Payment asaasPayment `json:"payment"`
}

var asaasStatus = map[string]model.PaymentStatus{
	"PAYMENT_RECEIVED":  model.PaymentPaid,
	"PAYMENT_CONFIRMED": model.PaymentPaid,
	"PAYMENT_REFUNDED":  model.PaymentRefunded,
	"PAYMENT_OVERDUE":   model.PaymentFailed,
	"PAYMENT_DELETED":   model.PaymentFailed,
}

// ParseWebhook checks the asaas-access-token header configured on the
// Asaas dashboard.
func (a *Asaas) ParseWebhook(payload []byte, header http.Header) (*Event, error) {
	got := header.Get("asaas-access-token")
	if a.webhookToken == "" || subtle.ConstantTimeCompare([]byte(got), []byte(a.webhookToken)) != 1 {
		return nil, ErrBadSignature
	}
	var w asaasWebhook
	if err := json.Unmarshal(payload, &w); err != nil {
		return nil, fmt.Errorf("asaas webhook: %w", err)
	}
	return &Event{
		Gateway:    GatewayAsaas,
		ExternalID: w.Payment.ID,
		Status:     asaasStatus[w.Event],
		Type:       w.Event,
	}, nil
}
