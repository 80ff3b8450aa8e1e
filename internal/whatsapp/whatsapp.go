// Package whatsapp builds click-to-chat links and sends text messages through
// the WhatsApp Cloud API.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var ErrBadPhone = errors.New("invalid phone number")

// Brazil; local numbers are 10 (landline) or 11 (mobile) digits with area code.
const defaultCountry = "55"

// Normalize strips formatting and prefixes the country code when the number
// looks like a local Brazilian one.
func Normalize(phone string) (string, error) {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	d := strings.TrimLeft(b.String(), "0")
	switch {
	case len(d) == 10 || len(d) == 11:
		d = defaultCountry + d
	case len(d) < 10 || len(d) > 15:
		return "", fmt.Errorf("%w: %q", ErrBadPhone, phone)
	}
	return d, nil
}

// Link returns https://wa.me/<digits>?text=<msg>. An empty text yields a link
// without the query.
func Link(phone, text string) (string, error) {
	d, err := Normalize(phone)
	if err != nil {
		return "", err
	}
	u := "https://wa.me/" + d
	if text != "" {
		u += "?text=" + url.QueryEscape(text)
	}
	return u, nil
}

const graphURL = "https://graph.facebook.com/v19.0"

// CloudSender posts text messages through the Graph API.
type CloudSender struct {
	token   string
	phoneID string
	baseURL string
	client  *http.Client
}

func NewCloudSender(token, phoneID string) *CloudSender {
	return &CloudSender{
		token:   token,
		phoneID: phoneID,
		baseURL: graphURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// WithBaseURL points the sender at another host. Tests use it.
func (s *CloudSender) WithBaseURL(u string) *CloudSender {
	s.baseURL = strings.TrimRight(u, "/")
	return s
}

type textMessage struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

func (s *CloudSender) Send(ctx context.Context, phone, text string) error {
	to, err := Normalize(phone)
	if err != nil {
		return err
	}
	msg := textMessage{MessagingProduct: "whatsapp", To: to, Type: "text"}
	msg.Text.Body = text
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/%s/messages", s.baseURL, s.phoneID), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp send: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("whatsapp send: status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	return nil
}
