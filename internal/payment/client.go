// Package payment implements the HTTP client for the payment gateway.
// It carries no business rules: the booking engine decides amounts and
// refunds, this package only speaks the gateway's wire format and maps
// its status vocabulary onto the internal one.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/hostel-booking/internal/booking"
	"github.com/iliyamo/hostel-booking/internal/model"
)

// Client talks to the gateway's REST API using basic auth (shop id and
// secret key).  Every mutating call carries a fresh Idempotence-Key so
// a retried HTTP request cannot create a second payment or refund.
type Client struct {
	BaseURL   string
	ShopID    string
	SecretKey string
	HTTP      *http.Client
}

// FromEnv builds a Client from PAYMENT_* environment variables.
func FromEnv() *Client {
	base := os.Getenv("PAYMENT_API_URL")
	if base == "" {
		base = "https://api.yookassa.ru/v3"
	}
	return &Client{
		BaseURL:   base,
		ShopID:    os.Getenv("PAYMENT_SHOP_ID"),
		SecretKey: os.Getenv("PAYMENT_SECRET_KEY"),
		HTTP:      &http.Client{Timeout: 15 * time.Second},
	}
}

// amount is the gateway's money representation: a decimal string plus a
// currency code.
type amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

func kopeksToValue(kopeks int64) string {
	return fmt.Sprintf("%d.%02d", kopeks/100, kopeks%100)
}

func valueToKopeks(v string) int64 {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return int64(f*100 + 0.5)
}

// MapStatus converts the gateway status vocabulary onto the internal
// PaymentStatus constants.
func MapStatus(s string) string {
	switch s {
	case "pending":
		return model.PaymentPending
	case "waiting_for_capture":
		return model.PaymentProcessing
	case "succeeded":
		return model.PaymentSucceeded
	case "canceled":
		return model.PaymentCanceled
	default:
		return model.PaymentFailed
	}
}

type paymentObject struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Amount       amount `json:"amount"`
	Confirmation struct {
		Type            string `json:"type"`
		ConfirmationURL string `json:"confirmation_url"`
	} `json:"confirmation"`
	Metadata map[string]string `json:"metadata"`
}

func (c *Client) do(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.ShopID, c.SecretKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotence-Key", uuid.NewString())
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, string(data))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// CreatePayment creates a remote payment object with the reservation id
// in its metadata and returns the confirmation URL the guest is
// redirected to.
func (c *Client) CreatePayment(ctx context.Context, req booking.PaymentRequest) (*booking.PaymentIntent, error) {
	payload := map[string]any{
		"amount":      amount{Value: kopeksToValue(req.Amount), Currency: "RUB"},
		"description": req.Description,
		"capture":     true,
		"confirmation": map[string]string{
			"type":       "redirect",
			"return_url": req.ReturnURL,
		},
		"metadata": map[string]string{
			"reservation_id": strconv.FormatUint(req.ReservationID, 10),
		},
		"receipt": map[string]any{
			"customer": map[string]string{
				"email": req.CustomerEmail,
				"phone": req.CustomerPhone,
			},
			"items": []map[string]any{{
				"description": req.ReceiptItem,
				"quantity":    "1",
				"amount":      amount{Value: kopeksToValue(req.Amount), Currency: "RUB"},
				"vat_code":    1,
			}},
		},
	}
	var obj paymentObject
	if err := c.do(ctx, http.MethodPost, "/payments", payload, &obj); err != nil {
		return nil, err
	}
	return &booking.PaymentIntent{ID: obj.ID, ConfirmationURL: obj.Confirmation.ConfirmationURL}, nil
}

// GetPayment fetches the current state of a payment.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*booking.PaymentInfo, error) {
	var obj paymentObject
	if err := c.do(ctx, http.MethodGet, "/payments/"+paymentID, nil, &obj); err != nil {
		return nil, err
	}
	return &booking.PaymentInfo{
		ID:     obj.ID,
		Status: MapStatus(obj.Status),
		Amount: valueToKopeks(obj.Amount.Value),
	}, nil
}

// CreateRefund refunds part or all of a payment.
func (c *Client) CreateRefund(ctx context.Context, paymentID string, refundAmount int64, description string) (*booking.Refund, error) {
	payload := map[string]any{
		"payment_id":  paymentID,
		"amount":      amount{Value: kopeksToValue(refundAmount), Currency: "RUB"},
		"description": description,
	}
	var obj struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodPost, "/refunds", payload, &obj); err != nil {
		return nil, err
	}
	return &booking.Refund{ID: obj.ID, Status: obj.Status}, nil
}
