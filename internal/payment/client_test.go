package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iliyamo/hostel-booking/internal/booking"
	"github.com/iliyamo/hostel-booking/internal/model"
)

func testClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &Client{
		BaseURL:   srv.URL,
		ShopID:    "shop-1",
		SecretKey: "sk-test",
		HTTP:      srv.Client(),
	}, srv
}

func TestKopeksToValue(t *testing.T) {
	cases := []struct {
		kopeks int64
		want   string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{100, "1.00"},
		{399000, "3990.00"},
		{123456789, "1234567.89"},
	}
	for _, tc := range cases {
		if got := kopeksToValue(tc.kopeks); got != tc.want {
			t.Errorf("kopeksToValue(%d) = %q, want %q", tc.kopeks, got, tc.want)
		}
	}
}

func TestValueToKopeks(t *testing.T) {
	cases := []struct {
		value string
		want  int64
	}{
		{"0.00", 0},
		{"3990.00", 399000},
		{"0.05", 5},
		{"not a number", 0},
	}
	for _, tc := range cases {
		if got := valueToKopeks(tc.value); got != tc.want {
			t.Errorf("valueToKopeks(%q) = %d, want %d", tc.value, got, tc.want)
		}
	}
}

func TestMapStatus(t *testing.T) {
	cases := map[string]string{
		"pending":             model.PaymentPending,
		"waiting_for_capture": model.PaymentProcessing,
		"succeeded":           model.PaymentSucceeded,
		"canceled":            model.PaymentCanceled,
		"anything else":       model.PaymentFailed,
	}
	for in, want := range cases {
		if got := MapStatus(in); got != want {
			t.Errorf("MapStatus(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCreatePayment(t *testing.T) {
	var gotReq *http.Request
	var gotBody map[string]any
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotReq = r
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "pay-123",
			"status": "pending",
			"amount": map[string]string{"value": "3990.00", "currency": "RUB"},
			"confirmation": map[string]string{
				"type":             "redirect",
				"confirmation_url": "https://gw.example/confirm/pay-123",
			},
		})
	})

	intent, err := client.CreatePayment(context.Background(), booking.PaymentRequest{
		Amount:        399000,
		Description:   "Reservation #7",
		ReservationID: 7,
		CustomerEmail: "guest@example.com",
		CustomerPhone: "+79990000000",
		ReturnURL:     "https://hostel.example/thanks",
		ReceiptItem:   "Accommodation, 7 night(s)",
	})
	if err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}
	if intent.ID != "pay-123" {
		t.Errorf("intent id = %q, want pay-123", intent.ID)
	}
	if intent.ConfirmationURL != "https://gw.example/confirm/pay-123" {
		t.Errorf("confirmation url = %q", intent.ConfirmationURL)
	}

	if gotReq.URL.Path != "/payments" || gotReq.Method != http.MethodPost {
		t.Errorf("request = %s %s, want POST /payments", gotReq.Method, gotReq.URL.Path)
	}
	user, pass, ok := gotReq.BasicAuth()
	if !ok || user != "shop-1" || pass != "sk-test" {
		t.Errorf("basic auth = %q/%q ok=%v", user, pass, ok)
	}
	if gotReq.Header.Get("Idempotence-Key") == "" {
		t.Error("missing Idempotence-Key header on create")
	}

	amt, _ := gotBody["amount"].(map[string]any)
	if amt["value"] != "3990.00" || amt["currency"] != "RUB" {
		t.Errorf("amount = %v", amt)
	}
	if gotBody["capture"] != true {
		t.Errorf("capture = %v, want true", gotBody["capture"])
	}
	meta, _ := gotBody["metadata"].(map[string]any)
	if meta["reservation_id"] != "7" {
		t.Errorf("metadata reservation_id = %v, want \"7\"", meta["reservation_id"])
	}
	conf, _ := gotBody["confirmation"].(map[string]any)
	if conf["type"] != "redirect" || conf["return_url"] != "https://hostel.example/thanks" {
		t.Errorf("confirmation = %v", conf)
	}
}

func TestGetPayment(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/payments/pay-9" {
			t.Errorf("path = %s, want /payments/pay-9", r.URL.Path)
		}
		if r.Header.Get("Idempotence-Key") != "" {
			t.Error("GET must not carry an Idempotence-Key")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "pay-9",
			"status": "succeeded",
			"amount": map[string]string{"value": "1800.00", "currency": "RUB"},
		})
	})

	info, err := client.GetPayment(context.Background(), "pay-9")
	if err != nil {
		t.Fatalf("GetPayment: %v", err)
	}
	if info.Status != model.PaymentSucceeded {
		t.Errorf("status = %q, want SUCCEEDED", info.Status)
	}
	if info.Amount != 180000 {
		t.Errorf("amount = %d, want 180000", info.Amount)
	}
}

func TestCreateRefund(t *testing.T) {
	var gotBody map[string]any
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/refunds" {
			t.Errorf("path = %s, want /refunds", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "ref-1", "status": "succeeded"})
	})

	refund, err := client.CreateRefund(context.Background(), "pay-9", 120000, "Cancellation of reservation #9")
	if err != nil {
		t.Fatalf("CreateRefund: %v", err)
	}
	if refund.ID != "ref-1" {
		t.Errorf("refund id = %q", refund.ID)
	}
	if gotBody["payment_id"] != "pay-9" {
		t.Errorf("payment_id = %v", gotBody["payment_id"])
	}
	amt, _ := gotBody["amount"].(map[string]any)
	if amt["value"] != "1200.00" {
		t.Errorf("refund amount = %v, want 1200.00", amt["value"])
	}
}

func TestErrorResponseSurfacesBody(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"description":"invalid credentials"}`))
	})
	_, err := client.GetPayment(context.Background(), "pay-1")
	if err == nil {
		t.Fatal("expected error on 401")
	}
}

func TestParseWebhook(t *testing.T) {
	body := []byte(`{
		"event": "payment.succeeded",
		"object": {
			"id": "pay-42",
			"status": "succeeded",
			"metadata": {"reservation_id": "42"}
		}
	}`)
	ev, err := ParseWebhook(body)
	if err != nil {
		t.Fatalf("ParseWebhook: %v", err)
	}
	if ev.Type != "payment.succeeded" || ev.PaymentID != "pay-42" || ev.ReservationID != 42 {
		t.Errorf("event = %+v", ev)
	}
}

func TestParseWebhookMissingMetadata(t *testing.T) {
	ev, err := ParseWebhook([]byte(`{"event":"payment.canceled","object":{"id":"pay-1"}}`))
	if err != nil {
		t.Fatalf("ParseWebhook: %v", err)
	}
	if ev.ReservationID != 0 {
		t.Errorf("reservation id = %d, want 0", ev.ReservationID)
	}
}

func TestParseWebhookMalformed(t *testing.T) {
	if _, err := ParseWebhook([]byte(`{not json`)); err == nil {
		t.Fatal("expected error for malformed body")
	}
}
