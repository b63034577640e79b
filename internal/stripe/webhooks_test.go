package stripe

import (
	"bytes"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v84/webhook"
)

func TestReadWebhookEvent_MissingSignature(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("POST", "/stripe-webhook", bytes.NewBufferString(`{}`))
	_, err := ReadWebhookEvent(req, "whsec_test")
	if err == nil {
		t.Fatal("expected error for missing signature")
	}
}

func TestReadWebhookEvent_BadSignature(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("POST", "/stripe-webhook", bytes.NewBufferString(`{}`))
	req.Header.Set("Stripe-Signature", "t=123,v1=deadbeef")
	_, err := ReadWebhookEvent(req, "whsec_test")
	if err == nil {
		t.Fatal("expected error for invalid signature")
	}
}

func TestReadWebhookEvent_Valid(t *testing.T) {
	t.Parallel()

	secret := "whsec_test_secret"
	payload := []byte(`{"id":"evt_test","object":"event","api_version":"2026-01-28.clover","type":"checkout.session.completed","data":{"object":{"id":"cs_test","object":"checkout.session"}}}`)

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
		Scheme:    "v1",
	})

	req := httptest.NewRequest("POST", "/stripe-webhook", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signed.Header)

	event, err := ReadWebhookEvent(req, secret)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event == nil || event.ID != "evt_test" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if string(event.Type) != "checkout.session.completed" {
		t.Fatalf("unexpected event type: %s", event.Type)
	}
}
