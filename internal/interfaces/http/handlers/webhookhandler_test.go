package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"techhive/internal/application/webhook"
	"techhive/internal/domain/payment"
	"techhive/internal/shared/config"
	"techhive/internal/shared/logger"
)

const testWebhookSecret = "sk_test_webhook"

type memEventRepo struct {
	events map[string]*payment.WebhookEvent
}

func newMemEventRepo() *memEventRepo {
	return &memEventRepo{events: make(map[string]*payment.WebhookEvent)}
}

func (r *memEventRepo) Create(_ context.Context, event *payment.WebhookEvent) error {
	r.events[event.EventKey()] = event
	return nil
}

func (r *memEventRepo) Update(_ context.Context, event *payment.WebhookEvent) error {
	r.events[event.EventKey()] = event
	return nil
}

func (r *memEventRepo) GetByEventKey(_ context.Context, eventKey string) (*payment.WebhookEvent, error) {
	return r.events[eventKey], nil
}

func (r *memEventRepo) ListFailed(_ context.Context, _ int) ([]*payment.WebhookEvent, error) {
	return nil, nil
}

func newWebhookRouter(t *testing.T, eventRepo payment.WebhookEventRepository) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.NewLogger()
	reconciler := webhook.NewReconciler(eventRepo, nil, nil, nil, nil, log)
	handler := NewWebhookHandler(reconciler, config.PaystackConfig{SecretKey: testWebhookSecret}, log)

	engine := gin.New()
	engine.POST("/api/webhooks/paystack", handler.HandlePaystack)
	return engine
}

func sign(body []byte) string {
	mac := hmac.New(sha512.New, []byte(testWebhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(engine *gin.Engine, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/paystack", bytes.NewReader(body))
	if signature != "" {
		req.Header.Set("X-Paystack-Signature", signature)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestHandlePaystack_RejectsMissingSignature(t *testing.T) {
	engine := newWebhookRouter(t, newMemEventRepo())

	rec := postWebhook(engine, []byte(`{"event":"charge.success","data":{}}`), "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandlePaystack_RejectsInvalidSignature(t *testing.T) {
	engine := newWebhookRouter(t, newMemEventRepo())

	rec := postWebhook(engine, []byte(`{"event":"charge.success","data":{}}`), "deadbeef")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandlePaystack_RejectsMalformedPayload(t *testing.T) {
	engine := newWebhookRouter(t, newMemEventRepo())

	body := []byte(`not json at all`)
	rec := postWebhook(engine, body, sign(body))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandlePaystack_AcknowledgesUnknownEventType(t *testing.T) {
	repo := newMemEventRepo()
	engine := newWebhookRouter(t, repo)

	body := []byte(`{"event":"customeridentification.success","data":{"reference":"ref_1"}}`)
	rec := postWebhook(engine, body, sign(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if len(repo.events) != 1 {
		t.Errorf("recorded events = %d, want 1", len(repo.events))
	}
	for _, event := range repo.events {
		if event.Status() != payment.EventStatusSkipped {
			t.Errorf("event status = %q, want %q", event.Status(), payment.EventStatusSkipped)
		}
	}
}
