package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/shalom-garden/storefront-backend/pkg/errors"
	"github.com/shalom-garden/storefront-backend/pkg/logger"
)

type stubWebhookService struct {
	body      []byte
	signature string
	err       error
}

func (s *stubWebhookService) Handle(ctx context.Context, body []byte, signature string) error {
	s.body = body
	s.signature = signature
	return s.err
}

func webhookTestLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestRazorpayWebhookAcknowledges(t *testing.T) {
	t.Parallel()

	svc := &stubWebhookService{}
	handler := RazorpayWebhook(svc, webhookTestLogger())

	body := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_rzp1"}}}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/razorpay", bytes.NewReader(body))
	req.Header.Set(signatureHeader, "delivery-signature")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !bytes.Equal(svc.body, body) {
		t.Fatal("expected raw body passed through unmodified")
	}
	if svc.signature != "delivery-signature" {
		t.Fatalf("unexpected signature %q", svc.signature)
	}

	var payload struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.Data.Status != "ok" {
		t.Fatalf("unexpected payload %s", rec.Body.String())
	}
}

func TestRazorpayWebhookRequiresSignatureHeader(t *testing.T) {
	t.Parallel()

	svc := &stubWebhookService{}
	handler := RazorpayWebhook(svc, webhookTestLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/razorpay", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if svc.body != nil {
		t.Fatal("expected no dispatch without a signature")
	}
}

func TestRazorpayWebhookBadSignatureAnswersBadRequest(t *testing.T) {
	t.Parallel()

	svc := &stubWebhookService{err: pkgerrors.New(pkgerrors.CodeValidation, "webhook signature verification failed")}
	handler := RazorpayWebhook(svc, webhookTestLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/razorpay", bytes.NewReader([]byte(`{}`)))
	req.Header.Set(signatureHeader, "forged")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
