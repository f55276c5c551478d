package webhooks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmeister/storefront-backend/internal/tracking"
	hotmartwebhook "github.com/dmeister/storefront-backend/internal/webhooks/hotmart"
	pkgerrors "github.com/dmeister/storefront-backend/pkg/errors"
)

type stubHotmartService struct {
	body    []byte
	meta    tracking.RequestMeta
	outcome hotmartwebhook.Outcome
	err     error
}

func (s *stubHotmartService) Handle(_ context.Context, body []byte, meta tracking.RequestMeta) (hotmartwebhook.Outcome, error) {
	s.body = body
	s.meta = meta
	return s.outcome, s.err
}

func TestHotmartAccepted(t *testing.T) {
	svc := &stubHotmartService{outcome: hotmartwebhook.OutcomeAccepted}
	handler := Hotmart(svc, "", nil)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/hotmart", strings.NewReader(`{"event":"PURCHASE_APPROVED"}`))
	req.Header.Set("X-Forwarded-For", "198.51.100.8")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if string(svc.body) != `{"event":"PURCHASE_APPROVED"}` {
		t.Fatalf("body = %s", svc.body)
	}
	if svc.meta.ClientIP != "198.51.100.8" {
		t.Fatalf("client ip = %q", svc.meta.ClientIP)
	}
}

func TestHotmartIgnoredStillAcknowledges(t *testing.T) {
	svc := &stubHotmartService{outcome: hotmartwebhook.OutcomeIgnored}
	handler := Hotmart(svc, "", nil)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/hotmart", strings.NewReader(`{"event":"PURCHASE_REFUNDED"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ignored") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestHotmartHottokEnforcedWhenConfigured(t *testing.T) {
	svc := &stubHotmartService{outcome: hotmartwebhook.OutcomeAccepted}
	handler := Hotmart(svc, "tok-123", nil)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/hotmart", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/webhooks/hotmart", strings.NewReader(`{"event":"PURCHASE_APPROVED"}`))
	req.Header.Set("X-Hotmart-Hottok", "tok-123")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token: status = %d", rec.Code)
	}
}

func TestHotmartBadPayload(t *testing.T) {
	svc := &stubHotmartService{err: pkgerrors.New(pkgerrors.CodeValidation, "webhook body is neither json nor form encoded")}
	handler := Hotmart(svc, "", nil)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/hotmart", strings.NewReader("\x00"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}
