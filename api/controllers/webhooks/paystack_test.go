package webhooks

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	subsvc "github.com/vetlink/backend/internal/subscriptions"
	pkgerrors "github.com/vetlink/backend/pkg/errors"
	"github.com/vetlink/backend/pkg/paystack"
)

type stubConfirmer struct {
	refs   []string
	result *subsvc.ConfirmResult
	err    error
}

func (s *stubConfirmer) Confirm(ctx context.Context, reference string) (*subsvc.ConfirmResult, error) {
	s.refs = append(s.refs, reference)
	if s.result == nil && s.err == nil {
		return &subsvc.ConfirmResult{}, nil
	}
	return s.result, s.err
}

type stubValidator struct {
	ok bool
}

func (s stubValidator) ValidSignature(body []byte, signature string) bool { return s.ok }

func postEvent(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(body))
	req.Header.Set(paystack.SignatureHeader, "sig")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestPaystackWebhookConfirmsChargeSuccess(t *testing.T) {
	confirmer := &stubConfirmer{result: &subsvc.ConfirmResult{}}
	handler := Paystack(confirmer, stubValidator{ok: true}, nil)

	rec := postEvent(t, handler, `{"event":"charge.success","data":{"reference":"vlsub_abc"}}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(confirmer.refs) != 1 || confirmer.refs[0] != "vlsub_abc" {
		t.Fatalf("expected confirm for vlsub_abc, got %v", confirmer.refs)
	}
}

func TestPaystackWebhookRejectsBadSignature(t *testing.T) {
	confirmer := &stubConfirmer{}
	handler := Paystack(confirmer, stubValidator{ok: false}, nil)

	rec := postEvent(t, handler, `{"event":"charge.success","data":{"reference":"vlsub_abc"}}`)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if len(confirmer.refs) != 0 {
		t.Fatalf("confirm must not run on a forged signature")
	}
}

func TestPaystackWebhookAcknowledgesOtherEvents(t *testing.T) {
	confirmer := &stubConfirmer{}
	handler := Paystack(confirmer, stubValidator{ok: true}, nil)

	rec := postEvent(t, handler, `{"event":"transfer.success","data":{"reference":"tr_1"}}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 ack for unhandled event, got %d", rec.Code)
	}
	if len(confirmer.refs) != 0 {
		t.Fatalf("confirm must not run for unhandled events")
	}
}

func TestPaystackWebhookRequiresReference(t *testing.T) {
	handler := Paystack(&stubConfirmer{}, stubValidator{ok: true}, nil)

	rec := postEvent(t, handler, `{"event":"charge.success","data":{}}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPaystackWebhookSurfacesSettlementFailure(t *testing.T) {
	confirmer := &stubConfirmer{err: pkgerrors.New(pkgerrors.CodeDependency, "gateway timeout")}
	handler := Paystack(confirmer, stubValidator{ok: true}, nil)

	rec := postEvent(t, handler, `{"event":"charge.success","data":{"reference":"vlsub_abc"}}`)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 so the gateway redelivers, got %d", rec.Code)
	}
}
