package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vetlink/backend/api/middleware"
	subsvc "github.com/vetlink/backend/internal/subscriptions"
	pkgAuth "github.com/vetlink/backend/pkg/auth"
	"github.com/vetlink/backend/pkg/enums"
	pkgerrors "github.com/vetlink/backend/pkg/errors"
	"github.com/vetlink/backend/pkg/types"
)

type stubSubscriptionService struct {
	initiated   []enums.SubscriptionPlan
	initiateRes *subsvc.InitiateResult
	initiateErr error
	confirmed   []string
	confirmRes  *subsvc.ConfirmResult
	cancelRes   *subsvc.Entitlement
	snapshot    *subsvc.Snapshot
	pricing     []subsvc.PlanPricing
	stats       *subsvc.Stats
}

func (s *stubSubscriptionService) Initiate(ctx context.Context, accountID uuid.UUID, plan enums.SubscriptionPlan) (*subsvc.InitiateResult, error) {
	s.initiated = append(s.initiated, plan)
	return s.initiateRes, s.initiateErr
}

func (s *stubSubscriptionService) Confirm(ctx context.Context, reference string) (*subsvc.ConfirmResult, error) {
	s.confirmed = append(s.confirmed, reference)
	return s.confirmRes, nil
}

func (s *stubSubscriptionService) Cancel(ctx context.Context, accountID uuid.UUID) (*subsvc.Entitlement, error) {
	return s.cancelRes, nil
}

func (s *stubSubscriptionService) EvaluateActive(ctx context.Context, accountID uuid.UUID) (*subsvc.Entitlement, error) {
	return s.cancelRes, nil
}

func (s *stubSubscriptionService) Snapshot(ctx context.Context, accountID uuid.UUID) (*subsvc.Snapshot, error) {
	return s.snapshot, nil
}

func (s *stubSubscriptionService) Pricing() []subsvc.PlanPricing { return s.pricing }

func (s *stubSubscriptionService) Stats(ctx context.Context) (*subsvc.Stats, error) {
	return s.stats, nil
}

func authedPost(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	ctx := middleware.WithPrincipal(req.Context(), &pkgAuth.Principal{
		AccountID: uuid.New(),
		Role:      enums.AccountRoleConsumer,
	})
	return req.WithContext(ctx)
}

func withTrack(req *http.Request, track string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("track", track)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestSubscriptionInitiateReturnsCheckoutSession(t *testing.T) {
	svc := &stubSubscriptionService{initiateRes: &subsvc.InitiateResult{
		AuthorizationURL: "https://checkout.paystack.com/abc",
		Reference:        "vlsub_abc",
		Plan:             enums.SubscriptionPlanUserMonthly,
		Amount:           decimal.NewFromInt(500),
	}}
	handler := SubscriptionInitiate(svc, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, withTrack(authedPost("/subscriptions/consumer", `{"plan":"user_monthly"}`), "consumer"))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if len(svc.initiated) != 1 || svc.initiated[0] != enums.SubscriptionPlanUserMonthly {
		t.Fatalf("unexpected initiated plans %v", svc.initiated)
	}

	var body struct {
		Data subsvc.InitiateResult `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Data.AuthorizationURL != "https://checkout.paystack.com/abc" {
		t.Fatalf("authorization url missing from response")
	}
}

func TestSubscriptionInitiateRejectsUnknownPlan(t *testing.T) {
	svc := &stubSubscriptionService{}
	handler := SubscriptionInitiate(svc, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, withTrack(authedPost("/subscriptions/consumer", `{"plan":"gold"}`), "consumer"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(svc.initiated) != 0 {
		t.Fatalf("service must not run for an unknown plan")
	}
}

func TestSubscriptionInitiateRejectsTrackMismatch(t *testing.T) {
	svc := &stubSubscriptionService{}
	handler := SubscriptionInitiate(svc, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, withTrack(authedPost("/subscriptions/business", `{"plan":"user_monthly"}`), "business"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(svc.initiated) != 0 {
		t.Fatalf("service must not run for a plan on the wrong track")
	}
}

func TestSubscriptionInitiateSurfacesConflict(t *testing.T) {
	svc := &stubSubscriptionService{initiateErr: pkgerrors.New(pkgerrors.CodeConflict, "plan already active")}
	handler := SubscriptionInitiate(svc, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, withTrack(authedPost("/subscriptions/business", `{"plan":"basic"}`), "business"))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	var body types.ErrorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeConflict) {
		t.Fatalf("unexpected code %s", body.Error.Code)
	}
}

func TestSubscriptionVerifyRequiresReference(t *testing.T) {
	svc := &stubSubscriptionService{confirmRes: &subsvc.ConfirmResult{}}
	handler := SubscriptionVerify(svc, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/subscriptions/verify", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/subscriptions/verify?reference=vlsub_abc", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(svc.confirmed) != 1 || svc.confirmed[0] != "vlsub_abc" {
		t.Fatalf("unexpected confirmed refs %v", svc.confirmed)
	}
}

func TestSubscriptionPricingIsPublic(t *testing.T) {
	svc := &stubSubscriptionService{pricing: []subsvc.PlanPricing{
		{Plan: enums.SubscriptionPlanUserMonthly, Amount: decimal.NewFromInt(500), Currency: "NGN"},
	}}
	handler := SubscriptionPricing(svc, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/subscriptions/pricing", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Data []subsvc.PlanPricing `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Data) != 1 || body.Data[0].Currency != "NGN" {
		t.Fatalf("unexpected pricing payload %+v", body.Data)
	}
}
