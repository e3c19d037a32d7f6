package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/vetlink/backend/api/responses"
	"github.com/vetlink/backend/internal/subscriptions"
	"github.com/vetlink/backend/pkg/enums"
	pkgerrors "github.com/vetlink/backend/pkg/errors"
	"github.com/vetlink/backend/pkg/logger"
)

type entitlementEvaluator interface {
	EvaluateActive(ctx context.Context, accountID uuid.UUID) (*subscriptions.Entitlement, error)
}

// RequireSubscription admits only callers with an active subscription on
// either track. Expired-but-active stored rows are lapsed (and persisted)
// by the evaluation itself.
func RequireSubscription(svc entitlementEvaluator, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			entitlement, err := evaluate(r, svc)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if !entitlement.Active {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodePaymentRequired, "active subscription required").
						WithAction(pkgerrors.ActionSubscribe))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireTier admits only professionals whose active business plan ranks at
// or above minPlan.
func RequireTier(svc entitlementEvaluator, minPlan enums.SubscriptionPlan, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if RoleFromContext(r.Context()) != enums.AccountRoleProfessional {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeForbidden, "professional account required").
						WithAction(pkgerrors.ActionVerifyAccount))
				return
			}

			entitlement, err := evaluate(r, svc)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if !entitlement.Active {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodePaymentRequired, "active subscription required").
						WithAction(pkgerrors.ActionSubscribe))
				return
			}
			if !entitlement.MeetsTier(minPlan) {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodePaymentRequired, "plan upgrade required").
						WithAction(pkgerrors.ActionUpgrade).
						WithDetails(map[string]any{"required_plan": string(minPlan)}))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func evaluate(r *http.Request, svc entitlementEvaluator) (*subscriptions.Entitlement, error) {
	accountID := AccountIDFromContext(r.Context())
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	entitlement, err := svc.EvaluateActive(r.Context(), accountID)
	if err != nil {
		return nil, err
	}
	if entitlement == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "entitlement evaluation returned nothing")
	}
	return entitlement, nil
}
