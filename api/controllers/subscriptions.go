package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vetlink/backend/api/middleware"
	"github.com/vetlink/backend/api/responses"
	"github.com/vetlink/backend/api/validators"
	subsvc "github.com/vetlink/backend/internal/subscriptions"
	"github.com/vetlink/backend/pkg/enums"
	pkgerrors "github.com/vetlink/backend/pkg/errors"
	"github.com/vetlink/backend/pkg/logger"
)

type subscriptionInitiateRequest struct {
	Plan string `json:"plan" validate:"required"`
}

// SubscriptionInitiate opens a checkout session for the requested plan. The
// track path segment must match the plan's track so a consumer plan cannot be
// smuggled through the business endpoint or vice versa.
func SubscriptionInitiate(svc subsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}

		track, err := enums.ParseSubscriptionTrack(chi.URLParam(r, "track"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown track"))
			return
		}

		var payload subscriptionInitiateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		plan, err := enums.ParseSubscriptionPlan(payload.Plan)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown plan"))
			return
		}
		if catalogPlan, ok := subsvc.PlanByName(plan); !ok || catalogPlan.Track != track {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("plan %q is not on the %s track", plan, track)))
			return
		}

		result, err := svc.Initiate(r.Context(), middleware.AccountIDFromContext(r.Context()), plan)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// SubscriptionVerify settles a payment reference on behalf of the redirected
// user. It converges with the webhook: whichever lands first activates, the
// other is a no-op.
func SubscriptionVerify(svc subsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}

		reference := strings.TrimSpace(r.URL.Query().Get("reference"))
		if reference == "" {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "reference is required"))
			return
		}

		result, err := svc.Confirm(r.Context(), reference)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// SubscriptionSnapshot returns the caller's entitlement view.
func SubscriptionSnapshot(svc subsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}

		snapshot, err := svc.Snapshot(r.Context(), middleware.AccountIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, snapshot)
	}
}

// SubscriptionCancel cancels the caller's subscription. Coverage runs to the
// paid-up end date.
func SubscriptionCancel(svc subsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}

		entitlement, err := svc.Cancel(r.Context(), middleware.AccountIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, entitlement)
	}
}

// SubscriptionPricing serves the public plan price list.
func SubscriptionPricing(svc subsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}
		responses.WriteSuccess(w, svc.Pricing())
	}
}

// SubscriptionStats serves subscription volume counts for the admin dashboard.
func SubscriptionStats(svc subsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}

		stats, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, stats)
	}
}
