package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vetlink/backend/api/middleware"
	"github.com/vetlink/backend/api/responses"
	"github.com/vetlink/backend/api/validators"
	"github.com/vetlink/backend/internal/verification"
	pkgerrors "github.com/vetlink/backend/pkg/errors"
	"github.com/vetlink/backend/pkg/logger"
	"github.com/vetlink/backend/pkg/pagination"
)

type verificationSubmitRequest struct {
	LicenseNumber string          `json:"license_number" validate:"required"`
	LicenseExpiry *time.Time      `json:"license_expiry,omitempty"`
	Documents     json.RawMessage `json:"documents,omitempty"`
}

type verificationReviewRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
	Notes    string `json:"notes,omitempty"`
}

// VerificationSubmit files the caller's credentials for admin review.
func VerificationSubmit(svc verification.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "verification service unavailable"))
			return
		}

		var payload verificationSubmitRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.Submit(r.Context(), middleware.AccountIDFromContext(r.Context()), verification.SubmitInput{
			LicenseNumber: payload.LicenseNumber,
			LicenseExpiry: payload.LicenseExpiry,
			Documents:     payload.Documents,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusAccepted, profile)
	}
}

// VerificationReview records an admin decision on a pending profile.
func VerificationReview(svc verification.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "verification service unavailable"))
			return
		}

		profileID, err := uuid.Parse(chi.URLParam(r, "profileID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid profile id"))
			return
		}

		var payload verificationReviewRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.Review(r.Context(), middleware.AccountIDFromContext(r.Context()), profileID, verification.ReviewInput{
			Decision: verification.Decision(payload.Decision),
			Notes:    payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, profile)
	}
}

// VerificationQueue lists profiles awaiting review, cursor-paginated.
func VerificationQueue(svc verification.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "verification service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profiles, next, err := svc.ListPending(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		body := map[string]any{"profiles": profiles}
		if next != nil {
			body["next_cursor"] = pagination.EncodeCursor(*next)
		}
		responses.WriteSuccess(w, body)
	}
}
