package controllers

import (
	"net/http"

	"github.com/vetlink/backend/api/middleware"
	"github.com/vetlink/backend/api/responses"
	"github.com/vetlink/backend/api/validators"
	"github.com/vetlink/backend/internal/professionals"
	"github.com/vetlink/backend/pkg/enums"
	pkgerrors "github.com/vetlink/backend/pkg/errors"
	"github.com/vetlink/backend/pkg/logger"
)

type professionalProfileRequest struct {
	BusinessName   string `json:"business_name" validate:"omitempty,max=200"`
	Category       string `json:"category,omitempty"`
	Specialization string `json:"specialization,omitempty" validate:"omitempty,max=200"`
	Address        string `json:"address,omitempty" validate:"omitempty,max=500"`
}

// ProfessionalProfileCreate registers the caller's business profile.
func ProfessionalProfileCreate(svc professionals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "professional service unavailable"))
			return
		}

		var payload professionalProfileRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := enums.ParseProfessionalCategory(payload.Category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown category"))
			return
		}

		profile, err := svc.CreateProfile(r.Context(), middleware.AccountIDFromContext(r.Context()), professionals.ProfileInput{
			BusinessName:   payload.BusinessName,
			Category:       category,
			Specialization: payload.Specialization,
			Address:        payload.Address,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, profile)
	}
}

// ProfessionalProfileUpdate edits the caller's profile shell.
func ProfessionalProfileUpdate(svc professionals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "professional service unavailable"))
			return
		}

		var payload professionalProfileRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.UpdateProfile(r.Context(), middleware.AccountIDFromContext(r.Context()), professionals.ProfileInput{
			BusinessName:   payload.BusinessName,
			Specialization: payload.Specialization,
			Address:        payload.Address,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, profile)
	}
}

// ProfessionalProfileGet returns the caller's profile.
func ProfessionalProfileGet(svc professionals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "professional service unavailable"))
			return
		}

		profile, err := svc.GetByAccount(r.Context(), middleware.AccountIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, profile)
	}
}
