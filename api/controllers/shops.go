package controllers

import (
	"net/http"

	"github.com/vetlink/backend/api/middleware"
	"github.com/vetlink/backend/api/responses"
	"github.com/vetlink/backend/api/validators"
	"github.com/vetlink/backend/internal/shops"
	pkgerrors "github.com/vetlink/backend/pkg/errors"
	"github.com/vetlink/backend/pkg/logger"
)

type shopRequest struct {
	Name        string `json:"name,omitempty" validate:"omitempty,max=200"`
	Description string `json:"description,omitempty" validate:"omitempty,max=1000"`
	Address     string `json:"address,omitempty" validate:"omitempty,max=500"`
}

// ShopCreate registers the caller's storefront.
func ShopCreate(svc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop service unavailable"))
			return
		}

		var payload shopRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shop, err := svc.CreateShop(r.Context(), middleware.AccountIDFromContext(r.Context()), shops.ShopInput{
			Name:        payload.Name,
			Description: payload.Description,
			Address:     payload.Address,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, shop)
	}
}

// ShopUpdate edits the caller's storefront.
func ShopUpdate(svc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop service unavailable"))
			return
		}

		var payload shopRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shop, err := svc.UpdateShop(r.Context(), middleware.AccountIDFromContext(r.Context()), shops.ShopInput{
			Name:        payload.Name,
			Description: payload.Description,
			Address:     payload.Address,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, shop)
	}
}

// ShopGet returns the caller's storefront.
func ShopGet(svc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop service unavailable"))
			return
		}

		shop, err := svc.GetByOwner(r.Context(), middleware.AccountIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, shop)
	}
}

// ShopDelete soft-deletes the caller's storefront.
func ShopDelete(svc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop service unavailable"))
			return
		}

		if err := svc.DeleteShop(r.Context(), middleware.AccountIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}
