package controllers

import (
	"net/http"
	"strings"

	"github.com/vetlink/backend/api/responses"
	"github.com/vetlink/backend/api/validators"
	"github.com/vetlink/backend/internal/discovery"
	pkgerrors "github.com/vetlink/backend/pkg/errors"
	"github.com/vetlink/backend/pkg/geo"
	"github.com/vetlink/backend/pkg/logger"
)

const maxSearchTermLength = 120

// DiscoverySearch serves ranked provider listings around an origin point.
func DiscoverySearch(svc discovery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discovery service unavailable"))
			return
		}

		lat, err := validators.ParseQueryFloat(r, "lat", -90, 90)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lng, err := validators.ParseQueryFloat(r, "lng", -180, 180)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if (lat == nil) != (lng == nil) {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "lat and lng must be provided together"))
			return
		}

		radius, err := validators.ParseQueryFloat(r, "distance", 0, 500)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := discovery.Query{
			Kind: discovery.Kind(strings.TrimSpace(r.URL.Query().Get("kind"))),
			Term: validators.SanitizeString(r.URL.Query().Get("query"), maxSearchTermLength),
		}
		if lat != nil {
			query.Origin = &geo.Point{Latitude: *lat, Longitude: *lng}
		}
		if radius != nil {
			query.RadiusKm = *radius
		}

		listings, err := svc.Search(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, listings)
	}
}
