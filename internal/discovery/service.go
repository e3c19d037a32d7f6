package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vetlink/backend/pkg/cache"
	"github.com/vetlink/backend/pkg/db/models"
	"github.com/vetlink/backend/pkg/enums"
	pkgerrors "github.com/vetlink/backend/pkg/errors"
	"github.com/vetlink/backend/pkg/geo"
)

// Kind selects which listing population to search.
type Kind string

const (
	KindVets    Kind = "vets"
	KindKennels Kind = "kennels"
	KindShops   Kind = "shops"
)

// KindForCategory maps a professional category to its listing population.
func KindForCategory(category enums.ProfessionalCategory) Kind {
	if category == enums.ProfessionalCategoryKennel {
		return KindKennels
	}
	return KindVets
}

const (
	minTermLength   = 2
	defaultRadiusKm = 25.0
	maxResults      = 50
)

// Query describes a listing search. At least one of Origin and Term must be
// supplied; with only a term the search skips distance ranking.
type Query struct {
	Kind     Kind
	Origin   *geo.Point
	RadiusKm float64
	Term     string
}

// Listing is a discoverable provider with its distance from the origin.
type Listing struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Category       string     `json:"category"`
	Specialization string     `json:"specialization,omitempty"`
	Address        string     `json:"address"`
	Location       *geo.Point `json:"location,omitempty"`
	DistanceKm     *float64   `json:"distance_km,omitempty"`
}

// Service defines the discovery surface.
type Service interface {
	Search(ctx context.Context, query Query) ([]Listing, error)
	Invalidate(ctx context.Context, kinds ...Kind)
}

type professionalLister interface {
	ListVisibleByCategory(ctx context.Context, category enums.ProfessionalCategory, bounds *geo.Bounds) ([]models.ProfessionalProfile, error)
}

type shopLister interface {
	ListActive(ctx context.Context, bounds *geo.Bounds) ([]models.ShopProfile, error)
}

// ServiceParams groups dependencies for the discovery service.
type ServiceParams struct {
	ProfessionalRepo professionalLister
	ShopRepo         shopLister
	Cache            *cache.Store
	CacheTTL         time.Duration
}

type service struct {
	profileRepo professionalLister
	shopRepo    shopLister
	cache       *cache.Store
	cacheTTL    time.Duration
}

// NewService builds a discovery service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.ProfessionalRepo == nil {
		return nil, fmt.Errorf("professional repo required")
	}
	if params.ShopRepo == nil {
		return nil, fmt.Errorf("shop repo required")
	}
	if params.Cache == nil {
		return nil, fmt.Errorf("cache required")
	}
	ttl := params.CacheTTL
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &service{
		profileRepo: params.ProfessionalRepo,
		shopRepo:    params.ShopRepo,
		cache:       params.Cache,
		cacheTTL:    ttl,
	}, nil
}

// Search returns listings matching the query, nearest first when an origin is
// given. Results are cached per normalized query; concurrent identical
// searches share one database round trip.
func (s *service) Search(ctx context.Context, query Query) ([]Listing, error) {
	normalized, err := normalize(query)
	if err != nil {
		return nil, err
	}

	version := s.cache.Version(ctx, namespaceFor(normalized.Kind))
	raw, err := s.cache.Wrap(ctx, cacheKey(normalized, version), s.cacheTTL, func(ctx context.Context) (any, error) {
		return s.search(ctx, normalized)
	})
	if err != nil {
		return nil, err
	}

	var listings []Listing
	if err := json.Unmarshal(raw, &listings); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode cached listings")
	}
	return listings, nil
}

// Invalidate drops cached results for the given kinds by rotating their cache
// namespace. Mutators call it after a write changes what a search may return,
// so readers never wait out the TTL to see the change.
func (s *service) Invalidate(ctx context.Context, kinds ...Kind) {
	for _, kind := range kinds {
		s.cache.Bump(ctx, namespaceFor(kind))
	}
}

func namespaceFor(kind Kind) string {
	return "discovery:" + string(kind)
}

func normalize(query Query) (Query, error) {
	switch query.Kind {
	case KindVets, KindKennels, KindShops:
	default:
		return Query{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown listing kind %q", query.Kind))
	}

	query.Term = strings.ToLower(strings.TrimSpace(query.Term))
	// A term under the minimum carries no search signal; treat it as absent.
	if len(query.Term) < minTermLength {
		query.Term = ""
	}
	if query.Origin == nil && query.Term == "" {
		return Query{}, pkgerrors.New(pkgerrors.CodeValidation, "a search term or origin coordinates are required")
	}
	if query.RadiusKm <= 0 {
		query.RadiusKm = defaultRadiusKm
	}
	return query, nil
}

func cacheKey(query Query, version string) string {
	origin := "anywhere"
	if query.Origin != nil {
		origin = fmt.Sprintf("%.4f,%.4f", query.Origin.Latitude, query.Origin.Longitude)
	}
	return cache.Key(
		"discovery",
		string(query.Kind),
		version,
		origin,
		fmt.Sprintf("r%.1f", query.RadiusKm),
		query.Term,
	)
}

func (s *service) search(ctx context.Context, query Query) ([]Listing, error) {
	var bounds *geo.Bounds
	if query.Origin != nil {
		b := geo.BoundingBox(*query.Origin, query.RadiusKm)
		bounds = &b
	}

	var candidates []Listing
	switch query.Kind {
	case KindShops:
		stored, err := s.shopRepo.ListActive(ctx, bounds)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shops")
		}
		for _, shop := range stored {
			candidates = append(candidates, shopListing(shop))
		}
	default:
		category := enums.ProfessionalCategoryVet
		if query.Kind == KindKennels {
			category = enums.ProfessionalCategoryKennel
		}
		stored, err := s.profileRepo.ListVisibleByCategory(ctx, category, bounds)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list professionals")
		}
		for _, profile := range stored {
			candidates = append(candidates, professionalListing(profile))
		}
	}

	results := make([]Listing, 0, len(candidates))
	for _, listing := range candidates {
		if query.Term != "" && !matchesTerm(listing, query.Term) {
			continue
		}
		if query.Origin != nil && listing.Location != nil {
			distance := geo.DistanceKm(*query.Origin, *listing.Location)
			if distance > query.RadiusKm {
				continue
			}
			listing.DistanceKm = &distance
		}
		results = append(results, listing)
	}

	// Listings without a distance sort last, preserving name order. A
	// term-only search has no distances at all and comes back name-sorted.
	sort.SliceStable(results, func(i, j int) bool {
		di, dj := results[i].DistanceKm, results[j].DistanceKm
		switch {
		case di == nil && dj == nil:
			return results[i].Name < results[j].Name
		case di == nil:
			return false
		case dj == nil:
			return true
		default:
			return *di < *dj
		}
	})

	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

func matchesTerm(listing Listing, term string) bool {
	return strings.Contains(strings.ToLower(listing.Name), term) ||
		strings.Contains(strings.ToLower(listing.Specialization), term) ||
		strings.Contains(strings.ToLower(listing.Address), term)
}

func professionalListing(profile models.ProfessionalProfile) Listing {
	listing := Listing{
		ID:             profile.ID,
		Name:           profile.BusinessName,
		Category:       profile.Category.String(),
		Specialization: profile.Specialization,
		Address:        profile.Address,
	}
	if profile.Latitude != nil && profile.Longitude != nil {
		listing.Location = &geo.Point{Latitude: *profile.Latitude, Longitude: *profile.Longitude}
	}
	return listing
}

func shopListing(shop models.ShopProfile) Listing {
	listing := Listing{
		ID:       shop.ID,
		Name:     shop.Name,
		Category: "shop",
		Address:  shop.Address,
	}
	if shop.Latitude != nil && shop.Longitude != nil {
		listing.Location = &geo.Point{Latitude: *shop.Latitude, Longitude: *shop.Longitude}
	}
	return listing
}
