package discovery

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vetlink/backend/pkg/cache"
	"github.com/vetlink/backend/pkg/db/models"
	"github.com/vetlink/backend/pkg/enums"
	pkgerrors "github.com/vetlink/backend/pkg/errors"
	"github.com/vetlink/backend/pkg/geo"
)

type stubProfileRepo struct {
	profiles   []models.ProfessionalProfile
	calls      int32
	lastBounds *geo.Bounds
}

func (r *stubProfileRepo) ListVisibleByCategory(ctx context.Context, category enums.ProfessionalCategory, bounds *geo.Bounds) ([]models.ProfessionalProfile, error) {
	atomic.AddInt32(&r.calls, 1)
	r.lastBounds = bounds
	var out []models.ProfessionalProfile
	for _, p := range r.profiles {
		if p.Category == category && p.Visible {
			out = append(out, p)
		}
	}
	return out, nil
}

type stubShopRepo struct {
	shops []models.ShopProfile
}

func (r *stubShopRepo) ListActive(ctx context.Context, bounds *geo.Bounds) ([]models.ShopProfile, error) {
	return r.shops, nil
}

func coords(lat, lng float64) (*float64, *float64) {
	return &lat, &lng
}

func lagos() *geo.Point {
	return &geo.Point{Latitude: 6.5244, Longitude: 3.3792}
}

func visibleVet(name string, lat, lng float64) models.ProfessionalProfile {
	latitude, longitude := coords(lat, lng)
	return models.ProfessionalProfile{
		ID:           uuid.New(),
		BusinessName: name,
		Category:     enums.ProfessionalCategoryVet,
		Address:      "Lagos",
		Latitude:     latitude,
		Longitude:    longitude,
		Visible:      true,
	}
}

func newTestService(t *testing.T, profileRepo *stubProfileRepo, shopRepo *stubShopRepo) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		ProfessionalRepo: profileRepo,
		ShopRepo:         shopRepo,
		Cache:            cache.New(cache.Options{DefaultTTL: time.Minute}),
		CacheTTL:         time.Minute,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestSearchSortsByDistance(t *testing.T) {
	// Victoria Island is closer to central Lagos than Ikorodu.
	repo := &stubProfileRepo{profiles: []models.ProfessionalProfile{
		visibleVet("Ikorodu Vet Centre", 6.6194, 3.5105),
		visibleVet("VI Animal Clinic", 6.4281, 3.4219),
	}}
	svc := newTestService(t, repo, &stubShopRepo{})

	results, err := svc.Search(context.Background(), Query{Kind: KindVets, Origin: lagos()})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Name != "VI Animal Clinic" {
		t.Fatalf("expected nearest listing first, got %s", results[0].Name)
	}
	if results[0].DistanceKm == nil || *results[0].DistanceKm >= *results[1].DistanceKm {
		t.Fatalf("distances not ascending: %v %v", results[0].DistanceKm, results[1].DistanceKm)
	}
}

func TestSearchFiltersByRadius(t *testing.T) {
	repo := &stubProfileRepo{profiles: []models.ProfessionalProfile{
		visibleVet("Nearby Clinic", 6.5244, 3.3800),
		visibleVet("Abuja Clinic", 9.0765, 7.3986),
	}}
	svc := newTestService(t, repo, &stubShopRepo{})

	results, err := svc.Search(context.Background(), Query{Kind: KindVets, Origin: lagos(), RadiusKm: 50})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].Name != "Nearby Clinic" {
		t.Fatalf("expected radius to exclude Abuja, got %+v", results)
	}
}

func TestSearchFiltersByTerm(t *testing.T) {
	exotic := visibleVet("Lekki Exotic Pets Clinic", 6.44, 3.47)
	exotic.Specialization = "reptiles"
	repo := &stubProfileRepo{profiles: []models.ProfessionalProfile{
		exotic,
		visibleVet("Yaba Small Animal Practice", 6.51, 3.37),
	}}
	svc := newTestService(t, repo, &stubShopRepo{})

	results, err := svc.Search(context.Background(), Query{Kind: KindVets, Term: "reptile"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].Name != "Lekki Exotic Pets Clinic" {
		t.Fatalf("expected term filter to match specialization, got %+v", results)
	}
}

func TestSearchTermOnlyHasNoDistances(t *testing.T) {
	repo := &stubProfileRepo{profiles: []models.ProfessionalProfile{
		visibleVet("Surulere Clinic", 6.50, 3.35),
		visibleVet("Apapa Clinic", 6.45, 3.36),
	}}
	svc := newTestService(t, repo, &stubShopRepo{})

	results, err := svc.Search(context.Background(), Query{Kind: KindVets, Term: "clinic"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	// Without an origin there is nothing to measure from; name order applies.
	if results[0].Name != "Apapa Clinic" || results[0].DistanceKm != nil || results[1].DistanceKm != nil {
		t.Fatalf("expected name-sorted results without distances, got %+v", results)
	}
}

func TestSearchShortTermTreatedAsAbsent(t *testing.T) {
	repo := &stubProfileRepo{profiles: []models.ProfessionalProfile{
		visibleVet("Ikeja Clinic", 6.60, 3.35),
		visibleVet("Yaba Clinic", 6.51, 3.37),
	}}
	svc := newTestService(t, repo, &stubShopRepo{})

	// A one-character term narrows nothing; the search proceeds on geography.
	results, err := svc.Search(context.Background(), Query{Kind: KindVets, Origin: lagos(), Term: "a"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected the short term to be ignored, got %+v", results)
	}
}

func TestSearchRequiresTermOrOrigin(t *testing.T) {
	repo := &stubProfileRepo{profiles: []models.ProfessionalProfile{
		visibleVet("Somewhere Clinic", 6.52, 3.38),
	}}
	svc := newTestService(t, repo, &stubShopRepo{})

	_, err := svc.Search(context.Background(), Query{Kind: KindVets})
	if te := pkgerrors.As(err); te == nil || te.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error without term or origin, got %v", err)
	}
	if got := atomic.LoadInt32(&repo.calls); got != 0 {
		t.Fatalf("repository must not be read for an unanchored search, got %d calls", got)
	}

	// A term too short to count does not anchor the search either.
	_, err = svc.Search(context.Background(), Query{Kind: KindVets, Term: "x"})
	if te := pkgerrors.As(err); te == nil || te.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for short term without origin, got %v", err)
	}
}

func TestSearchRejectsUnknownKind(t *testing.T) {
	svc := newTestService(t, &stubProfileRepo{}, &stubShopRepo{})

	_, err := svc.Search(context.Background(), Query{Kind: "groomers", Origin: lagos()})
	if te := pkgerrors.As(err); te == nil || te.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for unknown kind, got %v", err)
	}
}

func TestSearchCachesRepeatQueries(t *testing.T) {
	repo := &stubProfileRepo{profiles: []models.ProfessionalProfile{
		visibleVet("Cached Clinic", 6.52, 3.38),
	}}
	svc := newTestService(t, repo, &stubShopRepo{})

	query := Query{Kind: KindVets, Origin: lagos()}
	if _, err := svc.Search(context.Background(), query); err != nil {
		t.Fatalf("first search: %v", err)
	}
	if _, err := svc.Search(context.Background(), query); err != nil {
		t.Fatalf("second search: %v", err)
	}
	if got := atomic.LoadInt32(&repo.calls); got != 1 {
		t.Fatalf("expected one repository read, got %d", got)
	}
}

func TestSearchInvalidateDropsCachedResults(t *testing.T) {
	repo := &stubProfileRepo{profiles: []models.ProfessionalProfile{
		visibleVet("Original Clinic", 6.52, 3.38),
	}}
	svc := newTestService(t, repo, &stubShopRepo{})

	query := Query{Kind: KindVets, Origin: lagos()}
	if _, err := svc.Search(context.Background(), query); err != nil {
		t.Fatalf("first search: %v", err)
	}

	// A write lands and rotates the namespace; the next search must re-read.
	repo.profiles = append(repo.profiles, visibleVet("Renamed Clinic", 6.53, 3.39))
	svc.Invalidate(context.Background(), KindVets)

	results, err := svc.Search(context.Background(), query)
	if err != nil {
		t.Fatalf("second search: %v", err)
	}
	if got := atomic.LoadInt32(&repo.calls); got != 2 {
		t.Fatalf("expected invalidation to force a repository read, got %d", got)
	}
	if len(results) != 2 {
		t.Fatalf("expected the new listing to appear, got %+v", results)
	}
}

func TestSearchInvalidateLeavesOtherKindsCached(t *testing.T) {
	repo := &stubProfileRepo{profiles: []models.ProfessionalProfile{
		visibleVet("Steady Clinic", 6.52, 3.38),
	}}
	svc := newTestService(t, repo, &stubShopRepo{})

	query := Query{Kind: KindVets, Origin: lagos()}
	if _, err := svc.Search(context.Background(), query); err != nil {
		t.Fatalf("first search: %v", err)
	}
	svc.Invalidate(context.Background(), KindShops)
	if _, err := svc.Search(context.Background(), query); err != nil {
		t.Fatalf("second search: %v", err)
	}
	if got := atomic.LoadInt32(&repo.calls); got != 1 {
		t.Fatalf("bumping another kind must not evict this one, got %d reads", got)
	}
}

func TestSearchPrunesWithBoundingBox(t *testing.T) {
	repo := &stubProfileRepo{profiles: []models.ProfessionalProfile{
		visibleVet("Bounded Clinic", 6.52, 3.38),
	}}
	svc := newTestService(t, repo, &stubShopRepo{})

	origin := lagos()
	if _, err := svc.Search(context.Background(), Query{Kind: KindVets, Origin: origin, RadiusKm: 25}); err != nil {
		t.Fatalf("search: %v", err)
	}
	if repo.lastBounds == nil {
		t.Fatalf("expected a bounding box for an anchored search")
	}
	if !repo.lastBounds.Contains(*origin) {
		t.Fatalf("bounding box %+v must contain the origin", *repo.lastBounds)
	}

	if _, err := svc.Search(context.Background(), Query{Kind: KindVets, Term: "clinic"}); err != nil {
		t.Fatalf("term search: %v", err)
	}
	if repo.lastBounds != nil {
		t.Fatalf("a term-only search has no origin to bound, got %+v", *repo.lastBounds)
	}
}

func TestSearchShops(t *testing.T) {
	lat, lng := coords(6.45, 3.40)
	shopRepo := &stubShopRepo{shops: []models.ShopProfile{{
		ID:        uuid.New(),
		Name:      "Lekki Pet Supplies",
		Address:   "Lekki Phase 1",
		Latitude:  lat,
		Longitude: lng,
		Verified:  true,
	}}}
	svc := newTestService(t, &stubProfileRepo{}, shopRepo)

	results, err := svc.Search(context.Background(), Query{Kind: KindShops, Origin: lagos()})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].Category != "shop" {
		t.Fatalf("expected one shop listing, got %+v", results)
	}
}

func TestSearchListingWithoutCoordinatesSortsLast(t *testing.T) {
	unlocated := visibleVet("Unlocated Clinic", 0, 0)
	unlocated.Latitude = nil
	unlocated.Longitude = nil
	repo := &stubProfileRepo{profiles: []models.ProfessionalProfile{
		unlocated,
		visibleVet("Located Clinic", 6.52, 3.38),
	}}
	svc := newTestService(t, repo, &stubShopRepo{})

	results, err := svc.Search(context.Background(), Query{Kind: KindVets, Origin: lagos()})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[1].Name != "Unlocated Clinic" || results[1].DistanceKm != nil {
		t.Fatalf("expected unlocated listing last without distance, got %+v", results)
	}
}
