package shops

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vetlink/backend/internal/discovery"
	"github.com/vetlink/backend/pkg/db/models"
	pkgerrors "github.com/vetlink/backend/pkg/errors"
	"github.com/vetlink/backend/pkg/geo"
)

type geocoder interface {
	Resolve(ctx context.Context, address string) (*geo.Point, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type listingIndex interface {
	Invalidate(ctx context.Context, kinds ...discovery.Kind)
}

// Service manages shop storefront profiles. Shops carry no credential review;
// they are verified at creation and discoverability rides on the owner's
// business subscription.
type Service interface {
	CreateShop(ctx context.Context, ownerID uuid.UUID, input ShopInput) (*models.ShopProfile, error)
	UpdateShop(ctx context.Context, ownerID uuid.UUID, input ShopInput) (*models.ShopProfile, error)
	GetByOwner(ctx context.Context, ownerID uuid.UUID) (*models.ShopProfile, error)
	DeleteShop(ctx context.Context, ownerID uuid.UUID) error
}

// ShopInput carries the editable storefront fields.
type ShopInput struct {
	Name        string
	Description string
	Address     string
}

// ServiceParams collects the service dependencies.
type ServiceParams struct {
	ShopRepo          Repository
	Geocoder          geocoder
	Listings          listingIndex
	TransactionRunner txRunner
	Clock             func() time.Time
}

type service struct {
	shopRepo Repository
	geocoder geocoder
	listings listingIndex
	txRunner txRunner
	now      func() time.Time
}

// NewService builds a shop profile service.
func NewService(params ServiceParams) (Service, error) {
	if params.ShopRepo == nil {
		return nil, fmt.Errorf("shop repository is required")
	}
	if params.TransactionRunner == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	now := params.Clock
	if now == nil {
		now = time.Now
	}
	return &service{
		shopRepo: params.ShopRepo,
		geocoder: params.Geocoder,
		listings: params.Listings,
		txRunner: params.TransactionRunner,
		now:      now,
	}, nil
}

func (s *service) CreateShop(ctx context.Context, ownerID uuid.UUID, input ShopInput) (*models.ShopProfile, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop name is required")
	}
	if strings.TrimSpace(input.Address) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address is required")
	}

	existing, err := s.shopRepo.FindByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shop")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "owner already has a shop")
	}

	shop := &models.ShopProfile{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Address:     strings.TrimSpace(input.Address),
		Verified:    true,
	}
	s.locate(ctx, shop)

	if err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		return s.shopRepo.WithTx(tx).Create(ctx, shop)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create shop")
	}
	s.dropCachedListings(ctx)
	return shop, nil
}

func (s *service) UpdateShop(ctx context.Context, ownerID uuid.UUID, input ShopInput) (*models.ShopProfile, error) {
	shop, err := s.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		shop.Name = name
	}
	if desc := strings.TrimSpace(input.Description); desc != "" {
		shop.Description = desc
	}
	if addr := strings.TrimSpace(input.Address); addr != "" && addr != shop.Address {
		shop.Address = addr
		shop.Latitude = nil
		shop.Longitude = nil
		s.locate(ctx, shop)
	}

	if err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		return s.shopRepo.WithTx(tx).Update(ctx, shop)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update shop")
	}
	s.dropCachedListings(ctx)
	return shop, nil
}

func (s *service) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*models.ShopProfile, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	shop, err := s.shopRepo.FindByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shop")
	}
	if shop == nil || shop.DeletedAt != nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
	}
	return shop, nil
}

func (s *service) DeleteShop(ctx context.Context, ownerID uuid.UUID) error {
	shop, err := s.GetByOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	if err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		return s.shopRepo.WithTx(tx).SoftDelete(ctx, shop.ID)
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete shop")
	}
	s.dropCachedListings(ctx)
	return nil
}

// dropCachedListings evicts cached shop search results so a committed change
// shows up on the next search.
func (s *service) dropCachedListings(ctx context.Context) {
	if s.listings == nil {
		return
	}
	s.listings.Invalidate(ctx, discovery.KindShops)
}

// locate resolves the shop address to coordinates, best effort.
func (s *service) locate(ctx context.Context, shop *models.ShopProfile) {
	if s.geocoder == nil || shop.Address == "" {
		return
	}
	point, err := s.geocoder.Resolve(ctx, shop.Address)
	if err != nil || point == nil {
		return
	}
	shop.Latitude = &point.Latitude
	shop.Longitude = &point.Longitude
}
