package shops

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vetlink/backend/pkg/db/models"
	"github.com/vetlink/backend/pkg/geo"
)

// Repository handles shop profile persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, shop *models.ShopProfile) error
	Update(ctx context.Context, shop *models.ShopProfile) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.ShopProfile, error)
	FindByOwnerID(ctx context.Context, ownerID uuid.UUID) (*models.ShopProfile, error)
	ListActive(ctx context.Context, bounds *geo.Bounds) ([]models.ShopProfile, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a shop repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, shop *models.ShopProfile) error {
	return r.db.WithContext(ctx).Create(shop).Error
}

func (r *repository) Update(ctx context.Context, shop *models.ShopProfile) error {
	return r.db.WithContext(ctx).Save(shop).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ShopProfile, error) {
	var shop models.ShopProfile
	if err := r.db.WithContext(ctx).
		Where("deleted_at IS NULL").
		First(&shop, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &shop, nil
}

func (r *repository) FindByOwnerID(ctx context.Context, ownerID uuid.UUID) (*models.ShopProfile, error) {
	var shop models.ShopProfile
	if err := r.db.WithContext(ctx).
		Where("deleted_at IS NULL").
		First(&shop, "owner_id = ?", ownerID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &shop, nil
}

// ListActive returns live storefronts. A bounding box prunes rows in SQL
// before the exact distance check; shops without coordinates always pass.
func (r *repository) ListActive(ctx context.Context, bounds *geo.Bounds) ([]models.ShopProfile, error) {
	query := r.db.WithContext(ctx).
		Where("deleted_at IS NULL AND verified = ?", true)
	if bounds != nil {
		query = query.Where(
			"(latitude IS NULL OR (latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?))",
			bounds.MinLat, bounds.MaxLat, bounds.MinLng, bounds.MaxLng,
		)
	}
	var shops []models.ShopProfile
	if err := query.Find(&shops).Error; err != nil {
		return nil, err
	}
	return shops, nil
}

func (r *repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.ShopProfile{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", gorm.Expr("now()")).Error
}
