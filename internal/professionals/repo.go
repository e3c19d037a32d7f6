package professionals

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vetlink/backend/pkg/db/models"
	"github.com/vetlink/backend/pkg/enums"
	"github.com/vetlink/backend/pkg/geo"
	"github.com/vetlink/backend/pkg/pagination"
)

// Repository handles professional profile persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, profile *models.ProfessionalProfile) error
	Update(ctx context.Context, profile *models.ProfessionalProfile) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.ProfessionalProfile, error)
	FindByAccountID(ctx context.Context, accountID uuid.UUID) (*models.ProfessionalProfile, error)
	FindByLicenseNumber(ctx context.Context, license string) (*models.ProfessionalProfile, error)
	ListPendingReview(ctx context.Context, params pagination.Params) ([]models.ProfessionalProfile, *pagination.Cursor, error)
	ListVisibleByCategory(ctx context.Context, category enums.ProfessionalCategory, bounds *geo.Bounds) ([]models.ProfessionalProfile, error)
	HideExpiredLicenses(ctx context.Context, now time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a professional profile repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, profile *models.ProfessionalProfile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *repository) Update(ctx context.Context, profile *models.ProfessionalProfile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ProfessionalProfile, error) {
	var profile models.ProfessionalProfile
	if err := r.db.WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (r *repository) FindByAccountID(ctx context.Context, accountID uuid.UUID) (*models.ProfessionalProfile, error) {
	var profile models.ProfessionalProfile
	if err := r.db.WithContext(ctx).First(&profile, "account_id = ?", accountID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (r *repository) FindByLicenseNumber(ctx context.Context, license string) (*models.ProfessionalProfile, error) {
	var profile models.ProfessionalProfile
	if err := r.db.WithContext(ctx).First(&profile, "license_number = ?", license).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// ListPendingReview pages through profiles awaiting credential review, oldest
// submission first.
func (r *repository) ListPendingReview(ctx context.Context, params pagination.Params) ([]models.ProfessionalProfile, *pagination.Cursor, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).
		Where("verification_status = ?", enums.VerificationStatusPending).
		Where("submitted_at IS NOT NULL").
		Order("created_at ASC, id ASC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) > (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var profiles []models.ProfessionalProfile
	if err := query.Find(&profiles).Error; err != nil {
		return nil, nil, err
	}

	var next *pagination.Cursor
	if len(profiles) > limit {
		profiles = profiles[:limit]
		last := profiles[len(profiles)-1]
		next = &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
	return profiles, next, nil
}

// ListVisibleByCategory returns discoverable profiles in a category. A
// bounding box prunes rows in SQL before the exact distance check; profiles
// without coordinates always pass, they sort last in discovery instead.
func (r *repository) ListVisibleByCategory(ctx context.Context, category enums.ProfessionalCategory, bounds *geo.Bounds) ([]models.ProfessionalProfile, error) {
	query := r.db.WithContext(ctx).
		Where("category = ? AND visible = ?", category, true)
	if bounds != nil {
		query = query.Where(
			"(latitude IS NULL OR (latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?))",
			bounds.MinLat, bounds.MaxLat, bounds.MinLng, bounds.MaxLng,
		)
	}
	var profiles []models.ProfessionalProfile
	if err := query.Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

// HideExpiredLicenses removes expired-license profiles from public discovery
// without touching their verification status.
func (r *repository) HideExpiredLicenses(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ProfessionalProfile{}).
		Where("visible = ? AND license_expiry IS NOT NULL AND license_expiry <= ?", true, now).
		Update("visible", false)
	return result.RowsAffected, result.Error
}
