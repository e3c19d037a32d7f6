package subscriptions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vetlink/backend/pkg/db/models"
	"github.com/vetlink/backend/pkg/enums"
)

// Repository handles business-track subscription persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, record *models.SubscriptionRecord) error
	Update(ctx context.Context, record *models.SubscriptionRecord) error
	FindLatestByAccount(ctx context.Context, accountID uuid.UUID) (*models.SubscriptionRecord, error)
	FindByPaymentReference(ctx context.Context, reference string) (*models.SubscriptionRecord, error)
	FindByPaymentReferenceForUpdate(ctx context.Context, reference string) (*models.SubscriptionRecord, error)
	ExpireLapsed(ctx context.Context, now time.Time) (int64, error)
	CountByStatus(ctx context.Context, now time.Time) (map[enums.SubscriptionStatus]int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a subscription repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, record *models.SubscriptionRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) Update(ctx context.Context, record *models.SubscriptionRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

func (r *repository) FindLatestByAccount(ctx context.Context, accountID uuid.UUID) (*models.SubscriptionRecord, error) {
	var record models.SubscriptionRecord
	if err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		First(&record).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *repository) FindByPaymentReference(ctx context.Context, reference string) (*models.SubscriptionRecord, error) {
	var record models.SubscriptionRecord
	if err := r.db.WithContext(ctx).
		Where("payment_reference = ?", reference).
		First(&record).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// FindByPaymentReferenceForUpdate is FindByPaymentReference with a row lock.
// Call it inside a transaction; concurrent settlements of the same reference
// then serialize instead of both reading the pending row.
func (r *repository) FindByPaymentReferenceForUpdate(ctx context.Context, reference string) (*models.SubscriptionRecord, error) {
	var record models.SubscriptionRecord
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("payment_reference = ?", reference).
		First(&record).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// ExpireLapsed flips active records whose coverage has ended to expired and
// returns the affected count.
func (r *repository) ExpireLapsed(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.SubscriptionRecord{}).
		Where("status = ? AND end_date <= ?", enums.SubscriptionStatusActive, now).
		Update("status", enums.SubscriptionStatusExpired)
	return result.RowsAffected, result.Error
}

func (r *repository) CountByStatus(ctx context.Context, now time.Time) (map[enums.SubscriptionStatus]int64, error) {
	type row struct {
		Status enums.SubscriptionStatus
		Count  int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&models.SubscriptionRecord{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[enums.SubscriptionStatus]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.Count
	}
	return out, nil
}
