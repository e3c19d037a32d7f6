package accounts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vetlink/backend/pkg/db/models"
	"github.com/vetlink/backend/pkg/enums"
)

// Repository handles account persistence, including the embedded consumer
// subscription columns.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, account *models.Account) error
	Update(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	FindByPhone(ctx context.Context, phone string) (*models.Account, error)
	FindBySubscriptionPaymentRef(ctx context.Context, reference string) (*models.Account, error)
	FindBySubscriptionPaymentRefForUpdate(ctx context.Context, reference string) (*models.Account, error)
	ExpireLapsedSubscriptions(ctx context.Context, now time.Time) (int64, error)
	CountActiveSubscriptions(ctx context.Context, now time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an account repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *repository) Update(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Save(account).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *repository) FindByPhone(ctx context.Context, phone string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).First(&account, "phone = ?", phone).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *repository) FindBySubscriptionPaymentRef(ctx context.Context, reference string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).First(&account, "subscription_payment_ref = ?", reference).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// FindBySubscriptionPaymentRefForUpdate is FindBySubscriptionPaymentRef with
// a row lock. Call it inside a transaction; concurrent settlements of the
// same reference then serialize instead of both reading the pending state.
func (r *repository) FindBySubscriptionPaymentRefForUpdate(ctx context.Context, reference string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&account, "subscription_payment_ref = ?", reference).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// ExpireLapsedSubscriptions flips embedded consumer subscriptions whose
// coverage has ended from active to expired and returns the affected count.
func (r *repository) ExpireLapsedSubscriptions(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("subscription_status = ? AND subscription_end <= ?", enums.SubscriptionStatusActive, now).
		Update("subscription_status", enums.SubscriptionStatusExpired)
	return result.RowsAffected, result.Error
}

func (r *repository) CountActiveSubscriptions(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("subscription_status = ? AND subscription_end > ?", enums.SubscriptionStatusActive, now).
		Count(&count).Error
	return count, err
}
