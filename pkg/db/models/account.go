package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vetlink/backend/pkg/enums"
)

// Account is the canonical identity entity. Pet-owner subscriptions are
// embedded here: an account holds at most one consumer subscription, and a new
// purchase overwrites the previous one.
type Account struct {
	ID         uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Phone      string            `gorm:"type:text;not null;uniqueIndex"`
	Email      string            `gorm:"type:text;not null"`
	Name       string            `gorm:"type:text;not null"`
	Role       enums.AccountRole `gorm:"type:account_role;not null;default:'consumer'"`
	IsActive   bool              `gorm:"column:is_active;not null;default:true"`
	LastSeenAt *time.Time        `gorm:"column:last_seen_at"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;autoUpdateTime"`

	// Embedded consumer-track subscription.
	SubscriptionPlan          *enums.SubscriptionPlan   `gorm:"column:subscription_plan;type:subscription_plan"`
	SubscriptionStatus        *enums.SubscriptionStatus `gorm:"column:subscription_status;type:subscription_status"`
	SubscriptionAmount        *decimal.Decimal          `gorm:"column:subscription_amount;type:numeric(12,2)"`
	SubscriptionStart         *time.Time                `gorm:"column:subscription_start"`
	SubscriptionEnd           *time.Time                `gorm:"column:subscription_end"`
	SubscriptionPaymentRef    *string                   `gorm:"column:subscription_payment_ref;unique"`
	SubscriptionSettlementRef *string                   `gorm:"column:subscription_settlement_ref"`
}
