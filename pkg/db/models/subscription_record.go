package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vetlink/backend/pkg/enums"
)

// SubscriptionRecord persists a business-track subscription purchase. Only the
// most recent record per account matters; at most one may be active with an
// end date in the future, enforced transactionally in the service layer.
type SubscriptionRecord struct {
	ID        uuid.UUID                `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID uuid.UUID                `gorm:"column:account_id;type:uuid;not null;index"`
	Plan      enums.SubscriptionPlan   `gorm:"column:plan;type:subscription_plan;not null"`
	Amount    decimal.Decimal          `gorm:"column:amount;type:numeric(12,2);not null"`
	Status    enums.SubscriptionStatus `gorm:"column:status;type:subscription_status;not null;default:'pending'"`
	StartDate *time.Time               `gorm:"column:start_date"`
	EndDate   time.Time                `gorm:"column:end_date;not null"`

	// PaymentReference is the gateway reference handed out at initialize time;
	// SettlementReference is the transaction id reported back on verify.
	PaymentReference    *string `gorm:"column:payment_reference;unique"`
	SettlementReference *string `gorm:"column:settlement_reference"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
