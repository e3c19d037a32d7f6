package models

import (
	"time"

	"github.com/google/uuid"
)

// ShopProfile is a pet-supply storefront. Shops skip credential review and are
// verified at creation; listing visibility is gated by the owner's business
// subscription instead.
type ShopProfile struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID     uuid.UUID  `gorm:"column:owner_id;type:uuid;not null;uniqueIndex"`
	Name        string     `gorm:"column:name;not null"`
	Description string     `gorm:"column:description"`
	Address     string     `gorm:"column:address;not null"`
	Latitude    *float64   `gorm:"column:latitude;index:idx_shop_profiles_geo"`
	Longitude   *float64   `gorm:"column:longitude;index:idx_shop_profiles_geo"`
	Verified    bool       `gorm:"column:verified;not null;default:true"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt   *time.Time `gorm:"column:deleted_at;index"`
}
