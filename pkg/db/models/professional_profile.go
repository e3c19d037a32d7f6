package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/vetlink/backend/pkg/enums"
)

// ProfessionalProfile is the business entity behind a vet or kennel account.
// The credential review trail is embedded here: documents, reviewer, notes, and
// the verification status that gates public discoverability.
type ProfessionalProfile struct {
	ID             uuid.UUID                  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID      uuid.UUID                  `gorm:"column:account_id;type:uuid;not null;uniqueIndex"`
	BusinessName   string                     `gorm:"column:business_name;not null"`
	Category       enums.ProfessionalCategory `gorm:"column:category;type:professional_category;not null"`
	Specialization string                     `gorm:"column:specialization"`
	Address        string                     `gorm:"column:address;not null"`
	Latitude       *float64                   `gorm:"column:latitude;index:idx_professional_profiles_geo"`
	Longitude      *float64                   `gorm:"column:longitude;index:idx_professional_profiles_geo"`

	LicenseNumber *string    `gorm:"column:license_number;unique"`
	LicenseExpiry *time.Time `gorm:"column:license_expiry"`

	VerificationStatus enums.VerificationStatus `gorm:"column:verification_status;type:verification_status;not null;default:'pending'"`
	Visible            bool                     `gorm:"column:visible;not null;default:false"`
	Documents          json.RawMessage          `gorm:"column:documents;type:jsonb"`
	SubmittedAt        *time.Time               `gorm:"column:submitted_at"`
	VerifiedAt         *time.Time               `gorm:"column:verified_at"`
	ReviewerID         *uuid.UUID               `gorm:"column:reviewer_id;type:uuid"`
	AdminNotes         string                   `gorm:"column:admin_notes"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
