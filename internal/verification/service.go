package verification

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vetlink/backend/internal/discovery"
	"github.com/vetlink/backend/internal/professionals"
	"github.com/vetlink/backend/pkg/db/models"
	"github.com/vetlink/backend/pkg/enums"
	pkgerrors "github.com/vetlink/backend/pkg/errors"
	"github.com/vetlink/backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type listingIndex interface {
	Invalidate(ctx context.Context, kinds ...discovery.Kind)
}

// Decision is an admin review outcome.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Service defines the credential review surface.
type Service interface {
	Submit(ctx context.Context, accountID uuid.UUID, input SubmitInput) (*models.ProfessionalProfile, error)
	Review(ctx context.Context, reviewerID, profileID uuid.UUID, input ReviewInput) (*models.ProfessionalProfile, error)
	ListPending(ctx context.Context, params pagination.Params) ([]models.ProfessionalProfile, *pagination.Cursor, error)
}

// ServiceParams groups dependencies for the verification service.
type ServiceParams struct {
	ProfessionalRepo  professionals.Repository
	Listings          listingIndex
	TransactionRunner txRunner
	Clock             func() time.Time
}

// SubmitInput carries the credential payload a professional files for review.
type SubmitInput struct {
	LicenseNumber string
	LicenseExpiry *time.Time
	Documents     json.RawMessage
}

// ReviewInput carries the admin decision.
type ReviewInput struct {
	Decision Decision
	Notes    string
}

type service struct {
	profileRepo professionals.Repository
	listings    listingIndex
	txRunner    txRunner
	now         func() time.Time
}

// NewService builds a verification service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.ProfessionalRepo == nil {
		return nil, fmt.Errorf("professional repo required")
	}
	if params.TransactionRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	now := params.Clock
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		profileRepo: params.ProfessionalRepo,
		listings:    params.Listings,
		txRunner:    params.TransactionRunner,
		now:         now,
	}, nil
}

// Submit files credentials for review. Resubmission always returns the
// profile to the pending queue, even from approved: a fresh submission means
// the previously reviewed credentials no longer stand, so discoverability is
// withdrawn until an admin re-approves.
func (s *service) Submit(ctx context.Context, accountID uuid.UUID, input SubmitInput) (*models.ProfessionalProfile, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	license := strings.TrimSpace(input.LicenseNumber)
	if license == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "license number is required")
	}
	if input.LicenseExpiry != nil && !input.LicenseExpiry.After(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "license is already expired")
	}

	var updated *models.ProfessionalProfile
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.profileRepo.WithTx(tx)
		profile, err := repo.FindByAccountID(ctx, accountID)
		if err != nil {
			return err
		}
		if profile == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "professional profile not found")
		}
		if !profile.Category.RequiresVerification() {
			return pkgerrors.New(pkgerrors.CodeValidation, "category does not require credential review")
		}

		if holder, err := repo.FindByLicenseNumber(ctx, license); err != nil {
			return err
		} else if holder != nil && holder.ID != profile.ID {
			return pkgerrors.New(pkgerrors.CodeConflict, "license number is already registered")
		}

		now := s.now()
		profile.LicenseNumber = &license
		profile.LicenseExpiry = input.LicenseExpiry
		profile.Documents = input.Documents
		profile.VerificationStatus = enums.VerificationStatusPending
		profile.SubmittedAt = &now
		profile.VerifiedAt = nil
		profile.ReviewerID = nil
		profile.AdminNotes = ""
		profile.Visible = false
		if err := repo.Update(ctx, profile); err != nil {
			return err
		}
		updated = profile
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.dropCachedListings(ctx, updated.Category)
	return updated, nil
}

// Review records an admin decision on a pending submission. Approval makes
// the profile publicly discoverable.
func (s *service) Review(ctx context.Context, reviewerID, profileID uuid.UUID, input ReviewInput) (*models.ProfessionalProfile, error) {
	if reviewerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reviewer id is required")
	}
	if profileID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "profile id is required")
	}
	if input.Decision != DecisionApprove && input.Decision != DecisionReject {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown decision %q", input.Decision))
	}
	if input.Decision == DecisionReject && strings.TrimSpace(input.Notes) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection requires notes")
	}

	var updated *models.ProfessionalProfile
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.profileRepo.WithTx(tx)
		profile, err := repo.FindByID(ctx, profileID)
		if err != nil {
			return err
		}
		if profile == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "professional profile not found")
		}
		if profile.VerificationStatus != enums.VerificationStatusPending || profile.SubmittedAt == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("profile is not awaiting review (status=%s)", profile.VerificationStatus))
		}

		now := s.now()
		profile.ReviewerID = &reviewerID
		profile.AdminNotes = strings.TrimSpace(input.Notes)
		switch input.Decision {
		case DecisionApprove:
			profile.VerificationStatus = enums.VerificationStatusApproved
			profile.VerifiedAt = &now
			profile.Visible = true
		case DecisionReject:
			profile.VerificationStatus = enums.VerificationStatusRejected
			profile.VerifiedAt = nil
			profile.Visible = false
		}
		if err := repo.Update(ctx, profile); err != nil {
			return err
		}
		updated = profile
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.dropCachedListings(ctx, updated.Category)
	return updated, nil
}

// dropCachedListings evicts cached search results for the profile's
// population. Visibility changes here must not wait out the search cache TTL.
func (s *service) dropCachedListings(ctx context.Context, category enums.ProfessionalCategory) {
	if s.listings == nil {
		return
	}
	s.listings.Invalidate(ctx, discovery.KindForCategory(category))
}

// ListPending pages through the review queue.
func (s *service) ListPending(ctx context.Context, params pagination.Params) ([]models.ProfessionalProfile, *pagination.Cursor, error) {
	profiles, cursor, err := s.profileRepo.ListPendingReview(ctx, params)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending reviews")
	}
	return profiles, cursor, nil
}
