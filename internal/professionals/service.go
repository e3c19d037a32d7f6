package professionals

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vetlink/backend/internal/discovery"
	"github.com/vetlink/backend/pkg/db/models"
	"github.com/vetlink/backend/pkg/enums"
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

// Service manages professional profile onboarding. Credential review lives in
// the verification service; this one only creates and edits the profile shell.
type Service interface {
	CreateProfile(ctx context.Context, accountID uuid.UUID, input ProfileInput) (*models.ProfessionalProfile, error)
	UpdateProfile(ctx context.Context, accountID uuid.UUID, input ProfileInput) (*models.ProfessionalProfile, error)
	GetByAccount(ctx context.Context, accountID uuid.UUID) (*models.ProfessionalProfile, error)
}

// ProfileInput carries the editable profile fields.
type ProfileInput struct {
	BusinessName   string
	Category       enums.ProfessionalCategory
	Specialization string
	Address        string
}

// ServiceParams collects the service dependencies.
type ServiceParams struct {
	ProfileRepo       Repository
	Geocoder          geocoder
	Listings          listingIndex
	TransactionRunner txRunner
	Clock             func() time.Time
}

type service struct {
	profileRepo Repository
	geocoder    geocoder
	listings    listingIndex
	txRunner    txRunner
	now         func() time.Time
}

// NewService builds a professional profile service.
func NewService(params ServiceParams) (Service, error) {
	if params.ProfileRepo == nil {
		return nil, fmt.Errorf("professional repository is required")
	}
	if params.TransactionRunner == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	now := params.Clock
	if now == nil {
		now = time.Now
	}
	return &service{
		profileRepo: params.ProfileRepo,
		geocoder:    params.Geocoder,
		listings:    params.Listings,
		txRunner:    params.TransactionRunner,
		now:         now,
	}, nil
}

// CreateProfile registers the account's business profile. Kennels skip
// credential review and are discoverable immediately; vets stay hidden until
// a verification request is approved.
func (s *service) CreateProfile(ctx context.Context, accountID uuid.UUID, input ProfileInput) (*models.ProfessionalProfile, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	if err := validateProfileInput(input); err != nil {
		return nil, err
	}

	existing, err := s.profileRepo.FindByAccountID(ctx, accountID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "account already has a professional profile")
	}

	profile := &models.ProfessionalProfile{
		ID:             uuid.New(),
		AccountID:      accountID,
		BusinessName:   strings.TrimSpace(input.BusinessName),
		Category:       input.Category,
		Specialization: strings.TrimSpace(input.Specialization),
		Address:        strings.TrimSpace(input.Address),
	}
	s.locate(ctx, profile)

	if !input.Category.RequiresVerification() {
		now := s.now()
		profile.VerificationStatus = enums.VerificationStatusApproved
		profile.VerifiedAt = &now
		profile.Visible = true
	}

	if err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		return s.profileRepo.WithTx(tx).Create(ctx, profile)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create profile")
	}
	s.dropCachedListings(ctx, profile.Category)
	return profile, nil
}

// UpdateProfile edits the profile shell. Category and verification state are
// untouched; an address change re-resolves coordinates.
func (s *service) UpdateProfile(ctx context.Context, accountID uuid.UUID, input ProfileInput) (*models.ProfessionalProfile, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}

	profile, err := s.profileRepo.FindByAccountID(ctx, accountID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	if profile == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "professional profile not found")
	}

	if name := strings.TrimSpace(input.BusinessName); name != "" {
		profile.BusinessName = name
	}
	if spec := strings.TrimSpace(input.Specialization); spec != "" {
		profile.Specialization = spec
	}
	if addr := strings.TrimSpace(input.Address); addr != "" && addr != profile.Address {
		profile.Address = addr
		profile.Latitude = nil
		profile.Longitude = nil
		s.locate(ctx, profile)
	}

	if err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		return s.profileRepo.WithTx(tx).Update(ctx, profile)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
	}
	s.dropCachedListings(ctx, profile.Category)
	return profile, nil
}

func (s *service) GetByAccount(ctx context.Context, accountID uuid.UUID) (*models.ProfessionalProfile, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	profile, err := s.profileRepo.FindByAccountID(ctx, accountID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	if profile == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "professional profile not found")
	}
	return profile, nil
}

// locate resolves the profile address to coordinates. Geocoding is best
// effort; a profile without coordinates is still valid, it just sorts last in
// discovery.
func (s *service) locate(ctx context.Context, profile *models.ProfessionalProfile) {
	if s.geocoder == nil || profile.Address == "" {
		return
	}
	point, err := s.geocoder.Resolve(ctx, profile.Address)
	if err != nil || point == nil {
		return
	}
	profile.Latitude = &point.Latitude
	profile.Longitude = &point.Longitude
}

// dropCachedListings evicts cached search results for the profile's
// population so a committed change shows up on the next search.
func (s *service) dropCachedListings(ctx context.Context, category enums.ProfessionalCategory) {
	if s.listings == nil {
		return
	}
	s.listings.Invalidate(ctx, discovery.KindForCategory(category))
}

func validateProfileInput(input ProfileInput) error {
	if strings.TrimSpace(input.BusinessName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "business name is required")
	}
	if !input.Category.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown category %q", input.Category))
	}
	if strings.TrimSpace(input.Address) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "address is required")
	}
	return nil
}
