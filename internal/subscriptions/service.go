package subscriptions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vetlink/backend/internal/accounts"
	"github.com/vetlink/backend/pkg/db/models"
	"github.com/vetlink/backend/pkg/enums"
	pkgerrors "github.com/vetlink/backend/pkg/errors"
	"github.com/vetlink/backend/pkg/paystack"
)

type paymentGateway interface {
	Initialize(ctx context.Context, req paystack.InitializeRequest) (*paystack.InitializeResult, error)
	Verify(ctx context.Context, reference string) (*paystack.VerifyResult, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type businessEntityChecker interface {
	HasBusinessEntity(ctx context.Context, accountID uuid.UUID) (bool, error)
}

// Service defines the subscription lifecycle surface.
type Service interface {
	Initiate(ctx context.Context, accountID uuid.UUID, plan enums.SubscriptionPlan) (*InitiateResult, error)
	Confirm(ctx context.Context, reference string) (*ConfirmResult, error)
	Cancel(ctx context.Context, accountID uuid.UUID) (*Entitlement, error)
	EvaluateActive(ctx context.Context, accountID uuid.UUID) (*Entitlement, error)
	Snapshot(ctx context.Context, accountID uuid.UUID) (*Snapshot, error)
	Pricing() []PlanPricing
	Stats(ctx context.Context) (*Stats, error)
}

// ServiceParams groups dependencies for the subscription service.
type ServiceParams struct {
	AccountRepo       accounts.Repository
	SubscriptionRepo  Repository
	Gateway           paymentGateway
	BusinessEntities  businessEntityChecker
	TransactionRunner txRunner
	Clock             func() time.Time
}

// InitiateResult is the checkout handle returned to the client.
type InitiateResult struct {
	AuthorizationURL string                 `json:"authorization_url"`
	AccessCode       string                 `json:"access_code,omitempty"`
	Reference        string                 `json:"reference"`
	Plan             enums.SubscriptionPlan `json:"plan"`
	Amount           decimal.Decimal        `json:"amount"`
}

// ConfirmResult reports the outcome of settling a payment reference.
type ConfirmResult struct {
	Entitlement      Entitlement `json:"entitlement"`
	AlreadyProcessed bool        `json:"already_processed"`
}

// Snapshot is the subscription view served on the profile endpoint.
type Snapshot struct {
	Entitlement   Entitlement `json:"entitlement"`
	DaysRemaining int         `json:"days_remaining"`
}

// PlanPricing is the public price-list entry.
type PlanPricing struct {
	Plan     enums.SubscriptionPlan  `json:"plan"`
	Track    enums.SubscriptionTrack `json:"track"`
	Amount   decimal.Decimal         `json:"amount"`
	Currency string                  `json:"currency"`
	Interval enums.BillingInterval   `json:"interval"`
}

// Stats summarizes subscription volume for the admin dashboard.
type Stats struct {
	ActiveConsumers  int64                              `json:"active_consumers"`
	BusinessByStatus map[enums.SubscriptionStatus]int64 `json:"business_by_status"`
}

type service struct {
	accountRepo accounts.Repository
	subRepo     Repository
	gateway     paymentGateway
	entities    businessEntityChecker
	txRunner    txRunner
	now         func() time.Time
}

// NewService builds a subscription service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.AccountRepo == nil {
		return nil, fmt.Errorf("account repo required")
	}
	if params.SubscriptionRepo == nil {
		return nil, fmt.Errorf("subscription repo required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if params.BusinessEntities == nil {
		return nil, fmt.Errorf("business entity checker required")
	}
	if params.TransactionRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	now := params.Clock
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		accountRepo: params.AccountRepo,
		subRepo:     params.SubscriptionRepo,
		gateway:     params.Gateway,
		entities:    params.BusinessEntities,
		txRunner:    params.TransactionRunner,
		now:         now,
	}, nil
}

// Initiate opens a checkout session for the requested plan and records the
// pending purchase under a fresh payment reference.
func (s *service) Initiate(ctx context.Context, accountID uuid.UUID, planName enums.SubscriptionPlan) (*InitiateResult, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	plan, ok := PlanByName(planName)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown plan %q", planName))
	}

	account, err := s.loadAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if err := planAllowedForRole(plan, account.Role); err != nil {
		return nil, err
	}
	if strings.TrimSpace(account.Email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a contact email is required for checkout")
	}
	if plan.Track == enums.SubscriptionTrackBusiness {
		owns, err := s.entities.HasBusinessEntity(ctx, accountID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup business entity")
		}
		if !owns {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden,
				"a professional or shop profile is required before subscribing")
		}
	}

	// Any active subscription blocks a new purchase, keeping at most one
	// active record per account. Cancelled-but-covered entitlements do not
	// block: the replacement activates alongside a record that is already
	// terminal.
	if existing, err := s.EvaluateActive(ctx, accountID); err != nil {
		return nil, err
	} else if existing.Active && existing.Status == enums.SubscriptionStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "an active subscription already exists").
			WithDetails(map[string]any{"plan": existing.Plan, "end": existing.End})
	}

	// The gateway call runs inside the transaction so a failure on either side
	// rolls the whole attempt back; no pending row survives without a live
	// checkout session behind it.
	reference := "vlsub_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	var session *paystack.InitializeResult
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		sess, err := s.gateway.Initialize(ctx, paystack.InitializeRequest{
			Email:     account.Email,
			Amount:    plan.Amount,
			Reference: reference,
			Metadata: map[string]any{
				"account_id": account.ID.String(),
				"plan":       plan.Name.String(),
			},
		})
		if err != nil {
			return err
		}
		if sess.Reference != "" {
			reference = sess.Reference
		}
		session = sess

		switch plan.Track {
		case enums.SubscriptionTrackConsumer:
			return s.stagePendingConsumer(ctx, tx, account.ID, plan, reference)
		default:
			return s.stagePendingBusiness(ctx, tx, account.ID, plan, reference)
		}
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist pending subscription")
	}

	return &InitiateResult{
		AuthorizationURL: session.AuthorizationURL,
		AccessCode:       session.AccessCode,
		Reference:        reference,
		Plan:             plan.Name,
		Amount:           plan.Amount,
	}, nil
}

func (s *service) stagePendingConsumer(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, plan Plan, reference string) error {
	repo := s.accountRepo.WithTx(tx)
	account, err := repo.FindByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
	}

	now := s.now()
	end := plan.PeriodEnd(now)
	planName := plan.Name
	status := enums.SubscriptionStatusPending
	amount := plan.Amount

	account.SubscriptionPlan = &planName
	account.SubscriptionStatus = &status
	account.SubscriptionAmount = &amount
	account.SubscriptionStart = nil
	account.SubscriptionEnd = &end
	account.SubscriptionPaymentRef = &reference
	account.SubscriptionSettlementRef = nil
	return repo.Update(ctx, account)
}

func (s *service) stagePendingBusiness(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, plan Plan, reference string) error {
	now := s.now()
	record := &models.SubscriptionRecord{
		AccountID:        accountID,
		Plan:             plan.Name,
		Amount:           plan.Amount,
		Status:           enums.SubscriptionStatusPending,
		EndDate:          plan.PeriodEnd(now),
		PaymentReference: &reference,
	}
	return s.subRepo.WithTx(tx).Create(ctx, record)
}

// Confirm settles a payment reference: it verifies the charge with the
// gateway and activates the staged purchase. Redelivery of an already-settled
// reference is a no-op, so webhook retries are safe.
func (s *service) Confirm(ctx context.Context, reference string) (*ConfirmResult, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference is required")
	}

	verification, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		return nil, err
	}
	if !verification.Succeeded() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("payment not settled (status=%s)", verification.Status))
	}

	// The reference lookups take row locks so concurrent deliveries of the
	// same reference serialize: the second one blocks, then reads the settled
	// row and reports it as already processed.
	var result ConfirmResult
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		accountRepo := s.accountRepo.WithTx(tx)
		account, err := accountRepo.FindBySubscriptionPaymentRefForUpdate(ctx, reference)
		if err != nil {
			return err
		}
		if account != nil {
			return s.confirmConsumer(ctx, accountRepo, account, verification, &result)
		}

		subRepo := s.subRepo.WithTx(tx)
		record, err := subRepo.FindByPaymentReferenceForUpdate(ctx, reference)
		if err != nil {
			return err
		}
		if record == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "payment reference not found")
		}
		return s.confirmBusiness(ctx, subRepo, record, verification, &result)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *service) confirmConsumer(ctx context.Context, repo accounts.Repository, account *models.Account, verification *paystack.VerifyResult, result *ConfirmResult) error {
	status := derefStatus(account.SubscriptionStatus)
	switch status {
	case enums.SubscriptionStatusActive:
		if account.SubscriptionSettlementRef != nil {
			result.AlreadyProcessed = true
			result.Entitlement = s.consumerEntitlement(account)
			return nil
		}
	case enums.SubscriptionStatusPending:
		// fall through to activation
	default:
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("subscription not awaiting payment (status=%s)", status))
	}

	now := s.now()
	plan, ok := PlanByName(derefPlan(account.SubscriptionPlan))
	if !ok {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "staged plan no longer in catalog")
	}
	end := plan.PeriodEnd(now)
	active := enums.SubscriptionStatusActive
	settlement := verification.TransactionID

	account.SubscriptionStatus = &active
	account.SubscriptionStart = &now
	account.SubscriptionEnd = &end
	account.SubscriptionSettlementRef = &settlement
	if err := repo.Update(ctx, account); err != nil {
		return err
	}
	result.Entitlement = s.consumerEntitlement(account)
	return nil
}

func (s *service) confirmBusiness(ctx context.Context, repo Repository, record *models.SubscriptionRecord, verification *paystack.VerifyResult, result *ConfirmResult) error {
	switch record.Status {
	case enums.SubscriptionStatusActive:
		if record.SettlementReference != nil {
			result.AlreadyProcessed = true
			result.Entitlement = s.businessEntitlement(record)
			return nil
		}
	case enums.SubscriptionStatusPending:
		// fall through to activation
	default:
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("subscription not awaiting payment (status=%s)", record.Status))
	}

	now := s.now()
	plan, ok := PlanByName(record.Plan)
	if !ok {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "staged plan no longer in catalog")
	}
	settlement := verification.TransactionID

	record.Status = enums.SubscriptionStatusActive
	record.StartDate = &now
	record.EndDate = plan.PeriodEnd(now)
	record.SettlementReference = &settlement
	if err := repo.Update(ctx, record); err != nil {
		return err
	}
	result.Entitlement = s.businessEntitlement(record)
	return nil
}

// Cancel marks the caller's subscription cancelled. The end date is left
// untouched, so coverage continues until it passes. Repeat cancellation is a
// no-op returning the current state.
func (s *service) Cancel(ctx context.Context, accountID uuid.UUID) (*Entitlement, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}

	var entitlement Entitlement
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		accountRepo := s.accountRepo.WithTx(tx)
		account, err := accountRepo.FindByID(ctx, accountID)
		if err != nil {
			return err
		}
		if account == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}

		if account.Role == enums.AccountRoleConsumer {
			switch derefStatus(account.SubscriptionStatus) {
			case enums.SubscriptionStatusActive:
				cancelled := enums.SubscriptionStatusCancelled
				account.SubscriptionStatus = &cancelled
				if err := accountRepo.Update(ctx, account); err != nil {
					return err
				}
			case enums.SubscriptionStatusCancelled:
				// Repeat cancellation reports the current state.
			default:
				return pkgerrors.New(pkgerrors.CodeStateConflict, "no active subscription to cancel")
			}
			entitlement = s.consumerEntitlement(account)
			return nil
		}

		subRepo := s.subRepo.WithTx(tx)
		record, err := subRepo.FindLatestByAccount(ctx, accountID)
		if err != nil {
			return err
		}
		if record == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "no active subscription to cancel")
		}
		switch record.Status {
		case enums.SubscriptionStatusActive:
			record.Status = enums.SubscriptionStatusCancelled
			if err := subRepo.Update(ctx, record); err != nil {
				return err
			}
		case enums.SubscriptionStatusCancelled:
			// Repeat cancellation reports the current state.
		default:
			return pkgerrors.New(pkgerrors.CodeStateConflict, "no active subscription to cancel")
		}
		entitlement = s.businessEntitlement(record)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entitlement, nil
}

// EvaluateActive resolves the caller's entitlement. A stored active status
// whose end date has passed is persisted as expired before returning.
func (s *service) EvaluateActive(ctx context.Context, accountID uuid.UUID) (*Entitlement, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}

	account, err := s.loadAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if account.Role == enums.AccountRoleConsumer {
		entitlement := s.consumerEntitlement(account)
		if entitlement.Lapsed {
			if err := s.persistConsumerExpiry(ctx, account.ID); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist lapsed subscription")
			}
		}
		return &entitlement, nil
	}

	record, err := s.subRepo.FindLatestByAccount(ctx, accountID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup subscription")
	}
	if record == nil {
		return &Entitlement{Track: enums.SubscriptionTrackBusiness}, nil
	}
	entitlement := s.businessEntitlement(record)
	if entitlement.Lapsed {
		if err := s.persistBusinessExpiry(ctx, record); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist lapsed subscription")
		}
	}
	return &entitlement, nil
}

// Snapshot returns the profile view of the caller's subscription.
func (s *service) Snapshot(ctx context.Context, accountID uuid.UUID) (*Snapshot, error) {
	entitlement, err := s.EvaluateActive(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Entitlement:   *entitlement,
		DaysRemaining: entitlement.DaysRemaining(s.now()),
	}, nil
}

// Pricing returns the public price list.
func (s *service) Pricing() []PlanPricing {
	out := make([]PlanPricing, 0, len(catalog))
	for _, p := range catalog {
		out = append(out, PlanPricing{
			Plan:     p.Name,
			Track:    p.Track,
			Amount:   p.Amount,
			Currency: "NGN",
			Interval: p.Interval,
		})
	}
	return out
}

// Stats summarizes subscription volume across both tracks.
func (s *service) Stats(ctx context.Context) (*Stats, error) {
	now := s.now()
	activeConsumers, err := s.accountRepo.CountActiveSubscriptions(ctx, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count consumer subscriptions")
	}
	byStatus, err := s.subRepo.CountByStatus(ctx, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count business subscriptions")
	}
	return &Stats{
		ActiveConsumers:  activeConsumers,
		BusinessByStatus: byStatus,
	}, nil
}

func (s *service) loadAccount(ctx context.Context, accountID uuid.UUID) (*models.Account, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup account")
	}
	if account == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
	}
	return account, nil
}

func (s *service) consumerEntitlement(account *models.Account) Entitlement {
	return evaluate(
		enums.SubscriptionTrackConsumer,
		derefPlan(account.SubscriptionPlan),
		derefStatus(account.SubscriptionStatus),
		account.SubscriptionAmount,
		account.SubscriptionStart,
		account.SubscriptionEnd,
		s.now(),
	)
}

func (s *service) businessEntitlement(record *models.SubscriptionRecord) Entitlement {
	end := record.EndDate
	return evaluate(
		enums.SubscriptionTrackBusiness,
		record.Plan,
		record.Status,
		&record.Amount,
		record.StartDate,
		&end,
		s.now(),
	)
}

func (s *service) persistConsumerExpiry(ctx context.Context, accountID uuid.UUID) error {
	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.accountRepo.WithTx(tx)
		account, err := repo.FindByID(ctx, accountID)
		if err != nil {
			return err
		}
		if account == nil {
			return nil
		}
		if derefStatus(account.SubscriptionStatus) != enums.SubscriptionStatusActive {
			return nil
		}
		expired := enums.SubscriptionStatusExpired
		account.SubscriptionStatus = &expired
		return repo.Update(ctx, account)
	})
}

func (s *service) persistBusinessExpiry(ctx context.Context, record *models.SubscriptionRecord) error {
	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.subRepo.WithTx(tx)
		stored, err := repo.FindByPaymentReference(ctx, derefString(record.PaymentReference))
		if err != nil {
			return err
		}
		if stored == nil {
			stored = record
		}
		if stored.Status != enums.SubscriptionStatusActive {
			return nil
		}
		stored.Status = enums.SubscriptionStatusExpired
		return repo.Update(ctx, stored)
	})
}

func planAllowedForRole(plan Plan, role enums.AccountRole) error {
	switch plan.Track {
	case enums.SubscriptionTrackConsumer:
		if role != enums.AccountRoleConsumer {
			return pkgerrors.New(pkgerrors.CodeForbidden, "plan is reserved for pet owners")
		}
	case enums.SubscriptionTrackBusiness:
		if role != enums.AccountRoleProfessional {
			return pkgerrors.New(pkgerrors.CodeForbidden, "plan is reserved for professionals")
		}
	}
	return nil
}

func derefPlan(p *enums.SubscriptionPlan) enums.SubscriptionPlan {
	if p == nil {
		return ""
	}
	return *p
}

func derefStatus(s *enums.SubscriptionStatus) enums.SubscriptionStatus {
	if s == nil {
		return ""
	}
	return *s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
