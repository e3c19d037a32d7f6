package subscriptions

import (
	"context"

	"github.com/google/uuid"

	"github.com/vetlink/backend/pkg/db/models"
)

type profileFinder interface {
	FindByAccountID(ctx context.Context, accountID uuid.UUID) (*models.ProfessionalProfile, error)
}

type shopFinder interface {
	FindByOwnerID(ctx context.Context, ownerID uuid.UUID) (*models.ShopProfile, error)
}

// EntityChecker answers whether an account owns a business entity. Owning one
// is a precondition for purchasing a business-track plan: there is no
// professional subscription without a professional or shop profile behind it.
type EntityChecker struct {
	Profiles profileFinder
	Shops    shopFinder
}

func (c EntityChecker) HasBusinessEntity(ctx context.Context, accountID uuid.UUID) (bool, error) {
	if c.Profiles != nil {
		profile, err := c.Profiles.FindByAccountID(ctx, accountID)
		if err != nil {
			return false, err
		}
		if profile != nil {
			return true, nil
		}
	}
	if c.Shops != nil {
		shop, err := c.Shops.FindByOwnerID(ctx, accountID)
		if err != nil {
			return false, err
		}
		if shop != nil && shop.DeletedAt == nil {
			return true, nil
		}
	}
	return false, nil
}
