package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vetlink/backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	AccountID uuid.UUID
	Subject   string
	Role      enums.AccountRole
	JTI       string
}

// AccessTokenClaims represents the typed JWT issued by the identity provider.
type AccessTokenClaims struct {
	AccountID uuid.UUID         `json:"account_id"`
	Role      enums.AccountRole `json:"role"`
	jwt.RegisteredClaims
}

// Principal is the resolved caller identity attached to request contexts.
// AccountID is the single, non-optional identifier for the account.
type Principal struct {
	AccountID uuid.UUID
	Subject   string
	Role      enums.AccountRole
}
