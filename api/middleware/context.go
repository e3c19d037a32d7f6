package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/vetlink/backend/pkg/auth"
	"github.com/vetlink/backend/pkg/enums"
)

type contextKey string

const (
	ctxAccountID contextKey = "account_id"
	ctxRole      contextKey = "actor_role"
	ctxPrincipal contextKey = "principal"
)

func AccountIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxAccountID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

func RoleFromContext(ctx context.Context) enums.AccountRole {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(enums.AccountRole); ok {
		return v
	}
	return ""
}

func PrincipalFromContext(ctx context.Context) *auth.Principal {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxPrincipal).(*auth.Principal); ok {
		return v
	}
	return nil
}

// WithPrincipal seeds the context with the resolved caller identity.
func WithPrincipal(ctx context.Context, principal *auth.Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if principal == nil {
		return ctx
	}
	ctx = context.WithValue(ctx, ctxPrincipal, principal)
	ctx = context.WithValue(ctx, ctxAccountID, principal.AccountID)
	return context.WithValue(ctx, ctxRole, principal.Role)
}
