package auth

import (
	"context"
	"errors"

	"FundusCheckout/internal/models"
)

var ErrUnauthorized = errors.New("unauthorized")

// Identity is the acting principal, resolved once per request at the
// session boundary. The customer profile is present only for the customer
// role.
type Identity struct {
	AccountID string
	Email     string
	Role      models.Role
	Customer  *models.Customer
}

func (i Identity) IsCustomer() bool {
	return i.Role == models.RoleCustomer && i.Customer != nil
}

// SessionValidator resolves an opaque session token to an identity.
// Session issuance itself lives outside this service.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (Identity, error)
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
