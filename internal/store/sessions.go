package store

import (
	"context"
	"errors"

	"FundusCheckout/internal/auth"
	"FundusCheckout/internal/models"

	"github.com/jackc/pgx/v5"
)

// ValidateSession resolves a session token to a role-tagged identity.
// Expired or unknown tokens are uniformly unauthorized; the handler never
// learns which.
func (s *Store) ValidateSession(ctx context.Context, token string) (auth.Identity, error) {
	if token == "" {
		return auth.Identity{}, auth.ErrUnauthorized
	}

	row := s.Pool.QueryRow(ctx, `
		SELECT a.id, a.email, a.role, c.fundus_points, c.wallet_address
		FROM sessions s
		JOIN accounts a ON a.id = s.account_id
		LEFT JOIN customers c ON c.account_id = a.id
		WHERE s.id=$1 AND s.expires_at > now()
	`, token)

	var (
		id           auth.Identity
		fundusPoints *int64
		wallet       *string
	)
	if err := row.Scan(&id.AccountID, &id.Email, &id.Role, &fundusPoints, &wallet); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.Identity{}, auth.ErrUnauthorized
		}
		return auth.Identity{}, err
	}

	if id.Role == models.RoleCustomer && fundusPoints != nil {
		id.Customer = &models.Customer{
			AccountID:     id.AccountID,
			FundusPoints:  *fundusPoints,
			WalletAddress: wallet,
		}
	}
	return id, nil
}
