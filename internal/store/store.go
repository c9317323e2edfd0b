package store

import (
	"context"
	"errors"

	"FundusCheckout/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInsufficientPoints = errors.New("insufficient fundus points")
	ErrDuplicateSignature = errors.New("signature already settled")
)

type Store struct {
	Pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{Pool: pool}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *Store) GetMedication(ctx context.Context, id string) (*models.Medication, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, name, price_cents FROM medications WHERE id=$1
	`, id)

	var med models.Medication
	if err := row.Scan(&med.ID, &med.Name, &med.PriceCents); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &med, nil
}

// GetMedications resolves a batch of catalog ids. Missing ids are simply
// absent from the map; the caller decides whether that aborts the call.
func (s *Store) GetMedications(ctx context.Context, ids []string) (map[string]models.Medication, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, name, price_cents FROM medications WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]models.Medication, len(ids))
	for rows.Next() {
		var med models.Medication
		if err := rows.Scan(&med.ID, &med.Name, &med.PriceCents); err != nil {
			return nil, err
		}
		out[med.ID] = med
	}
	return out, rows.Err()
}

func (s *Store) GetCustomer(ctx context.Context, accountID string) (*models.Customer, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT account_id, fundus_points, wallet_address
		FROM customers WHERE account_id=$1
	`, accountID)

	var c models.Customer
	if err := row.Scan(&c.AccountID, &c.FundusPoints, &c.WalletAddress); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *Store) UpdateWalletAddress(ctx context.Context, accountID, address string) error {
	res, err := s.Pool.Exec(ctx, `
		UPDATE customers SET wallet_address=$2 WHERE account_id=$1
	`, accountID, address)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// debitFundusPoints is a conditional decrement: it succeeds only when the
// balance covers the amount, so concurrent redemptions can never drive a
// balance negative. Runs on the pool or inside a transaction.
func debitFundusPoints(ctx context.Context, q rowQuerier, accountID string, amount int64) (int64, error) {
	row := q.QueryRow(ctx, `
		UPDATE customers
		SET fundus_points = fundus_points - $2
		WHERE account_id=$1 AND fundus_points >= $2
		RETURNING fundus_points
	`, accountID, amount)

	var balance int64
	if err := row.Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrInsufficientPoints
		}
		return 0, err
	}
	return balance, nil
}
