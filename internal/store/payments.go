package store

import (
	"context"

	"github.com/google/uuid"
)

// CreatePaymentWithOrder records a verified chain transfer and its
// placeholder order in one transaction. The unique signature constraint
// rejects a replayed signature, and the rollback takes the placeholder
// order with it, so a replay creates nothing.
func (s *Store) CreatePaymentWithOrder(ctx context.Context, customerID string, amountUSDCents, amountLamports int64, signature string) (orderID, transactionID string, err error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return "", "", err
	}
	defer tx.Rollback(ctx)

	orderID = uuid.NewString()
	transactionID = uuid.NewString()

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, customer_id, status, total_cents, fundus_points_used)
		VALUES ($1, $2, 'pending', 0, 0)
	`, orderID, customerID)
	if err != nil {
		return "", "", err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO payment_transactions (id, customer_id, order_id, amount_usd_cents, amount_lamports, signature, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending')
	`, transactionID, customerID, orderID, amountUSDCents, amountLamports, signature)
	if err != nil {
		if isUniqueViolation(err) {
			return "", "", ErrDuplicateSignature
		}
		return "", "", err
	}

	return orderID, transactionID, tx.Commit(ctx)
}
