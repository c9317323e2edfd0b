package store

import (
	"context"
	"errors"
	"time"

	"FundusCheckout/internal/models"

	"github.com/jackc/pgx/v5"
)

// SettlementParams is one unit of recovery: order items, the order total,
// cart pruning, the point debit, and the payment backfill commit together
// or not at all.
type SettlementParams struct {
	OrderID              string
	CustomerID           string
	Items                []models.OrderItem
	TotalCents           int64
	FundusPointsUsed     int64
	PaymentTransactionID *string
}

// SettleOrder materializes an order in a single transaction. The order row
// may pre-exist as a zero-total placeholder (chain path) or be created here
// (loyalty-only path); either way finalization is conditional on the row
// still being an unsettled placeholder, so a second materialization of the
// same order id affects zero rows and rolls back.
func (s *Store) SettleOrder(ctx context.Context, params SettlementParams) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, customer_id, status, total_cents, fundus_points_used)
		VALUES ($1, $2, 'pending', 0, 0)
		ON CONFLICT (id) DO NOTHING
	`, params.OrderID, params.CustomerID)
	if err != nil {
		return err
	}

	medicationIDs := make([]string, 0, len(params.Items))
	for _, item := range params.Items {
		medicationIDs = append(medicationIDs, item.MedicationID)
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, medication_id, quantity, price_cents)
			VALUES ($1, $2, $3, $4, $5)
		`, item.ID, params.OrderID, item.MedicationID, item.Quantity, item.PriceCents)
		if err != nil {
			return err
		}
	}

	res, err := tx.Exec(ctx, `
		UPDATE orders
		SET total_cents=$3, fundus_points_used=$4, status='processing', updated_at=now()
		WHERE id=$1 AND customer_id=$2 AND status='pending' AND total_cents=0
	`, params.OrderID, params.CustomerID, params.TotalCents, params.FundusPointsUsed)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}

	_, err = tx.Exec(ctx, `
		DELETE FROM cart_items
		USING carts
		WHERE cart_items.cart_id = carts.id
		  AND carts.customer_id=$1
		  AND cart_items.medication_id = ANY($2)
	`, params.CustomerID, medicationIDs)
	if err != nil {
		return err
	}

	if params.FundusPointsUsed > 0 {
		if _, err := debitFundusPoints(ctx, tx, params.CustomerID, params.FundusPointsUsed); err != nil {
			return err
		}
	}

	// The payment must still be the pending row the confirm step linked to
	// this very placeholder. A payment already completed against another
	// order, or failed by the reconciliation sweep, matches zero rows and
	// rolls the whole settlement back.
	if params.PaymentTransactionID != nil {
		res, err = tx.Exec(ctx, `
			UPDATE payment_transactions
			SET status='completed'
			WHERE id=$1 AND customer_id=$3 AND order_id=$2 AND status='pending'
		`, *params.PaymentTransactionID, params.OrderID, params.CustomerID)
		if err != nil {
			return err
		}
		if res.RowsAffected() == 0 {
			return ErrNotFound
		}
	}

	return tx.Commit(ctx)
}

// GetOrder returns an order with its items, scoped to the owning customer.
func (s *Store) GetOrder(ctx context.Context, customerID, orderID string) (*models.OrderWithItems, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, customer_id, status, total_cents, fundus_points_used, created_at, updated_at
		FROM orders WHERE id=$1 AND customer_id=$2
	`, orderID, customerID)

	var order models.OrderWithItems
	err := row.Scan(&order.ID, &order.CustomerID, &order.Status, &order.TotalCents,
		&order.FundusPointsUsed, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rows, err := s.Pool.Query(ctx, `
		SELECT id, order_id, medication_id, quantity, price_cents
		FROM order_items WHERE order_id=$1
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.MedicationID, &item.Quantity, &item.PriceCents); err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}
	return &order, rows.Err()
}

// ListStalePlaceholderOrders finds confirm-path orders whose client never
// came back to materialize them: still pending, zero total, older than the
// cutoff. The reconciliation worker cancels these.
func (s *Store) ListStalePlaceholderOrders(ctx context.Context, cutoff time.Time) ([]models.Order, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, customer_id, status, total_cents, fundus_points_used, created_at, updated_at
		FROM orders
		WHERE status='pending' AND total_cents=0 AND created_at < $1
	`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		if err := rows.Scan(&order.ID, &order.CustomerID, &order.Status, &order.TotalCents,
			&order.FundusPointsUsed, &order.CreatedAt, &order.UpdatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

// CancelPlaceholderOrder cancels a stale placeholder and fails its linked
// payment rows. The status guard makes it race-safe against a late
// materialization: whichever conditional update lands first wins.
func (s *Store) CancelPlaceholderOrder(ctx context.Context, orderID string) (bool, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	res, err := tx.Exec(ctx, `
		UPDATE orders
		SET status='cancelled', updated_at=now()
		WHERE id=$1 AND status='pending' AND total_cents=0
	`, orderID)
	if err != nil {
		return false, err
	}
	if res.RowsAffected() == 0 {
		return false, tx.Commit(ctx)
	}

	_, err = tx.Exec(ctx, `
		UPDATE payment_transactions
		SET status='failed'
		WHERE order_id=$1 AND status='pending'
	`, orderID)
	if err != nil {
		return false, err
	}

	return true, tx.Commit(ctx)
}
