package store

import (
	"context"
	"errors"

	"FundusCheckout/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// GetOrCreateCart returns the customer's cart with items in insertion
// order, creating an empty cart on first read. The unique constraint on
// customer_id keeps concurrent first reads from producing two carts.
func (s *Store) GetOrCreateCart(ctx context.Context, customerID string) (*models.CartWithItems, error) {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO carts (id, customer_id) VALUES ($1, $2)
		ON CONFLICT (customer_id) DO NOTHING
	`, uuid.NewString(), customerID)
	if err != nil {
		return nil, err
	}

	row := s.Pool.QueryRow(ctx, `
		SELECT id, customer_id, created_at, updated_at
		FROM carts WHERE customer_id=$1
	`, customerID)

	var cart models.CartWithItems
	if err := row.Scan(&cart.ID, &cart.CustomerID, &cart.CreatedAt, &cart.UpdatedAt); err != nil {
		return nil, err
	}

	rows, err := s.Pool.Query(ctx, `
		SELECT id, cart_id, medication_id, quantity, price_cents, created_at
		FROM cart_items WHERE cart_id=$1
		ORDER BY created_at, id
	`, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item models.CartItem
		if err := rows.Scan(&item.ID, &item.CartID, &item.MedicationID, &item.Quantity, &item.PriceCents, &item.CreatedAt); err != nil {
			return nil, err
		}
		cart.Items = append(cart.Items, item)
	}
	return &cart, rows.Err()
}

// AddCartItem upserts one line: a repeated add of the same medication
// accumulates quantity on the existing row and keeps the original price
// snapshot.
func (s *Store) AddCartItem(ctx context.Context, customerID, medicationID string, quantity, priceCents int64) (*models.CartItem, error) {
	cart, err := s.GetOrCreateCart(ctx, customerID)
	if err != nil {
		return nil, err
	}

	row := s.Pool.QueryRow(ctx, `
		INSERT INTO cart_items (id, cart_id, medication_id, quantity, price_cents)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (cart_id, medication_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING id, cart_id, medication_id, quantity, price_cents, created_at
	`, uuid.NewString(), cart.ID, medicationID, quantity, priceCents)

	var item models.CartItem
	if err := row.Scan(&item.ID, &item.CartID, &item.MedicationID, &item.Quantity, &item.PriceCents, &item.CreatedAt); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpdateCartItemQuantity(ctx context.Context, customerID, itemID string, quantity int64) (*models.CartItem, error) {
	row := s.Pool.QueryRow(ctx, `
		UPDATE cart_items SET quantity=$3
		FROM carts
		WHERE cart_items.id=$2
		  AND cart_items.cart_id = carts.id
		  AND carts.customer_id=$1
		RETURNING cart_items.id, cart_items.cart_id, cart_items.medication_id,
			cart_items.quantity, cart_items.price_cents, cart_items.created_at
	`, customerID, itemID, quantity)

	var item models.CartItem
	if err := row.Scan(&item.ID, &item.CartID, &item.MedicationID, &item.Quantity, &item.PriceCents, &item.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// RemoveCartItem deletes an item scoped to the caller's own cart. Removing
// twice is not an error; the second call reports false.
func (s *Store) RemoveCartItem(ctx context.Context, customerID, itemID string) (bool, error) {
	res, err := s.Pool.Exec(ctx, `
		DELETE FROM cart_items
		USING carts
		WHERE cart_items.id=$2
		  AND cart_items.cart_id = carts.id
		  AND carts.customer_id=$1
	`, customerID, itemID)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

// EmptyCart deletes all items but keeps the cart row, so the next read does
// not have to recreate it.
func (s *Store) EmptyCart(ctx context.Context, customerID string) (bool, error) {
	res, err := s.Pool.Exec(ctx, `
		DELETE FROM cart_items
		USING carts
		WHERE cart_items.cart_id = carts.id
		  AND carts.customer_id=$1
	`, customerID)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}
