package services

import (
	"context"
	"errors"

	"FundusCheckout/internal/models"
	"FundusCheckout/internal/store"
)

var (
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
	ErrMedicationNotFound = errors.New("medication not found")
	ErrCartItemNotFound   = errors.New("cart item not found")
)

type CartStore interface {
	GetOrCreateCart(ctx context.Context, customerID string) (*models.CartWithItems, error)
	AddCartItem(ctx context.Context, customerID, medicationID string, quantity, priceCents int64) (*models.CartItem, error)
	UpdateCartItemQuantity(ctx context.Context, customerID, itemID string, quantity int64) (*models.CartItem, error)
	RemoveCartItem(ctx context.Context, customerID, itemID string) (bool, error)
	EmptyCart(ctx context.Context, customerID string) (bool, error)
	GetMedication(ctx context.Context, id string) (*models.Medication, error)
}

type CartService struct {
	Store CartStore
}

func (s CartService) GetCart(ctx context.Context, customerID string) (*models.CartWithItems, error) {
	return s.Store.GetOrCreateCart(ctx, customerID)
}

// AddItem snapshots the medication's current catalog price on first add; a
// repeated add accumulates quantity and keeps the old snapshot.
func (s CartService) AddItem(ctx context.Context, customerID, medicationID string, quantity int64) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	med, err := s.Store.GetMedication(ctx, medicationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrMedicationNotFound
		}
		return nil, err
	}

	return s.Store.AddCartItem(ctx, customerID, medicationID, quantity, med.PriceCents)
}

// UpdateItemQuantity rejects quantity < 1 outright; removal is a separate,
// explicit operation.
func (s CartService) UpdateItemQuantity(ctx context.Context, customerID, itemID string, quantity int64) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	item, err := s.Store.UpdateCartItemQuantity(ctx, customerID, itemID, quantity)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}
	return item, nil
}

func (s CartService) RemoveItem(ctx context.Context, customerID, itemID string) (bool, error) {
	return s.Store.RemoveCartItem(ctx, customerID, itemID)
}

func (s CartService) EmptyCart(ctx context.Context, customerID string) (bool, error) {
	return s.Store.EmptyCart(ctx, customerID)
}
