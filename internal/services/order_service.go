package services

import (
	"context"
	"errors"
	"fmt"

	"FundusCheckout/internal/models"
	"FundusCheckout/internal/store"

	"github.com/google/uuid"
)

var (
	ErrEmptyOrder         = errors.New("order has no items")
	ErrOrderNotFound      = errors.New("order not found")
	ErrInsufficientPoints = store.ErrInsufficientPoints
)

// OrderLine is one requested {medication, quantity} pair.
type OrderLine struct {
	MedicationID string
	Quantity     int64
}

type OrderStore interface {
	GetMedications(ctx context.Context, ids []string) (map[string]models.Medication, error)
	SettleOrder(ctx context.Context, params store.SettlementParams) error
	GetOrder(ctx context.Context, customerID, orderID string) (*models.OrderWithItems, error)
}

type OrderService struct {
	Store OrderStore
}

// CreateOrder materializes an order: prices every line at the current
// catalog price, computes the total, and hands the whole thing to the
// store as one settlement transaction. An empty order or an unresolvable
// medication aborts before anything is persisted.
//
// orderID is the placeholder id returned by payment confirmation; the
// loyalty-only path passes none and gets a fresh one.
func (s OrderService) CreateOrder(ctx context.Context, customerID, orderID string, lines []OrderLine, fundusPointsUsed int64, paymentTransactionID *string) (*models.OrderWithItems, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}
	if fundusPointsUsed < 0 {
		return nil, errors.New("fundus points used must not be negative")
	}
	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
	}
	if orderID == "" {
		orderID = uuid.NewString()
	}

	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.MedicationID)
	}
	medications, err := s.Store.GetMedications(ctx, ids)
	if err != nil {
		return nil, err
	}

	var totalCents int64
	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		med, ok := medications[line.MedicationID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMedicationNotFound, line.MedicationID)
		}
		lineTotal := med.PriceCents * line.Quantity
		// a quantity large enough to wrap the multiply or the running sum
		// is no more valid than a negative one
		if med.PriceCents > 0 && lineTotal/med.PriceCents != line.Quantity {
			return nil, ErrInvalidQuantity
		}
		totalCents += lineTotal
		if totalCents < 0 {
			return nil, ErrInvalidQuantity
		}
		items = append(items, models.OrderItem{
			ID:           uuid.NewString(),
			OrderID:      orderID,
			MedicationID: line.MedicationID,
			Quantity:     line.Quantity,
			PriceCents:   med.PriceCents,
		})
	}

	err = s.Store.SettleOrder(ctx, store.SettlementParams{
		OrderID:              orderID,
		CustomerID:           customerID,
		Items:                items,
		TotalCents:           totalCents,
		FundusPointsUsed:     fundusPointsUsed,
		PaymentTransactionID: paymentTransactionID,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	return s.Store.GetOrder(ctx, customerID, orderID)
}

func (s OrderService) GetOrder(ctx context.Context, customerID, orderID string) (*models.OrderWithItems, error) {
	order, err := s.Store.GetOrder(ctx, customerID, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}
