package services

import (
	"context"
	"errors"
	"math"
	"testing"

	"FundusCheckout/internal/models"
	"FundusCheckout/internal/store"
)

type mockOrderStore struct {
	medications map[string]models.Medication
	settled     []store.SettlementParams
	settleErr   error
}

func newMockOrderStore(meds ...models.Medication) *mockOrderStore {
	m := &mockOrderStore{medications: make(map[string]models.Medication)}
	for _, med := range meds {
		m.medications[med.ID] = med
	}
	return m
}

func (m *mockOrderStore) GetMedications(ctx context.Context, ids []string) (map[string]models.Medication, error) {
	out := make(map[string]models.Medication)
	for _, id := range ids {
		if med, ok := m.medications[id]; ok {
			out[id] = med
		}
	}
	return out, nil
}

func (m *mockOrderStore) SettleOrder(ctx context.Context, params store.SettlementParams) error {
	if m.settleErr != nil {
		return m.settleErr
	}
	m.settled = append(m.settled, params)
	return nil
}

func (m *mockOrderStore) GetOrder(ctx context.Context, customerID, orderID string) (*models.OrderWithItems, error) {
	for _, p := range m.settled {
		if p.OrderID == orderID && p.CustomerID == customerID {
			return &models.OrderWithItems{
				Order: models.Order{
					ID:               p.OrderID,
					CustomerID:       p.CustomerID,
					Status:           models.OrderProcessing,
					TotalCents:       p.TotalCents,
					FundusPointsUsed: p.FundusPointsUsed,
				},
				Items: p.Items,
			}, nil
		}
	}
	return nil, store.ErrNotFound
}

func TestCreateOrderTotalsLines(t *testing.T) {
	mock := newMockOrderStore(
		models.Medication{ID: "med-1", PriceCents: 2499},
		models.Medication{ID: "med-2", PriceCents: 999},
	)
	svc := OrderService{Store: mock}

	order, err := svc.CreateOrder(context.Background(), "cust-1", "order-1", []OrderLine{
		{MedicationID: "med-1", Quantity: 2},
		{MedicationID: "med-2", Quantity: 3},
	}, 500, nil)
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if order.TotalCents != 2*2499+3*999 {
		t.Errorf("total = %d, want %d", order.TotalCents, 2*2499+3*999)
	}
	if order.FundusPointsUsed != 500 {
		t.Errorf("fundus points used = %d, want 500", order.FundusPointsUsed)
	}
	if order.Status != models.OrderProcessing {
		t.Errorf("status = %s, want processing", order.Status)
	}
	if len(order.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(order.Items))
	}
	if order.Items[0].PriceCents != 2499 || order.Items[1].PriceCents != 999 {
		t.Errorf("item prices not taken from catalog: %+v", order.Items)
	}
}

func TestCreateOrderGeneratesID(t *testing.T) {
	mock := newMockOrderStore(models.Medication{ID: "med-1", PriceCents: 100})
	svc := OrderService{Store: mock}

	order, err := svc.CreateOrder(context.Background(), "cust-1", "", []OrderLine{{MedicationID: "med-1", Quantity: 1}}, 0, nil)
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if order.ID == "" {
		t.Error("expected a generated order id")
	}
}

func TestCreateOrderRejectsBadInput(t *testing.T) {
	mock := newMockOrderStore(models.Medication{ID: "med-1", PriceCents: 100})
	svc := OrderService{Store: mock}
	ctx := context.Background()

	if _, err := svc.CreateOrder(ctx, "cust-1", "", nil, 0, nil); !errors.Is(err, ErrEmptyOrder) {
		t.Errorf("empty lines: got %v, want ErrEmptyOrder", err)
	}
	if _, err := svc.CreateOrder(ctx, "cust-1", "", []OrderLine{{MedicationID: "med-1", Quantity: 0}}, 0, nil); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("zero quantity: got %v, want ErrInvalidQuantity", err)
	}
	if _, err := svc.CreateOrder(ctx, "cust-1", "", []OrderLine{{MedicationID: "med-1", Quantity: 1}}, -1, nil); err == nil {
		t.Error("negative fundus points accepted")
	}
	if len(mock.settled) != 0 {
		t.Errorf("rejected orders still settled: %d", len(mock.settled))
	}
}

func TestCreateOrderOverflowingQuantity(t *testing.T) {
	mock := newMockOrderStore(
		models.Medication{ID: "med-1", PriceCents: 100},
		models.Medication{ID: "med-2", PriceCents: math.MaxInt64 / 2},
	)
	svc := OrderService{Store: mock}
	ctx := context.Background()

	// a quantity that wraps the per-line multiply must not settle at a
	// tiny wrapped total
	_, err := svc.CreateOrder(ctx, "cust-1", "", []OrderLine{
		{MedicationID: "med-1", Quantity: 184467440737095517},
	}, 0, nil)
	if !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("wrapping multiply: got %v, want ErrInvalidQuantity", err)
	}

	// lines that are individually fine but wrap the running sum
	_, err = svc.CreateOrder(ctx, "cust-1", "", []OrderLine{
		{MedicationID: "med-2", Quantity: 1},
		{MedicationID: "med-2", Quantity: 1},
		{MedicationID: "med-2", Quantity: 1},
	}, 0, nil)
	if !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("wrapping sum: got %v, want ErrInvalidQuantity", err)
	}

	if len(mock.settled) != 0 {
		t.Errorf("overflowing orders still settled: %d", len(mock.settled))
	}
}

func TestCreateOrderUnknownMedicationAborts(t *testing.T) {
	mock := newMockOrderStore(models.Medication{ID: "med-1", PriceCents: 100})
	svc := OrderService{Store: mock}

	_, err := svc.CreateOrder(context.Background(), "cust-1", "", []OrderLine{
		{MedicationID: "med-1", Quantity: 1},
		{MedicationID: "med-404", Quantity: 1},
	}, 0, nil)
	if !errors.Is(err, ErrMedicationNotFound) {
		t.Fatalf("got %v, want ErrMedicationNotFound", err)
	}
	if len(mock.settled) != 0 {
		t.Error("nothing should settle when a line cannot be priced")
	}
}

func TestCreateOrderInsufficientPoints(t *testing.T) {
	mock := newMockOrderStore(models.Medication{ID: "med-1", PriceCents: 100})
	mock.settleErr = store.ErrInsufficientPoints
	svc := OrderService{Store: mock}

	_, err := svc.CreateOrder(context.Background(), "cust-1", "", []OrderLine{{MedicationID: "med-1", Quantity: 1}}, 10_000, nil)
	if !errors.Is(err, ErrInsufficientPoints) {
		t.Errorf("got %v, want ErrInsufficientPoints", err)
	}
}

func TestGetOrderNotFound(t *testing.T) {
	svc := OrderService{Store: newMockOrderStore()}

	_, err := svc.GetOrder(context.Background(), "cust-1", "order-404")
	if !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("got %v, want ErrOrderNotFound", err)
	}
}
