package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"FundusCheckout/internal/auth"
	"FundusCheckout/internal/metrics"
	"FundusCheckout/internal/models"
	"FundusCheckout/internal/pricing"
	"FundusCheckout/internal/services"
	"FundusCheckout/internal/store"
)

type stubSessions struct{}

func (stubSessions) ValidateSession(ctx context.Context, token string) (auth.Identity, error) {
	switch token {
	case "customer-token":
		return auth.Identity{
			AccountID: "cust-1",
			Role:      models.RoleCustomer,
			Customer:  &models.Customer{AccountID: "cust-1", FundusPoints: 100},
		}, nil
	case "pharmacy-token":
		return auth.Identity{AccountID: "pharm-1", Role: models.RolePharmacy}, nil
	default:
		return auth.Identity{}, auth.ErrUnauthorized
	}
}

type stubCartStore struct {
	items []models.CartItem
}

func (s *stubCartStore) GetOrCreateCart(ctx context.Context, customerID string) (*models.CartWithItems, error) {
	return &models.CartWithItems{
		Cart:  models.Cart{ID: "cart-1", CustomerID: customerID},
		Items: s.items,
	}, nil
}

func (s *stubCartStore) AddCartItem(ctx context.Context, customerID, medicationID string, quantity, priceCents int64) (*models.CartItem, error) {
	item := models.CartItem{ID: "item-1", CartID: "cart-1", MedicationID: medicationID, Quantity: quantity, PriceCents: priceCents}
	s.items = append(s.items, item)
	return &item, nil
}

func (s *stubCartStore) UpdateCartItemQuantity(ctx context.Context, customerID, itemID string, quantity int64) (*models.CartItem, error) {
	return nil, store.ErrNotFound
}

func (s *stubCartStore) RemoveCartItem(ctx context.Context, customerID, itemID string) (bool, error) {
	return false, nil
}

func (s *stubCartStore) EmptyCart(ctx context.Context, customerID string) (bool, error) {
	return true, nil
}

func (s *stubCartStore) GetMedication(ctx context.Context, id string) (*models.Medication, error) {
	if id != "med-1" {
		return nil, store.ErrNotFound
	}
	return &models.Medication{ID: "med-1", Name: "Timolol", PriceCents: 1250}, nil
}

func newTestServer() *httptest.Server {
	h := NewHandler(
		services.CartService{Store: &stubCartStore{}},
		services.OrderService{},
		services.PaymentService{},
	)
	return httptest.NewServer(NewServer(h, stubSessions{}).Router)
}

func doRequest(t *testing.T, method, url, token, body string) (*http.Response, envelope) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return resp, env
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp, env := doRequest(t, http.MethodGet, srv.URL+"/cart", "", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
	if env.Success {
		t.Error("expected success=false")
	}
}

func TestCustomerRoleRequired(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp, _ := doRequest(t, http.MethodGet, srv.URL+"/cart", "pharmacy-token", "")
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", resp.StatusCode)
	}
}

func TestAddCartItemEndpoint(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp, env := doRequest(t, http.MethodPost, srv.URL+"/cart/items", "customer-token",
		`{"medicationId":"med-1","quantity":2}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !env.Success {
		t.Fatalf("success=false: %s", env.Error)
	}

	item, ok := env.Data.(map[string]any)
	if !ok {
		t.Fatalf("unexpected data shape: %T", env.Data)
	}
	if item["price"] != 12.5 {
		t.Errorf("price = %v, want 12.5", item["price"])
	}
	if item["quantity"] != float64(2) {
		t.Errorf("quantity = %v, want 2", item["quantity"])
	}
}

func TestAddCartItemBadQuantity(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp, env := doRequest(t, http.MethodPost, srv.URL+"/cart/items", "customer-token",
		`{"medicationId":"med-1","quantity":0}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if env.Error == "" {
		t.Error("expected an error message")
	}
}

func TestHealthIsPublic(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp, env := doRequest(t, http.MethodGet, srv.URL+"/health", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if !env.Success {
		t.Error("expected success=true")
	}
}

func TestMetricsUseRoutePattern(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp, _ := doRequest(t, http.MethodPatch, srv.URL+"/cart/items/abc-123", "customer-token",
		`{"quantity":5}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}

	families, err := metrics.DefaultRegistry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	var sawPattern, sawRawPath bool
	for _, family := range families {
		if family.GetName() != "fundus_http_requests_total" {
			continue
		}
		for _, m := range family.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() != "path" {
					continue
				}
				switch label.GetValue() {
				case "/cart/items/{itemId}":
					sawPattern = true
				case "/cart/items/abc-123":
					sawRawPath = true
				}
			}
		}
	}
	if !sawPattern {
		t.Error("no request counted under the route pattern label")
	}
	if sawRawPath {
		t.Error("raw path leaked into the metric labels")
	}
}

func TestServiceErrorMapping(t *testing.T) {
	h := &Handler{}
	cases := []struct {
		err  error
		want int
	}{
		{services.ErrInvalidQuantity, http.StatusBadRequest},
		{services.ErrEmptyOrder, http.StatusBadRequest},
		{services.ErrMedicationNotFound, http.StatusNotFound},
		{services.ErrOrderNotFound, http.StatusNotFound},
		{services.ErrInsufficientPoints, http.StatusBadRequest},
		{services.ErrNoWalletAddress, http.StatusPreconditionFailed},
		{pricing.ErrRateUnavailable, http.StatusServiceUnavailable},
		{store.ErrDuplicateSignature, http.StatusConflict},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		h.writeServiceError(rec, tc.err, "fallback")
		if rec.Code != tc.want {
			t.Errorf("%v mapped to %d, want %d", tc.err, rec.Code, tc.want)
		}
	}
}
