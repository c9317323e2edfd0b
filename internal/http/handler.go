package http

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"

	"FundusCheckout/internal/chain"
	"FundusCheckout/internal/metrics"
	"FundusCheckout/internal/models"
	"FundusCheckout/internal/payments"
	"FundusCheckout/internal/pricing"
	"FundusCheckout/internal/services"
	"FundusCheckout/internal/store"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Carts    services.CartService
	Orders   services.OrderService
	Payments services.PaymentService
}

func NewHandler(carts services.CartService, orders services.OrderService, pay services.PaymentService) *Handler {
	return &Handler{Carts: carts, Orders: orders, Payments: pay}
}

// Cart

type cartItemResponse struct {
	ID           string  `json:"id"`
	MedicationID string  `json:"medicationId"`
	Quantity     int64   `json:"quantity"`
	Price        float64 `json:"price"`
}

type cartResponse struct {
	ID    string             `json:"id"`
	Items []cartItemResponse `json:"items"`
}

func toCartItemResponse(item models.CartItem) cartItemResponse {
	return cartItemResponse{
		ID:           item.ID,
		MedicationID: item.MedicationID,
		Quantity:     item.Quantity,
		Price:        centsToDollars(item.PriceCents),
	}
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	identity, ok := customerFrom(w, r)
	if !ok {
		return
	}

	cart, err := h.Carts.GetCart(r.Context(), identity.AccountID)
	if err != nil {
		h.writeServiceError(w, err, "get cart failed")
		return
	}

	resp := cartResponse{ID: cart.ID, Items: make([]cartItemResponse, 0, len(cart.Items))}
	for _, item := range cart.Items {
		resp.Items = append(resp.Items, toCartItemResponse(item))
	}
	writeJSON(w, http.StatusOK, resp)
}

type addItemRequest struct {
	MedicationID string `json:"medicationId"`
	Quantity     int64  `json:"quantity"`
}

func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	identity, ok := customerFrom(w, r)
	if !ok {
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	item, err := h.Carts.AddItem(r.Context(), identity.AccountID, req.MedicationID, req.Quantity)
	if err != nil {
		h.writeServiceError(w, err, "add to cart failed")
		return
	}
	writeJSON(w, http.StatusOK, toCartItemResponse(*item))
}

type updateQuantityRequest struct {
	Quantity int64 `json:"quantity"`
}

func (h *Handler) UpdateCartItemQuantity(w http.ResponseWriter, r *http.Request) {
	identity, ok := customerFrom(w, r)
	if !ok {
		return
	}

	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	item, err := h.Carts.UpdateItemQuantity(r.Context(), identity.AccountID, chi.URLParam(r, "itemId"), req.Quantity)
	if err != nil {
		h.writeServiceError(w, err, "update cart item failed")
		return
	}
	writeJSON(w, http.StatusOK, toCartItemResponse(*item))
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	identity, ok := customerFrom(w, r)
	if !ok {
		return
	}

	removed, err := h.Carts.RemoveItem(r.Context(), identity.AccountID, chi.URLParam(r, "itemId"))
	if err != nil {
		h.writeServiceError(w, err, "remove cart item failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

func (h *Handler) EmptyCart(w http.ResponseWriter, r *http.Request) {
	identity, ok := customerFrom(w, r)
	if !ok {
		return
	}

	emptied, err := h.Carts.EmptyCart(r.Context(), identity.AccountID)
	if err != nil {
		h.writeServiceError(w, err, "clear cart failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"emptied": emptied})
}

// Orders

type createOrderRequest struct {
	OrderID             string          `json:"orderId,omitempty"`
	Items               []orderLineBody `json:"items"`
	FundusPointsUsed    int64           `json:"fundusPointsUsed,omitempty"`
	SolanaTransactionID *string         `json:"solanaTransactionId,omitempty"`
}

type orderLineBody struct {
	ID       string `json:"id"`
	Quantity int64  `json:"quantity"`
}

type orderItemResponse struct {
	ID           string  `json:"id"`
	MedicationID string  `json:"medicationId"`
	Quantity     int64   `json:"quantity"`
	Price        float64 `json:"price"`
}

type orderResponse struct {
	ID               string              `json:"id"`
	Status           string              `json:"status"`
	TotalAmount      float64             `json:"totalAmount"`
	FundusPointsUsed int64               `json:"fundusPointsUsed"`
	CreatedAt        string              `json:"createdAt"`
	Items            []orderItemResponse `json:"items"`
}

func toOrderResponse(order *models.OrderWithItems) orderResponse {
	resp := orderResponse{
		ID:               order.ID,
		Status:           string(order.Status),
		TotalAmount:      centsToDollars(order.TotalCents),
		FundusPointsUsed: order.FundusPointsUsed,
		CreatedAt:        order.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		Items:            make([]orderItemResponse, 0, len(order.Items)),
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ID:           item.ID,
			MedicationID: item.MedicationID,
			Quantity:     item.Quantity,
			Price:        centsToDollars(item.PriceCents),
		})
	}
	return resp
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	identity, ok := customerFrom(w, r)
	if !ok {
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	lines := make([]services.OrderLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, services.OrderLine{MedicationID: item.ID, Quantity: item.Quantity})
	}

	order, err := h.Orders.CreateOrder(r.Context(), identity.AccountID, req.OrderID, lines, req.FundusPointsUsed, req.SolanaTransactionID)
	if err != nil {
		metrics.SettlementTotal.WithLabelValues("error").Inc()
		h.writeServiceError(w, err, "failed to complete checkout")
		return
	}
	metrics.SettlementTotal.WithLabelValues("settled").Inc()
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	identity, ok := customerFrom(w, r)
	if !ok {
		return
	}

	order, err := h.Orders.GetOrder(r.Context(), identity.AccountID, chi.URLParam(r, "orderId"))
	if err != nil {
		h.writeServiceError(w, err, "get order failed")
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// Payments

type createIntentRequest struct {
	AmountUSD     float64 `json:"amountUSD"`
	WalletAddress string  `json:"walletAddress,omitempty"`
}

type createIntentResponse struct {
	Transaction string  `json:"transaction"`
	AmountSOL   float64 `json:"amountSOL"`
	Lamports    int64   `json:"lamports"`
}

func (h *Handler) CreateSolanaIntent(w http.ResponseWriter, r *http.Request) {
	identity, ok := customerFrom(w, r)
	if !ok {
		return
	}

	var req createIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	cents := dollarsToCents(req.AmountUSD)
	if cents <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	intent, err := h.Payments.CreateIntent(r.Context(), identity.AccountID, cents, req.WalletAddress)
	if err != nil {
		h.writeServiceError(w, err, "failed to create transaction")
		return
	}
	writeJSON(w, http.StatusOK, createIntentResponse{
		Transaction: intent.TransactionBase64,
		AmountSOL:   intent.AmountSOL,
		Lamports:    intent.Lamports,
	})
}

type confirmPaymentRequest struct {
	Signature string  `json:"signature"`
	AmountUSD float64 `json:"amountUSD"`
	AmountSOL float64 `json:"amountSOL"`
}

type confirmPaymentResponse struct {
	OrderID       string `json:"orderId"`
	TransactionID string `json:"transactionId"`
}

func (h *Handler) ConfirmSolanaPayment(w http.ResponseWriter, r *http.Request) {
	identity, ok := customerFrom(w, r)
	if !ok {
		return
	}

	var req confirmPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.Signature == "" {
		writeError(w, http.StatusBadRequest, "signature is required")
		return
	}

	orderID, txID, err := h.Payments.ConfirmPayment(r.Context(), identity.AccountID, req.Signature, dollarsToCents(req.AmountUSD), req.AmountSOL)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateSignature):
			metrics.SettlementTotal.WithLabelValues("duplicate").Inc()
		case errors.Is(err, payments.ErrVerificationFailed),
			errors.Is(err, payments.ErrInvalidTransaction),
			errors.Is(err, payments.ErrAmountMismatch),
			errors.Is(err, payments.ErrDestinationMismatch):
			metrics.SettlementTotal.WithLabelValues("rejected").Inc()
		default:
			metrics.SettlementTotal.WithLabelValues("error").Inc()
		}
		h.writeServiceError(w, err, "failed to confirm payment")
		return
	}
	writeJSON(w, http.StatusOK, confirmPaymentResponse{OrderID: orderID, TransactionID: txID})
}

type submitSignedRequest struct {
	Transaction string `json:"transaction"`
}

func (h *Handler) SubmitSignedTransaction(w http.ResponseWriter, r *http.Request) {
	if _, ok := customerFrom(w, r); !ok {
		return
	}

	var req submitSignedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Transaction == "" {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	sig, err := h.Payments.SubmitSigned(r.Context(), req.Transaction)
	if err != nil {
		h.writeServiceError(w, err, "failed to submit transaction")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"signature": sig})
}

// writeServiceError maps service failures onto the envelope. User-
// recoverable conditions keep their actionable message; verification
// failures stay generic here (detail is already logged server-side).
func (h *Handler) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, "quantity must be at least 1")
	case errors.Is(err, services.ErrEmptyOrder):
		writeError(w, http.StatusBadRequest, "cart is empty")
	case errors.Is(err, services.ErrMedicationNotFound):
		writeError(w, http.StatusNotFound, "an item in your cart is no longer available")
	case errors.Is(err, services.ErrCartItemNotFound):
		writeError(w, http.StatusNotFound, "cart item not found")
	case errors.Is(err, services.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, services.ErrInsufficientPoints):
		writeError(w, http.StatusBadRequest, "insufficient fundus points")
	case errors.Is(err, services.ErrNoWalletAddress):
		writeError(w, http.StatusPreconditionFailed, "no wallet address on account, add one in your profile")
	case errors.Is(err, chain.ErrAddressInvalid):
		writeError(w, http.StatusBadRequest, "wallet address is invalid")
	case errors.Is(err, pricing.ErrRateUnavailable):
		writeError(w, http.StatusServiceUnavailable, "exchange rate unavailable, try again")
	case errors.Is(err, payments.ErrVerificationFailed):
		writeError(w, http.StatusNotFound, "transaction not found or not finalized yet")
	case errors.Is(err, payments.ErrInvalidTransaction),
		errors.Is(err, payments.ErrAmountMismatch),
		errors.Is(err, payments.ErrDestinationMismatch):
		writeError(w, http.StatusBadRequest, "payment verification failed")
	case errors.Is(err, store.ErrDuplicateSignature):
		writeError(w, http.StatusConflict, "payment verification failed")
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func centsToDollars(cents int64) float64 {
	return float64(cents) / 100
}

func dollarsToCents(dollars float64) int64 {
	return int64(math.Round(dollars * 100))
}
