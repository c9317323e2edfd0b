package models

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RolePharmacy Role = "pharmacy"
	RoleAdmin    Role = "admin"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Customer is the customer-role profile attached to an account. The fundus
// point balance is a non-negative integer; a wallet address is optional.
type Customer struct {
	AccountID     string
	FundusPoints  int64
	WalletAddress *string
}

type Medication struct {
	ID         string
	Name       string
	PriceCents int64
}

type Cart struct {
	ID         string
	CustomerID string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CartItem snapshots the catalog price at add time. The snapshot is never
// refreshed by later adds or quantity updates.
type CartItem struct {
	ID           string
	CartID       string
	MedicationID string
	Quantity     int64
	PriceCents   int64
	CreatedAt    time.Time
}

type CartWithItems struct {
	Cart
	Items []CartItem
}

type Order struct {
	ID               string
	CustomerID       string
	Status           OrderStatus
	TotalCents       int64
	FundusPointsUsed int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type OrderItem struct {
	ID           string
	OrderID      string
	MedicationID string
	Quantity     int64
	PriceCents   int64
}

type OrderWithItems struct {
	Order
	Items []OrderItem
}

// PaymentTransaction records one externally verified chain transfer. The
// signature is unique: a chain transaction settles at most one payment.
type PaymentTransaction struct {
	ID             string
	CustomerID     string
	OrderID        *string
	AmountUSDCents int64
	AmountLamports int64
	Signature      string
	Status         PaymentStatus
	CreatedAt      time.Time
}
