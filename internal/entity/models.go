package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalog entry. Products are created from seed data and
// read-only at runtime.
type Product struct {
	ID          int64           `json:"id"`
	Emoji       string          `json:"emoji"`
	Name        string          `json:"name"`
	Slogan      string          `json:"slogan"`
	Description string          `json:"description"`
	ImageURL    string          `json:"imageUrl"`
	BasePrice   decimal.Decimal `json:"basePrice"`
	IsActive    bool            `json:"isActive"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Order represents a placed customer order awaiting manual fulfillment.
type Order struct {
	ID              int64           `json:"id"`
	CustomerName    string          `json:"customerName"`
	CustomerEmail   string          `json:"customerEmail"`
	CustomerPhone   string          `json:"customerPhone,omitempty"`
	ShippingAddress string          `json:"shippingAddress"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Discount        decimal.Decimal `json:"discount"`
	ShippingCost    decimal.Decimal `json:"shippingCost"`
	Total           decimal.Decimal `json:"total"`
	Status          OrderStatus     `json:"status"`
	PaymentMethod   string          `json:"paymentMethod"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// OrderItem is a line item within an order. ProductName is a snapshot taken
// when the order was placed.
type OrderItem struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"orderId"`
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// OrderDetail is an order together with its line items.
type OrderDetail struct {
	Order `json:"order"`
	Items []OrderItem `json:"items"`
}

// User is an authenticated visitor. Login itself happens in an external
// OAuth flow; the store only keeps the resulting identity and role.
type User struct {
	ID           int64     `json:"id"`
	OpenID       string    `json:"openId"`
	Name         string    `json:"name,omitempty"`
	Email        string    `json:"email,omitempty"`
	LoginMethod  string    `json:"loginMethod,omitempty"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	LastSignedIn time.Time `json:"lastSignedIn"`
}

// --- Commands ---

// PlaceOrderItem is one requested line of a PlaceOrder command.
type PlaceOrderItem struct {
	ProductID   int64           `json:"productId" validate:"required,min=1"`
	ProductName string          `json:"productName" validate:"required"`
	Quantity    int             `json:"quantity" validate:"min=1"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// LineSubtotal returns UnitPrice x Quantity.
func (i PlaceOrderItem) LineSubtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// PlaceOrder is a command to create a new order. Monetary fields are supplied
// by the caller and stored as given.
type PlaceOrder struct {
	CustomerName    string           `json:"customerName" validate:"required"`
	CustomerEmail   string           `json:"customerEmail" validate:"required,email"`
	CustomerPhone   string           `json:"customerPhone,omitempty"`
	ShippingAddress string           `json:"shippingAddress" validate:"required"`
	Items           []PlaceOrderItem `json:"items" validate:"required,min=1,dive"`
	Subtotal        decimal.Decimal  `json:"subtotal"`
	Discount        decimal.Decimal  `json:"discount"`
	ShippingCost    decimal.Decimal  `json:"shippingCost"`
	Total           decimal.Decimal  `json:"total"`
	PaymentMethod   string           `json:"paymentMethod" validate:"required"`
	Notes           string           `json:"notes,omitempty"`
}

// --- Events ---

// OrderPlaced is emitted once an order and its items are persisted.
type OrderPlaced struct {
	OrderID       int64            `json:"orderId"`
	CustomerEmail string           `json:"customerEmail"`
	Items         []PlaceOrderItem `json:"items"`
	Total         decimal.Decimal  `json:"total"`
	PaymentMethod string           `json:"paymentMethod"`
	PlacedAt      time.Time        `json:"placedAt"`
}

func (e OrderPlaced) EventType() string { return "OrderPlaced" }

// Event represents a domain event.
type Event interface {
	EventType() string
}
