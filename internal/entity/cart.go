package entity

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrInvalidQuantity is returned when a cart line would hold fewer than one unit.
var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// CartItem represents a product selection in a visitor's cart.
type CartItem struct {
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	Emoji       string          `json:"emoji"`
	Quantity    int             `json:"quantity"`
	ImageURL    string          `json:"imageUrl"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// Cart accumulates product selections keyed by product id. It is owned by a
// single visitor and is not safe for concurrent use.
type Cart struct {
	items map[int64]*CartItem
	order []int64
}

// NewCart creates an empty Cart.
func NewCart() *Cart {
	return &Cart{items: make(map[int64]*CartItem)}
}

// AddItem inserts item or overwrites the quantity of an existing line for the
// same product.
func (c *Cart) AddItem(item CartItem) error {
	if item.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if existing, ok := c.items[item.ProductID]; ok {
		existing.Quantity = item.Quantity
		return nil
	}
	it := item
	c.items[item.ProductID] = &it
	c.order = append(c.order, item.ProductID)
	return nil
}

// RemoveItem deletes the line for productID, if any.
func (c *Cart) RemoveItem(productID int64) {
	if _, ok := c.items[productID]; !ok {
		return
	}
	delete(c.items, productID)
	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of distinct products.
func (c *Cart) Len() int {
	return len(c.order)
}

// Items returns the cart lines in the order they were first added.
func (c *Cart) Items() []CartItem {
	out := make([]CartItem, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.items[id])
	}
	return out
}

// TotalItems sums the quantities of all lines.
func (c *Cart) TotalItems() int {
	total := 0
	for _, it := range c.items {
		total += it.Quantity
	}
	return total
}

var (
	rateNone  = decimal.Zero
	rateTier1 = decimal.RequireFromString("0.10")
	rateTier2 = decimal.RequireFromString("0.20")
	rateTier3 = decimal.RequireFromString("0.30")
)

// DiscountRate maps a total unit count to its volume discount. Each tier
// includes its lower bound.
func DiscountRate(units int) decimal.Decimal {
	switch {
	case units >= 50:
		return rateTier3
	case units >= 21:
		return rateTier2
	case units >= 6:
		return rateTier1
	default:
		return rateNone
	}
}

// Quote is the priced summary of a cart.
type Quote struct {
	TotalItems   int             `json:"totalItems"`
	DiscountRate decimal.Decimal `json:"discountRate"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Discount     decimal.Decimal `json:"discount"`
	ShippingCost decimal.Decimal `json:"shippingCost"`
	Total        decimal.Decimal `json:"total"`
}

// Quote prices the cart with a flat shippingCost.
func (c *Cart) Quote(shippingCost decimal.Decimal) Quote {
	subtotal := decimal.Zero
	for _, it := range c.items {
		subtotal = subtotal.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	units := c.TotalItems()
	rate := DiscountRate(units)
	discount := subtotal.Mul(rate).Round(2)
	subtotal = subtotal.Round(2)
	shippingCost = shippingCost.Round(2)

	return Quote{
		TotalItems:   units,
		DiscountRate: rate,
		Subtotal:     subtotal,
		Discount:     discount,
		ShippingCost: shippingCost,
		Total:        subtotal.Sub(discount).Add(shippingCost),
	}
}

// Customer holds the checkout form fields.
type Customer struct {
	Name            string `json:"customerName"`
	Email           string `json:"customerEmail"`
	Phone           string `json:"customerPhone,omitempty"`
	ShippingAddress string `json:"shippingAddress"`
	Notes           string `json:"notes,omitempty"`
}

// ToPlaceOrder builds the checkout command for the cart contents.
func (c *Cart) ToPlaceOrder(customer Customer, paymentMethod string, shippingCost decimal.Decimal) *PlaceOrder {
	q := c.Quote(shippingCost)
	items := make([]PlaceOrderItem, 0, c.Len())
	for _, it := range c.Items() {
		items = append(items, PlaceOrderItem{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		})
	}
	return &PlaceOrder{
		CustomerName:    customer.Name,
		CustomerEmail:   customer.Email,
		CustomerPhone:   customer.Phone,
		ShippingAddress: customer.ShippingAddress,
		Items:           items,
		Subtotal:        q.Subtotal,
		Discount:        q.Discount,
		ShippingCost:    q.ShippingCost,
		Total:           q.Total,
		PaymentMethod:   paymentMethod,
		Notes:           customer.Notes,
	}
}
