package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/egannguyen/tica-shop/internal/entity"
	"github.com/shopspring/decimal"
)

// QuoteLine is one requested cart line.
type QuoteLine struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// CartQuote is a priced snapshot of a cart.
type CartQuote struct {
	Items []entity.CartItem `json:"items"`
	entity.Quote
}

// CartService prices carts held by the client.
type CartService struct {
	catalog      *CatalogService
	shippingCost decimal.Decimal
}

func NewCartService(catalog *CatalogService, shippingCost decimal.Decimal) *CartService {
	return &CartService{catalog: catalog, shippingCost: shippingCost}
}

// Quote builds a cart from lines and prices it. Repeated product ids keep
// the last quantity, as adding an item to the cart does.
func (s *CartService) Quote(ctx context.Context, lines []QuoteLine) (*CartQuote, error) {
	cart, err := s.fill(ctx, lines)
	if err != nil {
		return nil, err
	}
	return &CartQuote{Items: cart.Items(), Quote: cart.Quote(s.shippingCost)}, nil
}

// Checkout prices lines against the catalog and returns the order command
// for them, so the client does not have to supply the money fields.
func (s *CartService) Checkout(ctx context.Context, lines []QuoteLine, customer entity.Customer, paymentMethod string) (*entity.PlaceOrder, error) {
	cart, err := s.fill(ctx, lines)
	if err != nil {
		return nil, err
	}
	return cart.ToPlaceOrder(customer, paymentMethod, s.shippingCost), nil
}

func (s *CartService) fill(ctx context.Context, lines []QuoteLine) (*entity.Cart, error) {
	cart := entity.NewCart()
	verr := &ValidationError{}

	for i, line := range lines {
		p, err := s.catalog.GetProduct(ctx, line.ProductID)
		if errors.Is(err, ErrNotFound) {
			verr.add(fmt.Sprintf("items[%d].productId", i), "unknown product")
			continue
		}
		if err != nil {
			return nil, err
		}

		err = cart.AddItem(entity.CartItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Emoji:       p.Emoji,
			ImageURL:    p.ImageURL,
			Quantity:    line.Quantity,
			UnitPrice:   p.BasePrice,
		})
		if errors.Is(err, entity.ErrInvalidQuantity) {
			verr.add(fmt.Sprintf("items[%d].quantity", i), "must be at least 1")
			continue
		}
		if err != nil {
			return nil, err
		}
	}
	if err := verr.errOrNil(); err != nil {
		return nil, err
	}
	return cart, nil
}
