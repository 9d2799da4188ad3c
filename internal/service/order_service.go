package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/egannguyen/tica-shop/internal/entity"
	"github.com/egannguyen/tica-shop/internal/messaging"
	"github.com/egannguyen/tica-shop/internal/notification"
	"github.com/egannguyen/tica-shop/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Notifier tells the merchant and the customer about a new order.
type Notifier interface {
	OrderPlaced(ctx context.Context, order notification.OrderEmail) notification.Result
}

// PlaceOrderResult is returned once the order is stored.
type PlaceOrderResult struct {
	OrderID      int64               `json:"orderId"`
	Notification notification.Result `json:"notification"`
}

// OrderService orchestrates order-related business logic.
type OrderService struct {
	orderRepo            repository.OrderRepository
	notifier             Notifier
	publisher            messaging.Publisher
	validate             *validator.Validate
	defaultPaymentMethod string
	now                  func() time.Time
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	notifier Notifier,
	publisher messaging.Publisher,
	defaultPaymentMethod string,
) *OrderService {
	if publisher == nil {
		publisher = messaging.Discard
	}
	return &OrderService{
		orderRepo:            orderRepo,
		notifier:             notifier,
		publisher:            publisher,
		validate:             newValidator(),
		defaultPaymentMethod: defaultPaymentMethod,
		now:                  time.Now,
	}
}

// PlaceOrder validates and stores the order, then notifies and publishes an
// OrderPlaced event. Only validation and storage failures fail the call.
func (s *OrderService) PlaceOrder(ctx context.Context, cmd *entity.PlaceOrder) (*PlaceOrderResult, error) {
	if cmd.PaymentMethod == "" {
		cmd.PaymentMethod = s.defaultPaymentMethod
	}
	if err := s.validatePlaceOrder(cmd); err != nil {
		return nil, err
	}

	slog.Info("Service: Placing order", "customer_email", cmd.CustomerEmail, "items", len(cmd.Items), "total", cmd.Total.StringFixed(2))

	orderID, err := s.orderRepo.Create(ctx, cmd)
	if errors.Is(err, repository.ErrConstraint) {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	slog.Info("✅ Order saved to database", "order_id", orderID)

	res := &PlaceOrderResult{OrderID: orderID}
	if s.notifier != nil {
		res.Notification = s.notifier.OrderPlaced(ctx, notification.OrderEmail{OrderID: orderID, PlaceOrder: *cmd})
		if !res.Notification.Merchant || !res.Notification.Customer {
			slog.Warn("Order notification incomplete", "order_id", orderID, "merchant", res.Notification.Merchant, "customer", res.Notification.Customer)
		}
	}

	event := entity.OrderPlaced{
		OrderID:       orderID,
		CustomerEmail: cmd.CustomerEmail,
		Items:         cmd.Items,
		Total:         cmd.Total,
		PaymentMethod: cmd.PaymentMethod,
		PlacedAt:      s.now(),
	}
	if err := s.publisher.PublishEvent(ctx, messaging.TopicOrderPlaced, strconv.FormatInt(orderID, 10), event); err != nil {
		slog.Error("Failed to publish OrderPlaced", "order_id", orderID, "err", err)
	}

	return res, nil
}

func (s *OrderService) validatePlaceOrder(cmd *entity.PlaceOrder) error {
	verr := &ValidationError{}
	if err := s.validate.Struct(cmd); err != nil {
		if err := collectFieldErrors(err, verr); err != nil {
			return fmt.Errorf("failed to validate order: %w", err)
		}
	}

	nonNegative := func(field string, d decimal.Decimal) {
		if d.IsNegative() {
			verr.add(field, "must not be negative")
		}
	}
	nonNegative("subtotal", cmd.Subtotal)
	nonNegative("discount", cmd.Discount)
	nonNegative("shippingCost", cmd.ShippingCost)
	nonNegative("total", cmd.Total)
	for i, item := range cmd.Items {
		nonNegative(fmt.Sprintf("items[%d].unitPrice", i), item.UnitPrice)
	}

	expected := cmd.Subtotal.Sub(cmd.Discount).Add(cmd.ShippingCost).Round(2)
	if !expected.Equal(cmd.Total.Round(2)) {
		verr.add("total", "must equal subtotal - discount + shippingCost ("+expected.StringFixed(2)+")")
	}

	return verr.errOrNil()
}

// ListOrders returns every order, newest first. A storage failure is logged
// and yields an empty list.
func (s *OrderService) ListOrders(ctx context.Context) []entity.Order {
	orders, err := s.orderRepo.FindAll(ctx)
	if err != nil {
		slog.Error("Failed to list orders", "err", err)
		return []entity.Order{}
	}
	return orders
}

// GetOrder returns an order with its items.
func (s *OrderService) GetOrder(ctx context.Context, id int64) (*entity.OrderDetail, error) {
	detail, err := s.orderRepo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return detail, nil
}

// UpdateStatus moves an order to next if the status machine allows it.
func (s *OrderService) UpdateStatus(ctx context.Context, id int64, next entity.OrderStatus) (*entity.OrderDetail, error) {
	detail, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	current := detail.Status
	if current.IsTerminal() {
		return nil, fmt.Errorf("%w: order %d is already %s", ErrInvalidTransition, id, current)
	}
	if !current.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, next)
	}

	err = s.orderRepo.UpdateStatus(ctx, id, current, next)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrNotFound
	case errors.Is(err, repository.ErrConflict):
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	case err != nil:
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	slog.Info("Order status updated", "order_id", id, "from", current, "to", next)
	detail.Status = next
	return detail, nil
}
