package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/egannguyen/tica-shop/internal/entity"
	"github.com/egannguyen/tica-shop/internal/repository"
	"github.com/shopspring/decimal"
)

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new OrderRepository backed by Postgres.
func NewOrderRepository(db *sql.DB) repository.OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, customer_name, customer_email, customer_phone, shipping_address,
	subtotal, discount, shipping_cost, total, status, payment_method, notes, created_at, updated_at`

func (r *orderRepository) Create(ctx context.Context, cmd *entity.PlaceOrder) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var orderID int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO orders (customer_name, customer_email, customer_phone, shipping_address, subtotal, discount, shipping_cost, total, status, payment_method, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`,
		cmd.CustomerName, cmd.CustomerEmail, nullString(cmd.CustomerPhone), cmd.ShippingAddress,
		money(cmd.Subtotal), money(cmd.Discount), money(cmd.ShippingCost), money(cmd.Total),
		string(entity.OrderStatusPending), cmd.PaymentMethod, nullString(cmd.Notes),
	).Scan(&orderID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert order: %w", mapError(err))
	}

	for _, item := range cmd.Items {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price, subtotal) VALUES ($1, $2, $3, $4, $5, $6)",
			orderID, item.ProductID, item.ProductName, item.Quantity, money(item.UnitPrice), money(item.LineSubtotal()),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert order item: %w", mapError(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return orderID, nil
}

func (r *orderRepository) FindAll(ctx context.Context) ([]entity.Order, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+orderColumns+" FROM orders ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []entity.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order rows: %w", err)
	}
	return orders, nil
}

func (r *orderRepository) FindByID(ctx context.Context, id int64) (*entity.OrderDetail, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query order %d: %w", id, err)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, order_id, product_id, product_name, quantity, unit_price, subtotal, created_at FROM order_items WHERE order_id = $1 ORDER BY id",
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	detail := &entity.OrderDetail{Order: *o, Items: []entity.OrderItem{}}
	for rows.Next() {
		var item entity.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Quantity, &item.UnitPrice, &item.Subtotal, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		detail.Items = append(detail.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order item rows: %w", err)
	}
	return detail, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id int64, from, to entity.OrderStatus) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3",
		string(to), id, string(from),
	)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n > 0 {
		return nil
	}

	var current string
	err = r.db.QueryRowContext(ctx, "SELECT status FROM orders WHERE id = $1", id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to query order status: %w", err)
	}
	return fmt.Errorf("%w: order %d is %s, expected %s", repository.ErrConflict, id, current, from)
}

func scanOrder(s rowScanner) (*entity.Order, error) {
	var (
		o      entity.Order
		phone  sql.NullString
		notes  sql.NullString
		status string
	)
	err := s.Scan(&o.ID, &o.CustomerName, &o.CustomerEmail, &phone, &o.ShippingAddress,
		&o.Subtotal, &o.Discount, &o.ShippingCost, &o.Total, &status, &o.PaymentMethod, &notes,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.CustomerPhone = phone.String
	o.Notes = notes.String
	o.Status = entity.OrderStatus(status)
	return &o, nil
}

// money renders an amount the way the NUMERIC(10, 2) columns store it.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
