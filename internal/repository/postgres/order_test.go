package postgres_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/egannguyen/tica-shop/internal/entity"
	"github.com/egannguyen/tica-shop/internal/repository"
	"github.com/egannguyen/tica-shop/internal/repository/postgres"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var orderCols = []string{
	"id", "customer_name", "customer_email", "customer_phone", "shipping_address",
	"subtotal", "discount", "shipping_cost", "total", "status", "payment_method", "notes", "created_at", "updated_at",
}

func newMock(t *testing.T) (sqlmock.Sqlmock, repository.OrderRepository) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return mock, postgres.NewOrderRepository(db)
}

func samplePlaceOrder(items ...entity.PlaceOrderItem) *entity.PlaceOrder {
	return &entity.PlaceOrder{
		CustomerName:    "Test Customer",
		CustomerEmail:   "test@example.com",
		CustomerPhone:   "+506 1234 5678",
		ShippingAddress: "Test Address, San José, Costa Rica",
		Items:           items,
		Subtotal:        decimal.Zero,
		Discount:        decimal.Zero,
		ShippingCost:    decimal.NewFromInt(10),
		Total:           decimal.NewFromInt(10),
		PaymentMethod:   "Revolut",
		Notes:           "Test order",
	}
}

func TestOrderCreateInsertsOrderAndItemsInOneTransaction(t *testing.T) {
	mock, repo := newMock(t)

	cmd := samplePlaceOrder(
		entity.PlaceOrderItem{ProductID: 1, ProductName: "Coatí Guard", Quantity: 10},
		entity.PlaceOrderItem{ProductID: 4, ProductName: "Tucán Grip", Quantity: 2},
	)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO orders")).
		WithArgs("Test Customer", "test@example.com", sqlmock.AnyArg(), "Test Address, San José, Costa Rica",
			"0.00", "0.00", "10.00", "10.00", "pending", "Revolut", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_items")).
		WithArgs(int64(42), int64(1), "Coatí Guard", 10, "0.00", "0.00").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_items")).
		WithArgs(int64(42), int64(4), "Tucán Grip", 2, "0.00", "0.00").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	id, err := repo.Create(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderCreateStoresLineSubtotal(t *testing.T) {
	mock, repo := newMock(t)

	cmd := samplePlaceOrder(entity.PlaceOrderItem{ProductID: 2, ProductName: "Ocelot Alert", Quantity: 3, UnitPrice: decimal.RequireFromString("4.5")})

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO orders")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_items")).
		WithArgs(int64(7), int64(2), "Ocelot Alert", 3, "4.50", "13.50").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	_, err := repo.Create(context.Background(), cmd)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderCreateRollsBackWhenItemInsertFails(t *testing.T) {
	mock, repo := newMock(t)

	cmd := samplePlaceOrder(entity.PlaceOrderItem{ProductID: 1, ProductName: "Coatí Guard", Quantity: 10})

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO orders")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(9)))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_items")).
		WillReturnError(errors.New("connection reset by peer"))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), cmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert order item")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderCreateMapsConstraintViolations(t *testing.T) {
	mock, repo := newMock(t)

	cmd := samplePlaceOrder(entity.PlaceOrderItem{ProductID: 1, ProductName: "Coatí Guard", Quantity: 1})

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO orders")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_items")).
		WillReturnError(&pq.Error{Code: "23514", Message: "new row violates check constraint"})
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), cmd)
	assert.ErrorIs(t, err, repository.ErrConstraint)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderFindByIDReturnsItems(t *testing.T) {
	mock, repo := newMock(t)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id = $1")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(orderCols).AddRow(
			int64(42), "Test Customer", "test@example.com", nil, "Test Address",
			"0.00", "0.00", "10.00", "10.00", "pending", "Revolut", nil, now, now,
		))
	mock.ExpectQuery(regexp.QuoteMeta("FROM order_items WHERE order_id = $1")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "product_name", "quantity", "unit_price", "subtotal", "created_at"}).
			AddRow(int64(1), int64(42), int64(1), "Coatí Guard", int64(10), "0.00", "0.00", now).
			AddRow(int64(2), int64(42), int64(4), "Tucán Grip", int64(2), "0.00", "0.00", now))

	detail, err := repo.FindByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), detail.Order.ID)
	assert.Equal(t, entity.OrderStatusPending, detail.Order.Status)
	assert.Equal(t, "10.00", detail.Order.Total.StringFixed(2))
	assert.Empty(t, detail.Order.CustomerPhone)
	require.Len(t, detail.Items, 2)
	for _, item := range detail.Items {
		assert.Equal(t, int64(42), item.OrderID)
	}
	assert.Equal(t, 10, detail.Items[0].Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderFindByIDNotFound(t *testing.T) {
	mock, repo := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id = $1")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(orderCols))

	_, err := repo.FindByID(context.Background(), 5)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestOrderFindAll(t *testing.T) {
	mock, repo := newMock(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders ORDER BY created_at DESC")).
		WillReturnRows(sqlmock.NewRows(orderCols).
			AddRow(int64(2), "B", "b@example.com", "+506", "Addr B", "0.00", "0.00", "10.00", "10.00", "processing", "Revolut", "leave at door", now, now).
			AddRow(int64(1), "A", "a@example.com", nil, "Addr A", "0.00", "0.00", "10.00", "10.00", "pending", "Revolut", nil, now, now))

	orders, err := repo.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, entity.OrderStatusProcessing, orders[0].Status)
	assert.Equal(t, "leave at door", orders[0].Notes)
	assert.Equal(t, int64(1), orders[1].ID)
}

func TestOrderUpdateStatus(t *testing.T) {
	mock, repo := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET status = $1")).
		WithArgs("processing", int64(3), "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), 3, entity.OrderStatusPending, entity.OrderStatusProcessing)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderUpdateStatusConflict(t *testing.T) {
	mock, repo := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET status = $1")).
		WithArgs("processing", int64(3), "pending").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM orders WHERE id = $1")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("shipped"))

	err := repo.UpdateStatus(context.Background(), 3, entity.OrderStatusPending, entity.OrderStatusProcessing)
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestOrderUpdateStatusMissingOrder(t *testing.T) {
	mock, repo := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET status = $1")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM orders WHERE id = $1")).
		WillReturnRows(sqlmock.NewRows([]string{"status"}))

	err := repo.UpdateStatus(context.Background(), 3, entity.OrderStatusPending, entity.OrderStatusProcessing)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
