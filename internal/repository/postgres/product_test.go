package postgres_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/egannguyen/tica-shop/internal/entity"
	"github.com/egannguyen/tica-shop/internal/repository"
	"github.com/egannguyen/tica-shop/internal/repository/postgres"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productCols = []string{"id", "emoji", "name", "slogan", "description", "image_url", "base_price", "is_active", "created_at", "updated_at"}

func TestProductFindActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM products WHERE is_active = 1")).
		WillReturnRows(sqlmock.NewRows(productCols).
			AddRow(int64(1), "🦝", "Coatí Guard", "¡Protege tu viaje!", "Dispositivo ultrasónico", "/products/01_coati_guard.jpg", "0.00", int64(1), now, now).
			AddRow(int64(2), "🐆", "Ocelot Alert", "¡Viaja seguro en la selva!", "Sistema de alerta", "/products/02_ocelot_alert.jpg", "0.00", int64(1), now, now))

	products, err := postgres.NewProductRepository(db).FindActive(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Coatí Guard", products[0].Name)
	assert.Equal(t, "/products/01_coati_guard.jpg", products[0].ImageURL)
	assert.True(t, products[0].IsActive)
	assert.True(t, products[1].BasePrice.IsZero())
}

func TestProductFindByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM products WHERE id = $1")).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(productCols))

	_, err = postgres.NewProductRepository(db).FindByID(context.Background(), 99)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProductSeedUpsertsAndAdvancesSequence(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	products := []entity.Product{
		{ID: 1, Emoji: "🦝", Name: "Coatí Guard", Slogan: "s", Description: "d", ImageURL: "/1.jpg", BasePrice: decimal.Zero, IsActive: true},
		{ID: 2, Emoji: "🐆", Name: "Ocelot Alert", Slogan: "s", Description: "d", ImageURL: "/2.jpg", BasePrice: decimal.Zero, IsActive: false},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO products")).
		WithArgs(int64(1), "🦝", "Coatí Guard", "s", "d", "/1.jpg", "0.00", 1).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO products")).
		WithArgs(int64(2), "🐆", "Ocelot Alert", "s", "d", "/2.jpg", "0.00", 0).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec(regexp.QuoteMeta("SELECT setval(pg_get_serial_sequence('products', 'id')")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, postgres.NewProductRepository(db).Seed(context.Background(), products))
	assert.NoError(t, mock.ExpectationsWereMet())
}
