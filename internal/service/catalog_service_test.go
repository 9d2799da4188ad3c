package service_test

import (
	"context"
	"testing"

	"github.com/egannguyen/tica-shop/internal/entity"
	"github.com/egannguyen/tica-shop/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalog() *fakeProducts {
	return &fakeProducts{products: map[int64]entity.Product{
		1: {ID: 1, Emoji: "🦝", Name: "Coatí Guard", ImageURL: "/products/01_coati_guard.jpg", IsActive: true},
		2: {ID: 2, Emoji: "🐆", Name: "Ocelot Alert", IsActive: false},
		3: {ID: 3, Emoji: "🌋", Name: "Arenal Blaze", BasePrice: decimal.RequireFromString("2.50"), IsActive: true},
	}}
}

func TestListProductsReturnsActiveOnly(t *testing.T) {
	svc := service.NewCatalogService(catalog())

	products := svc.ListProducts(context.Background())
	require.Len(t, products, 2)
	assert.Equal(t, "Coatí Guard", products[0].Name)
	assert.Equal(t, "Arenal Blaze", products[1].Name)
}

func TestListProductsDegradesToEmpty(t *testing.T) {
	svc := service.NewCatalogService(&fakeProducts{err: errDatabase})

	products := svc.ListProducts(context.Background())
	assert.NotNil(t, products)
	assert.Empty(t, products)
}

func TestGetProduct(t *testing.T) {
	svc := service.NewCatalogService(catalog())
	ctx := context.Background()

	p, err := svc.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "🦝", p.Emoji)

	_, err = svc.GetProduct(ctx, 2)
	assert.ErrorIs(t, err, service.ErrNotFound, "inactive products are hidden")

	_, err = svc.GetProduct(ctx, 99)
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = service.NewCatalogService(&fakeProducts{err: errDatabase}).GetProduct(ctx, 1)
	assert.ErrorIs(t, err, errDatabase)
	assert.NotErrorIs(t, err, service.ErrNotFound)
}

func TestSeed(t *testing.T) {
	repo := &fakeProducts{products: map[int64]entity.Product{}}
	svc := service.NewCatalogService(repo)

	require.NoError(t, svc.Seed(context.Background(), []entity.Product{{ID: 1, Name: "Coatí Guard", IsActive: true}}))
	assert.Len(t, svc.ListProducts(context.Background()), 1)
}

func TestCartQuote(t *testing.T) {
	svc := service.NewCartService(service.NewCatalogService(catalog()), decimal.NewFromInt(10))

	q, err := svc.Quote(context.Background(), []service.QuoteLine{
		{ProductID: 1, Quantity: 5},
		{ProductID: 3, Quantity: 20},
		{ProductID: 1, Quantity: 10},
	})
	require.NoError(t, err)

	require.Len(t, q.Items, 2)
	assert.Equal(t, 10, q.Items[0].Quantity, "repeated lines overwrite")
	assert.Equal(t, "/products/01_coati_guard.jpg", q.Items[0].ImageURL)
	assert.Equal(t, 30, q.TotalItems)
	assert.Equal(t, "0.2", q.DiscountRate.String())
	assert.Equal(t, "50.00", q.Subtotal.StringFixed(2))
	assert.Equal(t, "10.00", q.Discount.StringFixed(2))
	assert.Equal(t, "50.00", q.Total.StringFixed(2))
	assert.Equal(t, "10.00", q.ShippingCost.StringFixed(2))
}

func TestCartCheckout(t *testing.T) {
	svc := service.NewCartService(service.NewCatalogService(catalog()), decimal.NewFromInt(10))

	cmd, err := svc.Checkout(context.Background(), []service.QuoteLine{{ProductID: 1, Quantity: 6}}, entity.Customer{
		Name:            "Ana Mora",
		Email:           "ana@example.com",
		ShippingAddress: "San José",
	}, "Revolut")
	require.NoError(t, err)

	assert.Equal(t, "Ana Mora", cmd.CustomerName)
	require.Len(t, cmd.Items, 1)
	assert.Equal(t, "Coatí Guard", cmd.Items[0].ProductName)
	assert.Equal(t, 6, cmd.Items[0].Quantity)
	assert.Equal(t, "10.00", cmd.ShippingCost.StringFixed(2))
	assert.True(t, cmd.Total.Equal(cmd.Subtotal.Sub(cmd.Discount).Add(cmd.ShippingCost)))

	_, err = svc.Checkout(context.Background(), []service.QuoteLine{{ProductID: 2, Quantity: 1}}, entity.Customer{}, "")
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestCartQuoteRejectsBadLines(t *testing.T) {
	svc := service.NewCartService(service.NewCatalogService(catalog()), decimal.NewFromInt(10))

	_, err := svc.Quote(context.Background(), []service.QuoteLine{
		{ProductID: 2, Quantity: 1},
		{ProductID: 1, Quantity: 0},
	})
	require.ErrorIs(t, err, service.ErrValidation)

	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []service.FieldError{
		{Field: "items[0].productId", Message: "unknown product"},
		{Field: "items[1].quantity", Message: "must be at least 1"},
	}, verr.Fields)
}
