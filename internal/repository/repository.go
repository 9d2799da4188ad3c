package repository

import (
	"context"
	"errors"

	"github.com/egannguyen/tica-shop/internal/entity"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a guarded update finds the row in an unexpected state.
	ErrConflict = errors.New("conflict")
	// ErrConstraint is returned when a write violates a schema constraint.
	ErrConstraint = errors.New("constraint violation")
)

// ProductRepository handles persistence for Products.
type ProductRepository interface {
	FindActive(ctx context.Context) ([]entity.Product, error)
	FindByID(ctx context.Context, id int64) (*entity.Product, error)
	// Seed upserts catalog entries by id.
	Seed(ctx context.Context, products []entity.Product) error
}

// OrderRepository handles persistence for Orders and their items.
type OrderRepository interface {
	// Create stores the order and all of its items atomically and returns the new order id.
	Create(ctx context.Context, cmd *entity.PlaceOrder) (int64, error)
	FindAll(ctx context.Context) ([]entity.Order, error)
	FindByID(ctx context.Context, id int64) (*entity.OrderDetail, error)
	UpdateStatus(ctx context.Context, id int64, from, to entity.OrderStatus) error
}

// UserRepository handles persistence for Users.
type UserRepository interface {
	// Upsert inserts or refreshes the user keyed by OpenID. An empty Role keeps
	// the stored role (or the default for new users).
	Upsert(ctx context.Context, user *entity.User) (*entity.User, error)
	FindByOpenID(ctx context.Context, openID string) (*entity.User, error)
}
