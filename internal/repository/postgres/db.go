package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/egannguyen/tica-shop/internal/repository"
	"github.com/lib/pq"
)

// InitDB opens the connection pool, verifies it and applies the schema. The
// returned handle is meant to live for the whole process and be closed on shutdown.
func InitDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	slog.Info("Database connected and migrated")
	return db, nil
}

// Migrate creates the enums, tables and indexes if they do not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schema = `
	DO $$ BEGIN
		CREATE TYPE user_role AS ENUM ('user', 'admin');
	EXCEPTION WHEN duplicate_object THEN NULL;
	END $$;

	DO $$ BEGIN
		CREATE TYPE order_status AS ENUM ('pending', 'processing', 'shipped', 'delivered', 'cancelled');
	EXCEPTION WHEN duplicate_object THEN NULL;
	END $$;

	CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		open_id VARCHAR(64) NOT NULL UNIQUE,
		name TEXT,
		email VARCHAR(320),
		login_method VARCHAR(64),
		role user_role NOT NULL DEFAULT 'user',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_signed_in TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS products (
		id SERIAL PRIMARY KEY,
		emoji VARCHAR(10) NOT NULL,
		name VARCHAR(255) NOT NULL,
		slogan TEXT NOT NULL,
		description TEXT NOT NULL,
		image_url TEXT NOT NULL,
		base_price NUMERIC(10, 2) NOT NULL DEFAULT 0.00,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS orders (
		id SERIAL PRIMARY KEY,
		customer_name VARCHAR(255) NOT NULL,
		customer_email VARCHAR(320) NOT NULL,
		customer_phone VARCHAR(50),
		shipping_address TEXT NOT NULL,
		subtotal NUMERIC(10, 2) NOT NULL,
		discount NUMERIC(10, 2) NOT NULL DEFAULT 0.00,
		shipping_cost NUMERIC(10, 2) NOT NULL,
		total NUMERIC(10, 2) NOT NULL,
		status order_status NOT NULL DEFAULT 'pending',
		payment_method VARCHAR(50) NOT NULL,
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS order_items (
		id SERIAL PRIMARY KEY,
		order_id INTEGER NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id INTEGER NOT NULL,
		product_name VARCHAR(255) NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity >= 1),
		unit_price NUMERIC(10, 2) NOT NULL,
		subtotal NUMERIC(10, 2) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS order_items_order_id_idx ON order_items (order_id);
	CREATE INDEX IF NOT EXISTS orders_created_at_idx ON orders (created_at DESC);
`

type rowScanner interface {
	Scan(dest ...any) error
}

// mapError translates integrity violations reported by Postgres into
// repository.ErrConstraint so callers can treat them as bad input.
func mapError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() == "23" {
		return fmt.Errorf("%w: %s (%s)", repository.ErrConstraint, pqErr.Message, pqErr.Code.Name())
	}
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
