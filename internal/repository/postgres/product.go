package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/egannguyen/tica-shop/internal/entity"
	"github.com/egannguyen/tica-shop/internal/repository"
)

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new ProductRepository backed by Postgres.
func NewProductRepository(db *sql.DB) repository.ProductRepository {
	return &productRepository{db: db}
}

const productColumns = "id, emoji, name, slogan, description, image_url, base_price, is_active, created_at, updated_at"

func (r *productRepository) FindActive(ctx context.Context) ([]entity.Product, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+productColumns+" FROM products WHERE is_active = 1 ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []entity.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product rows: %w", err)
	}
	return products, nil
}

func (r *productRepository) FindByID(ctx context.Context, id int64) (*entity.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product %d: %w", id, err)
	}
	return p, nil
}

func (r *productRepository) Seed(ctx context.Context, products []entity.Product) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range products {
		active := 0
		if p.IsActive {
			active = 1
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO products (id, emoji, name, slogan, description, image_url, base_price, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE SET
				emoji = EXCLUDED.emoji,
				name = EXCLUDED.name,
				slogan = EXCLUDED.slogan,
				description = EXCLUDED.description,
				image_url = EXCLUDED.image_url,
				updated_at = NOW()`,
			p.ID, p.Emoji, p.Name, p.Slogan, p.Description, p.ImageURL, money(p.BasePrice), active,
		)
		if err != nil {
			return fmt.Errorf("failed to seed product %d: %w", p.ID, mapError(err))
		}
	}

	// Explicit ids bypass the serial sequence; move it past the seeded rows.
	if _, err := tx.ExecContext(ctx,
		"SELECT setval(pg_get_serial_sequence('products', 'id'), GREATEST((SELECT MAX(id) FROM products), 1))",
	); err != nil {
		return fmt.Errorf("failed to advance product sequence: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func scanProduct(s rowScanner) (*entity.Product, error) {
	var (
		p      entity.Product
		active int
	)
	if err := s.Scan(&p.ID, &p.Emoji, &p.Name, &p.Slogan, &p.Description, &p.ImageURL, &p.BasePrice, &active, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.IsActive = active != 0
	return &p, nil
}
