package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/egannguyen/tica-shop/internal/entity"
	"github.com/egannguyen/tica-shop/internal/repository"
)

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository backed by Postgres.
func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

const userColumns = "id, open_id, name, email, login_method, role, created_at, updated_at, last_signed_in"

func (r *userRepository) Upsert(ctx context.Context, u *entity.User) (*entity.User, error) {
	if u.OpenID == "" {
		return nil, errors.New("user openId is required for upsert")
	}

	row := r.db.QueryRowContext(ctx,
		`INSERT INTO users (open_id, name, email, login_method, role, last_signed_in)
		VALUES ($1, $2, $3, $4, COALESCE(NULLIF($5::text, ''), 'user')::user_role, NOW())
		ON CONFLICT (open_id) DO UPDATE SET
			name = COALESCE(EXCLUDED.name, users.name),
			email = COALESCE(EXCLUDED.email, users.email),
			login_method = COALESCE(EXCLUDED.login_method, users.login_method),
			role = CASE WHEN $5::text = '' THEN users.role ELSE EXCLUDED.role END,
			last_signed_in = NOW(),
			updated_at = NOW()
		RETURNING `+userColumns,
		u.OpenID, nullString(u.Name), nullString(u.Email), nullString(u.LoginMethod), string(u.Role),
	)
	saved, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", mapError(err))
	}
	return saved, nil
}

func (r *userRepository) FindByOpenID(ctx context.Context, openID string) (*entity.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE open_id = $1", openID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

func scanUser(s rowScanner) (*entity.User, error) {
	var (
		u                   entity.User
		name, email, method sql.NullString
		role                string
	)
	if err := s.Scan(&u.ID, &u.OpenID, &name, &email, &method, &role, &u.CreatedAt, &u.UpdatedAt, &u.LastSignedIn); err != nil {
		return nil, err
	}
	u.Name = name.String
	u.Email = email.String
	u.LoginMethod = method.String
	u.Role = entity.Role(role)
	return &u, nil
}
