package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/egannguyen/tica-shop/internal/entity"
	"github.com/egannguyen/tica-shop/internal/repository"
)

// UserService keeps the identities produced by the external sign-in flow.
type UserService struct {
	users       repository.UserRepository
	ownerOpenID string
}

func NewUserService(users repository.UserRepository, ownerOpenID string) *UserService {
	return &UserService{users: users, ownerOpenID: ownerOpenID}
}

// SignIn records a sign-in. The configured owner is always stored as admin.
func (s *UserService) SignIn(ctx context.Context, u *entity.User) (*entity.User, error) {
	if u.OpenID == "" {
		verr := &ValidationError{}
		verr.add("openId", "is required")
		return nil, verr
	}
	if s.ownerOpenID != "" && u.OpenID == s.ownerOpenID {
		u.Role = entity.RoleAdmin
	}

	saved, err := s.users.Upsert(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("failed to sign in user: %w", err)
	}
	slog.Info("User signed in", "open_id", saved.OpenID, "role", saved.Role)
	return saved, nil
}

// Get returns the user with the given openId.
func (s *UserService) Get(ctx context.Context, openID string) (*entity.User, error) {
	u, err := s.users.FindByOpenID(ctx, openID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}
