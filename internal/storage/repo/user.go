package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kena741/zuluskills-admin/internal/app_errors"
	"github.com/kena741/zuluskills-admin/internal/models"
	"github.com/kena741/zuluskills-admin/internal/storage"
)

type UserRepo struct {
	store storage.RowStore
}

func NewUserRepo(store storage.RowStore) *UserRepo {
	return &UserRepo{store: store}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *UserRepo) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := selectOne[models.User](ctx, r.store, storage.TableUsers, storage.Eq("email", normalizeEmail(email)))
	if err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	if u == nil {
		return nil, app_errors.ErrUserNotFound
	}
	return u, nil
}

func (r *UserRepo) UserByID(ctx context.Context, id models.ID) (*models.User, error) {
	u, err := selectOne[models.User](ctx, r.store, storage.TableUsers, byID(id))
	if err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	if u == nil {
		return nil, app_errors.ErrUserNotFound
	}
	return u, nil
}

// CreateUser inserts an identity. passwordHash may be nil for link-only accounts.
func (r *UserRepo) CreateUser(ctx context.Context, email string, passwordHash *string, role string) (*models.User, error) {
	if _, err := r.UserByEmail(ctx, email); err == nil {
		return nil, app_errors.ErrUserExists
	} else if !errors.Is(err, app_errors.ErrUserNotFound) {
		return nil, err
	}

	values := storage.Values{"email": normalizeEmail(email)}
	setIf(values, "password_hash", passwordHash)
	if role != "" {
		values["role"] = role
	}
	row, err := r.store.Insert(ctx, storage.TableUsers, values)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	u, err := storage.DecodeOne[models.User](row)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
