package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"toolrental/internal/domain"
)

const userColumns = `users.id, users.created_at, users.updated_at, users.deleted_at,
	users.name, users.email, users.password, users.phone, users.address`

type UserRepository struct {
	db ExtHandle
}

func NewUserRepository(db ExtHandle) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (name, email, password, phone, address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		user.Name, normalizeEmail(user.Email), user.Password, user.Phone, user.Address,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUserExists
		}
		return err
	}
	user.Email = normalizeEmail(user.Email)
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE users.id = $1 AND users.deleted_at IS NULL`

	user := &domain.User{}
	if err := r.db.GetContext(ctx, user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(users.email) = $1 AND users.deleted_at IS NULL`

	user := &domain.User{}
	if err := r.db.GetContext(ctx, user, query, normalizeEmail(email)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile writes the editable contact fields.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET name = $1, email = $2, phone = $3, address = $4, updated_at = NOW()
		WHERE id = $5 AND deleted_at IS NULL
		RETURNING updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		user.Name, normalizeEmail(user.Email), user.Phone, user.Address, user.ID,
	).Scan(&user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		if isUniqueConstraintError(err) {
			return ErrUserExists
		}
		return err
	}
	user.Email = normalizeEmail(user.Email)
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, hashedPassword string) error {
	query := `UPDATE users SET password = $1, updated_at = NOW() WHERE id = $2 AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, hashedPassword, userID)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrUserNotFound)
}

func (r *UserRepository) SoftDelete(ctx context.Context, userID uuid.UUID) error {
	query := `UPDATE users SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrUserNotFound)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
