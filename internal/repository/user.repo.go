package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"user-service/internal/domain"
	"user-service/pkg/xerrors"
)

// Constraint names from the users schema; insert failures on these map to
// distinguishable conflict errors instead of a generic store fault.
const (
	constraintUsersPK    = "users_pkey"
	constraintUsersEmail = "users_email_key"
)

type UserRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewUserRepository(db *pgxpool.Pool, logger *zap.Logger) *UserRepository {
	return &UserRepository{db: db, logger: logger}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.Phone,
		&u.Bio,
		&u.Location,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user as a single atomic commit. A collision on the
// primary key surfaces as ErrUserAlreadyExists, on the email unique index as
// ErrEmailAlreadyInUse; both are distinct from other store faults.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	const q = `
		INSERT INTO users (id, email, name, phone, bio, location, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(ctx, q,
		user.ID,
		user.Email,
		user.Name,
		user.Phone,
		user.Bio,
		user.Location,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		switch {
		case xerrors.IsUniqueViolation(err, constraintUsersEmail):
			return xerrors.ErrEmailAlreadyInUse
		case xerrors.IsUniqueViolation(err, constraintUsersPK):
			return xerrors.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const q = `
		SELECT id, email, name, phone, bio, location, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	return scanUser(r.db.QueryRow(ctx, q, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `
		SELECT id, email, name, phone, bio, location, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	return scanUser(r.db.QueryRow(ctx, q, email))
}

// List returns users matching the conjunction of all set filters, in
// store-native order, after applying offset/limit.
func (r *UserRepository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.User, error) {
	whereClauses := []string{}
	args := []interface{}{}

	addFilter := func(column string, val *string) {
		if val == nil {
			return
		}
		args = append(args, *val)
		whereClauses = append(whereClauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	addFilter("name", filter.Name)
	addFilter("email", filter.Email)
	addFilter("phone", filter.Phone)
	addFilter("location", filter.Location)

	q := `
		SELECT id, email, name, phone, bio, location, created_at, updated_at
		FROM users
	`
	if len(whereClauses) > 0 {
		q += " WHERE " + strings.Join(whereClauses, " AND ")
	}

	args = append(args, filter.Limit)
	q += fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	q += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Update modifies only the fields present in the partial payload and always
// refreshes updated_at. Returns ErrUserNotFound when no row matched.
func (r *UserRepository) Update(ctx context.Context, id string, update *domain.UserUpdate) (*domain.User, error) {
	setClauses := []string{}
	args := []interface{}{id}

	addSet := func(column string, val *string) {
		if val == nil {
			return
		}
		args = append(args, *val)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	addSet("name", update.Name)
	addSet("phone", update.Phone)
	addSet("bio", update.Bio)
	addSet("location", update.Location)

	// always update timestamp
	setClauses = append(setClauses, "updated_at = NOW()")

	q := fmt.Sprintf(`
		UPDATE users
		SET %s
		WHERE id = $1
		RETURNING id, email, name, phone, bio, location, created_at, updated_at
	`, strings.Join(setClauses, ", "))

	return scanUser(r.db.QueryRow(ctx, q, args...))
}

// Delete removes a user, distinguishing "not found" from a store fault.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM users WHERE id = $1`

	tag, err := r.db.Exec(ctx, q, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrUserNotFound
	}
	return nil
}

// Health pings the store; exposed through the health endpoint only.
func (r *UserRepository) Health(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		r.logger.Warn("database ping failed", zap.Error(err))
		return fmt.Errorf("database unreachable: %w", err)
	}
	return nil
}
