package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists users.
type Repository interface {
	// Upsert creates the user for reg.Phone or refreshes its name, type and
	// child name. Points and tier are only set on creation.
	Upsert(ctx context.Context, reg Registration) (User, error)
	FindByPhone(ctx context.Context, phone string) (User, error)
	FindByID(ctx context.Context, id int64) (User, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed identity repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, phone, name, user_type, COALESCE(child_name, ''), subscription_tier, points, COALESCE(email, ''), created_at, updated_at`

// Upsert inserts or refreshes a user keyed by phone.
func (r *PostgresRepository) Upsert(ctx context.Context, reg Registration) (User, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO users (phone, name, user_type, child_name, subscription_tier, points)
        VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
        ON CONFLICT (phone) DO UPDATE
        SET name = EXCLUDED.name, user_type = EXCLUDED.user_type, child_name = EXCLUDED.child_name, updated_at = now()
        RETURNING `+userColumns,
		reg.Phone, reg.Name, reg.UserType, reg.ChildName, defaultTier, startingPoints(reg.UserType))
	return scanUser(row)
}

// FindByPhone fetches a user by phone number.
func (r *PostgresRepository) FindByPhone(ctx context.Context, phone string) (User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1`, phone))
}

// FindByID fetches a user by primary key.
func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func scanUser(row pgx.Row) (User, error) {
	var user User
	err := row.Scan(&user.ID, &user.Phone, &user.Name, &user.UserType, &user.ChildName,
		&user.SubscriptionTier, &user.Points, &user.Email, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	return user, nil
}
