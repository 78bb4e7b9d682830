package account

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgDirectory struct {
	pool *pgxpool.Pool
}

func NewPgDirectory(pool *pgxpool.Pool) *PgDirectory {
	return &PgDirectory{pool: pool}
}

func (d *PgDirectory) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, email, role, specialty, experience, created_at, updated_at
		FROM user_accounts
		WHERE id = $1
	`, id)
	return scanAccount(row)
}

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	var role string

	err := row.Scan(
		&a.ID,
		&a.FirstName,
		&a.LastName,
		&a.Email,
		&role,
		&a.Specialty,
		&a.Experience,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	a.Role = Role(role)
	return &a, nil
}
