package postgres

import (
	"context"
	"strings"

	"github.com/fastservices/gateway/internal/domain/user"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Observer wraps a logical DB operation, e.g. for latency metrics.
type Observer interface {
	ObserveDB(op string, fn func() error) error
}

type passthrough struct{}

func (passthrough) ObserveDB(_ string, fn func() error) error { return fn() }

// AccountsRepo persists the mock directory in the mock_users table.
type AccountsRepo struct {
	pool *pgxpool.Pool
	obs  Observer
}

func NewAccountsRepo(pool *pgxpool.Pool, obs Observer) *AccountsRepo {
	if obs == nil {
		obs = passthrough{}
	}
	return &AccountsRepo{pool: pool, obs: obs}
}

const accountsSchema = `
CREATE TABLE IF NOT EXISTS mock_users (
	email         TEXT PRIMARY KEY,
	id            TEXT NOT NULL,
	first_name    TEXT NOT NULL DEFAULT '',
	last_name     TEXT NOT NULL DEFAULT '',
	phone         TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

func (r *AccountsRepo) EnsureSchema(ctx context.Context) error {
	return r.obs.ObserveDB("mock_users.ensure_schema", func() error {
		_, err := r.pool.Exec(ctx, accountsSchema)
		return err
	})
}

func (r *AccountsRepo) List(ctx context.Context) ([]user.Account, error) {
	var out []user.Account

	err := r.obs.ObserveDB("mock_users.list", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT id, first_name, last_name, email, phone, password_hash, role, created_at
			FROM mock_users
			ORDER BY email`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var a user.Account
			if err := rows.Scan(&a.ID, &a.FirstName, &a.LastName, &a.Email, &a.Phone, &a.PasswordHash, &a.Role, &a.CreatedAt); err != nil {
				return err
			}
			out = append(out, a)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *AccountsRepo) Upsert(ctx context.Context, a user.Account) error {
	return r.obs.ObserveDB("mock_users.upsert", func() error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO mock_users (email, id, first_name, last_name, phone, password_hash, role, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			ON CONFLICT (email) DO UPDATE
			SET id = EXCLUDED.id,
			    first_name = EXCLUDED.first_name,
			    last_name = EXCLUDED.last_name,
			    phone = EXCLUDED.phone,
			    password_hash = EXCLUDED.password_hash,
			    role = EXCLUDED.role`,
			strings.ToLower(a.Email), a.ID, a.FirstName, a.LastName, a.Phone, a.PasswordHash, a.Role, a.CreatedAt,
		)
		return err
	})
}

func (r *AccountsRepo) Delete(ctx context.Context, email string) error {
	return r.obs.ObserveDB("mock_users.delete", func() error {
		_, err := r.pool.Exec(ctx, `DELETE FROM mock_users WHERE email = $1`, strings.ToLower(email))
		return err
	})
}
