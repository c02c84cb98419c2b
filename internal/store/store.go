// Package store is the Postgres persistence the frontend owns itself:
// in-progress survey drafts. Domain entities live in the backend.
package store

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}
