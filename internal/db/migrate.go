package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var statements = []string{
	`create extension if not exists "pgcrypto"`,
	`create table if not exists accounts (
		id uuid primary key default gen_random_uuid(),
		email text not null unique,
		password_hash text not null,
		funds numeric not null default 0 check (funds >= 0),
		created_at timestamptz not null default now()
	)`,
	`create table if not exists instruments (
		id uuid primary key default gen_random_uuid(),
		name text not null,
		ticker text not null unique,
		volume bigint not null check (volume >= 0),
		price numeric not null check (price >= 0)
	)`,
	`create table if not exists price_ticks (
		id uuid primary key default gen_random_uuid(),
		ticker text not null,
		price numeric not null,
		ts timestamptz not null
	)`,
	`create index if not exists price_ticks_ticker_ts on price_ticks (ticker, ts desc)`,
	`create table if not exists positions (
		id uuid primary key default gen_random_uuid(),
		account_id uuid not null references accounts (id),
		ticker text not null,
		name text not null,
		quantity bigint not null check (quantity > 0),
		purchase_price numeric not null,
		unique (account_id, ticker)
	)`,
	`create table if not exists transactions (
		id uuid primary key default gen_random_uuid(),
		account_id uuid not null references accounts (id),
		action text not null,
		ticker text not null,
		name text not null,
		quantity bigint not null,
		price numeric not null,
		amount numeric not null,
		ts timestamptz not null
	)`,
	`create table if not exists valuations (
		id uuid primary key default gen_random_uuid(),
		account_id uuid not null references accounts (id),
		total_value numeric not null,
		ts timestamptz not null
	)`,
	`create table if not exists watchlist_entries (
		account_id uuid not null references accounts (id),
		instrument_id uuid not null references instruments (id) on delete cascade,
		created_at timestamptz not null default now(),
		primary key (account_id, instrument_id)
	)`,
}

// Migrate applies the schema. Statements are idempotent so it is safe to run
// on every start.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
