package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"papertrade/internal/model"
	"papertrade/internal/types"
)

// Postgres implements Store on a pgx pool. Update opens a serializable
// transaction so concurrent orders against the same account or instrument
// cannot interleave partial writes.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) Update(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return unavailable(err)
	}
	defer tx.Rollback(ctx)
	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *Postgres) View(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return unavailable(err)
	}
	defer tx.Rollback(ctx)
	return fn(&pgTx{tx: tx})
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) Account(ctx context.Context, id string) (model.Account, error) {
	var a model.Account
	err := t.tx.QueryRow(ctx, "select id, email, password_hash, funds, created_at from accounts where id = $1", id).
		Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Funds, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Account{}, ErrAccountNotFound
	}
	return a, err
}

func (t *pgTx) AccountByEmail(ctx context.Context, email string) (model.Account, error) {
	var a model.Account
	err := t.tx.QueryRow(ctx, "select id, email, password_hash, funds, created_at from accounts where email = $1", email).
		Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Funds, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Account{}, ErrAccountNotFound
	}
	return a, err
}

func (t *pgTx) CreateAccount(ctx context.Context, a model.Account) (string, error) {
	var id string
	err := t.tx.QueryRow(ctx, "insert into accounts (email, password_hash, funds, created_at) values ($1, $2, $3, $4) returning id",
		a.Email, a.PasswordHash, a.Funds, a.CreatedAt).Scan(&id)
	if isUniqueViolation(err) {
		return "", ErrEmailTaken
	}
	return id, err
}

func (t *pgTx) SaveAccount(ctx context.Context, a model.Account) error {
	tag, err := t.tx.Exec(ctx, "update accounts set funds = $1 where id = $2", a.Funds, a.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (t *pgTx) ListAccountIDs(ctx context.Context) ([]string, error) {
	rows, err := t.tx.Query(ctx, "select id from accounts order by created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (t *pgTx) Instrument(ctx context.Context, id string) (model.Instrument, error) {
	var in model.Instrument
	err := t.tx.QueryRow(ctx, "select id, name, ticker, volume, price from instruments where id = $1", id).
		Scan(&in.ID, &in.Name, &in.Ticker, &in.Volume, &in.Price)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Instrument{}, ErrInstrumentNotFound
	}
	return in, err
}

func (t *pgTx) InstrumentByTicker(ctx context.Context, ticker string) (model.Instrument, error) {
	var in model.Instrument
	err := t.tx.QueryRow(ctx, "select id, name, ticker, volume, price from instruments where ticker = $1", ticker).
		Scan(&in.ID, &in.Name, &in.Ticker, &in.Volume, &in.Price)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Instrument{}, ErrInstrumentNotFound
	}
	return in, err
}

func (t *pgTx) ListInstruments(ctx context.Context) ([]model.Instrument, error) {
	rows, err := t.tx.Query(ctx, "select id, name, ticker, volume, price from instruments order by ticker")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Instrument
	for rows.Next() {
		var in model.Instrument
		if err := rows.Scan(&in.ID, &in.Name, &in.Ticker, &in.Volume, &in.Price); err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func (t *pgTx) CreateInstrument(ctx context.Context, in model.Instrument) (string, error) {
	var id string
	err := t.tx.QueryRow(ctx, "insert into instruments (name, ticker, volume, price) values ($1, $2, $3, $4) returning id",
		in.Name, in.Ticker, in.Volume, in.Price).Scan(&id)
	if isUniqueViolation(err) {
		return "", ErrTickerTaken
	}
	return id, err
}

func (t *pgTx) SaveInstrument(ctx context.Context, in model.Instrument) error {
	tag, err := t.tx.Exec(ctx, "update instruments set name = $1, ticker = $2, volume = $3, price = $4 where id = $5",
		in.Name, in.Ticker, in.Volume, in.Price, in.ID)
	if isUniqueViolation(err) {
		return ErrTickerTaken
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInstrumentNotFound
	}
	return nil
}

func (t *pgTx) DeleteInstrument(ctx context.Context, id string) error {
	tag, err := t.tx.Exec(ctx, "delete from instruments where id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInstrumentNotFound
	}
	return nil
}

func (t *pgTx) Position(ctx context.Context, id string) (model.Position, error) {
	var p model.Position
	err := t.tx.QueryRow(ctx, "select id, account_id, ticker, name, quantity, purchase_price from positions where id = $1", id).
		Scan(&p.ID, &p.AccountID, &p.Ticker, &p.Name, &p.Quantity, &p.PurchasePrice)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Position{}, ErrPositionNotFound
	}
	return p, err
}

func (t *pgTx) PositionByTicker(ctx context.Context, accountID, ticker string) (model.Position, error) {
	var p model.Position
	err := t.tx.QueryRow(ctx, "select id, account_id, ticker, name, quantity, purchase_price from positions where account_id = $1 and ticker = $2",
		accountID, ticker).Scan(&p.ID, &p.AccountID, &p.Ticker, &p.Name, &p.Quantity, &p.PurchasePrice)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Position{}, ErrPositionNotFound
	}
	return p, err
}

func (t *pgTx) ListPositionsByAccount(ctx context.Context, accountID string) ([]model.Position, error) {
	rows, err := t.tx.Query(ctx, "select id, account_id, ticker, name, quantity, purchase_price from positions where account_id = $1 order by ticker", accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Position
	for rows.Next() {
		var p model.Position
		if err := rows.Scan(&p.ID, &p.AccountID, &p.Ticker, &p.Name, &p.Quantity, &p.PurchasePrice); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (t *pgTx) CreatePosition(ctx context.Context, p model.Position) (string, error) {
	var id string
	err := t.tx.QueryRow(ctx, "insert into positions (account_id, ticker, name, quantity, purchase_price) values ($1, $2, $3, $4, $5) returning id",
		p.AccountID, p.Ticker, p.Name, p.Quantity, p.PurchasePrice).Scan(&id)
	return id, err
}

func (t *pgTx) SavePosition(ctx context.Context, p model.Position) error {
	tag, err := t.tx.Exec(ctx, "update positions set quantity = $1, purchase_price = $2 where id = $3",
		p.Quantity, p.PurchasePrice, p.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPositionNotFound
	}
	return nil
}

func (t *pgTx) DeletePosition(ctx context.Context, id string) error {
	tag, err := t.tx.Exec(ctx, "delete from positions where id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPositionNotFound
	}
	return nil
}

func (t *pgTx) AppendTransaction(ctx context.Context, txn model.Transaction) (string, error) {
	var id string
	err := t.tx.QueryRow(ctx, "insert into transactions (account_id, action, ticker, name, quantity, price, amount, ts) values ($1, $2, $3, $4, $5, $6, $7, $8) returning id",
		txn.AccountID, string(txn.Action), txn.Ticker, txn.Name, txn.Quantity, txn.Price, txn.Amount, txn.Timestamp).Scan(&id)
	return id, err
}

func (t *pgTx) ListTransactionsByAccount(ctx context.Context, accountID string) ([]model.Transaction, error) {
	rows, err := t.tx.Query(ctx, "select id, account_id, action, ticker, name, quantity, price, amount, ts from transactions where account_id = $1 order by ts", accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Transaction
	for rows.Next() {
		var txn model.Transaction
		var action string
		if err := rows.Scan(&txn.ID, &txn.AccountID, &action, &txn.Ticker, &txn.Name, &txn.Quantity, &txn.Price, &txn.Amount, &txn.Timestamp); err != nil {
			return nil, err
		}
		txn.Action = types.TradeAction(action)
		out = append(out, txn)
	}
	return out, rows.Err()
}

func (t *pgTx) AppendPriceTick(ctx context.Context, tick model.PriceTick) (string, error) {
	var id string
	err := t.tx.QueryRow(ctx, "insert into price_ticks (ticker, price, ts) values ($1, $2, $3) returning id",
		tick.Ticker, tick.Price, tick.Timestamp).Scan(&id)
	return id, err
}

func (t *pgTx) LatestPriceTick(ctx context.Context, ticker string) (model.PriceTick, error) {
	var tick model.PriceTick
	err := t.tx.QueryRow(ctx, "select id, ticker, price, ts from price_ticks where ticker = $1 order by ts desc limit 1", ticker).
		Scan(&tick.ID, &tick.Ticker, &tick.Price, &tick.Timestamp)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.PriceTick{}, ErrNoPriceTick
	}
	return tick, err
}

func (t *pgTx) PriceHistory(ctx context.Context, ticker string) ([]model.PriceTick, error) {
	rows, err := t.tx.Query(ctx, "select id, ticker, price, ts from price_ticks where ticker = $1 order by ts desc", ticker)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.PriceTick
	for rows.Next() {
		var tick model.PriceTick
		if err := rows.Scan(&tick.ID, &tick.Ticker, &tick.Price, &tick.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, tick)
	}
	return out, rows.Err()
}

func (t *pgTx) AppendValuation(ctx context.Context, v model.ValuationSnapshot) (string, error) {
	var id string
	err := t.tx.QueryRow(ctx, "insert into valuations (account_id, total_value, ts) values ($1, $2, $3) returning id",
		v.AccountID, v.TotalValue, v.Timestamp).Scan(&id)
	return id, err
}

func (t *pgTx) ListValuationsByAccount(ctx context.Context, accountID string) ([]model.ValuationSnapshot, error) {
	rows, err := t.tx.Query(ctx, "select id, account_id, total_value, ts from valuations where account_id = $1 order by ts", accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.ValuationSnapshot
	for rows.Next() {
		var v model.ValuationSnapshot
		if err := rows.Scan(&v.ID, &v.AccountID, &v.TotalValue, &v.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (t *pgTx) AddWatch(ctx context.Context, accountID, instrumentID string) error {
	_, err := t.tx.Exec(ctx, "insert into watchlist_entries (account_id, instrument_id) values ($1, $2)", accountID, instrumentID)
	if isUniqueViolation(err) {
		return ErrWatchExists
	}
	return err
}

func (t *pgTx) RemoveWatch(ctx context.Context, accountID, instrumentID string) error {
	tag, err := t.tx.Exec(ctx, "delete from watchlist_entries where account_id = $1 and instrument_id = $2", accountID, instrumentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWatchNotFound
	}
	return nil
}

func (t *pgTx) ListWatchedInstrumentIDs(ctx context.Context, accountID string) ([]string, error) {
	rows, err := t.tx.Query(ctx, "select instrument_id from watchlist_entries where account_id = $1 order by created_at", accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
