// Package store defines the persistence contract shared by every engine.
// All cross-entity writes go through Update, which commits everything the
// callback did or nothing at all.
package store

import (
	"context"
	"errors"

	"papertrade/internal/model"
)

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInstrumentNotFound = errors.New("instrument not found")
	ErrTickerTaken        = errors.New("ticker already exists")
	ErrPositionNotFound   = errors.New("position not found")
	ErrNoPriceTick        = errors.New("no price ticks for ticker")
	ErrWatchExists        = errors.New("instrument already in watchlist")
	ErrWatchNotFound      = errors.New("instrument not in watchlist")

	// ErrUnavailable wraps transient infrastructure failures. The scheduler
	// treats it as retryable on its next cycle; trading calls surface it.
	ErrUnavailable = errors.New("store unavailable")
)

// Tx is the set of operations available inside a transaction. Writes made
// through a Tx become visible only when the enclosing Update commits.
type Tx interface {
	Account(ctx context.Context, id string) (model.Account, error)
	AccountByEmail(ctx context.Context, email string) (model.Account, error)
	CreateAccount(ctx context.Context, a model.Account) (string, error)
	SaveAccount(ctx context.Context, a model.Account) error
	ListAccountIDs(ctx context.Context) ([]string, error)

	Instrument(ctx context.Context, id string) (model.Instrument, error)
	InstrumentByTicker(ctx context.Context, ticker string) (model.Instrument, error)
	ListInstruments(ctx context.Context) ([]model.Instrument, error)
	CreateInstrument(ctx context.Context, in model.Instrument) (string, error)
	SaveInstrument(ctx context.Context, in model.Instrument) error
	DeleteInstrument(ctx context.Context, id string) error

	Position(ctx context.Context, id string) (model.Position, error)
	PositionByTicker(ctx context.Context, accountID, ticker string) (model.Position, error)
	ListPositionsByAccount(ctx context.Context, accountID string) ([]model.Position, error)
	CreatePosition(ctx context.Context, p model.Position) (string, error)
	SavePosition(ctx context.Context, p model.Position) error
	DeletePosition(ctx context.Context, id string) error

	AppendTransaction(ctx context.Context, t model.Transaction) (string, error)
	ListTransactionsByAccount(ctx context.Context, accountID string) ([]model.Transaction, error)

	AppendPriceTick(ctx context.Context, t model.PriceTick) (string, error)
	// LatestPriceTick returns the most recent tick for the ticker, or
	// ErrNoPriceTick if the instrument has never ticked.
	LatestPriceTick(ctx context.Context, ticker string) (model.PriceTick, error)
	// PriceHistory returns ticks ordered by timestamp descending.
	PriceHistory(ctx context.Context, ticker string) ([]model.PriceTick, error)

	AppendValuation(ctx context.Context, v model.ValuationSnapshot) (string, error)
	ListValuationsByAccount(ctx context.Context, accountID string) ([]model.ValuationSnapshot, error)

	AddWatch(ctx context.Context, accountID, instrumentID string) error
	RemoveWatch(ctx context.Context, accountID, instrumentID string) error
	ListWatchedInstrumentIDs(ctx context.Context, accountID string) ([]string, error)
}

type Store interface {
	// Update runs fn in a read-write transaction. If fn returns an error the
	// transaction is rolled back and the error returned unchanged.
	Update(ctx context.Context, fn func(tx Tx) error) error
	// View runs fn against a consistent read-only snapshot. Writes made by
	// fn are discarded.
	View(ctx context.Context, fn func(tx Tx) error) error
}
