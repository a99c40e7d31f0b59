package model

import (
	"time"

	"github.com/shopspring/decimal"

	"papertrade/internal/types"
)

type Account struct {
	ID           string          `json:"id"`
	Email        string          `json:"email"`
	PasswordHash string          `json:"-"`
	Funds        decimal.Decimal `json:"funds"`
	CreatedAt    time.Time       `json:"created_at"`
}

type Instrument struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Ticker string          `json:"ticker"`
	Volume int64           `json:"volume"`
	Price  decimal.Decimal `json:"price"`
}

// PriceTick is one point of an instrument's price history. Ticks are
// append-only and ordered by timestamp per ticker.
type PriceTick struct {
	ID        string          `json:"id"`
	Ticker    string          `json:"ticker"`
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
}

// Position is one account's holding of one instrument. Quantity is always
// positive while the row exists; a full sell removes it.
type Position struct {
	ID            string          `json:"id"`
	AccountID     string          `json:"account_id"`
	Ticker        string          `json:"ticker"`
	Name          string          `json:"name"`
	Quantity      int64           `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
}

// Transaction is an immutable ledger entry, one per executed order.
type Transaction struct {
	ID        string            `json:"id"`
	AccountID string            `json:"account_id"`
	Action    types.TradeAction `json:"action"`
	Ticker    string            `json:"ticker"`
	Name      string            `json:"name"`
	Quantity  int64             `json:"quantity"`
	Price     decimal.Decimal   `json:"price"`
	Amount    decimal.Decimal   `json:"amount"`
	Timestamp time.Time         `json:"timestamp"`
}

// ValuationSnapshot records an account's total portfolio value at a point
// in time.
type ValuationSnapshot struct {
	ID         string          `json:"id"`
	AccountID  string          `json:"account_id"`
	TotalValue decimal.Decimal `json:"total_value"`
	Timestamp  time.Time       `json:"timestamp"`
}
