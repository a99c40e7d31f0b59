// Package valuation revalues account holdings against the latest prices and
// records portfolio value snapshots.
package valuation

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"papertrade/internal/model"
	"papertrade/internal/store"
)

type Engine struct {
	store store.Store
	now   func() time.Time
}

func NewEngine(st store.Store) *Engine {
	return &Engine{store: st, now: func() time.Time { return time.Now().UTC() }}
}

// ValueAccount computes the account's total portfolio value from the latest
// price tick of each held instrument and appends a snapshot. Instruments
// that have never ticked contribute zero rather than failing the run.
func (e *Engine) ValueAccount(ctx context.Context, accountID string) (model.ValuationSnapshot, error) {
	var snap model.ValuationSnapshot
	err := e.store.Update(ctx, func(tx store.Tx) error {
		if _, err := tx.Account(ctx, accountID); err != nil {
			return err
		}
		positions, err := tx.ListPositionsByAccount(ctx, accountID)
		if err != nil {
			return err
		}
		total := decimal.Zero
		for _, pos := range positions {
			tick, err := tx.LatestPriceTick(ctx, pos.Ticker)
			if errors.Is(err, store.ErrNoPriceTick) {
				continue
			}
			if err != nil {
				return err
			}
			total = total.Add(tick.Price.Mul(decimal.NewFromInt(pos.Quantity)))
		}
		snap = model.ValuationSnapshot{AccountID: accountID, TotalValue: total, Timestamp: e.now()}
		id, err := tx.AppendValuation(ctx, snap)
		snap.ID = id
		return err
	})
	if err != nil {
		return model.ValuationSnapshot{}, err
	}
	return snap, nil
}

// History returns the account's valuation snapshots, oldest first.
func (e *Engine) History(ctx context.Context, accountID string) ([]model.ValuationSnapshot, error) {
	var snaps []model.ValuationSnapshot
	err := e.store.View(ctx, func(tx store.Tx) error {
		if _, err := tx.Account(ctx, accountID); err != nil {
			return err
		}
		var err error
		snaps, err = tx.ListValuationsByAccount(ctx, accountID)
		return err
	})
	return snaps, err
}
