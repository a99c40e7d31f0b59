// Package trading executes buy and sell orders against the simulated
// market. Every order runs inside a single store transaction: either all of
// funds, volume, position and ledger change, or none of them do.
package trading

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"papertrade/internal/model"
	"papertrade/internal/store"
	"papertrade/internal/types"
)

type Service struct {
	store store.Store
	now   func() time.Time
}

func NewService(st store.Store) *Service {
	return &Service{store: st, now: func() time.Time { return time.Now().UTC() }}
}

type BuyOrderRequest struct {
	Ticker   string
	Name     string
	Price    decimal.Decimal
	Quantity int64
}

// BuyOrder validates and applies a buy against account funds and instrument
// volume, upserts the position and appends a BUY ledger entry.
//
// A repeat buy overwrites the recorded purchase price with the incoming one
// rather than averaging; sells are later valued at that price. Both are
// intentional simplifications of the simulated market.
func (s *Service) BuyOrder(ctx context.Context, accountID string, req BuyOrderRequest) (model.Transaction, error) {
	if req.Quantity <= 0 {
		return model.Transaction{}, fmt.Errorf("%w: quantity must be positive", ErrInvalidArgument)
	}
	if req.Price.IsNegative() {
		return model.Transaction{}, fmt.Errorf("%w: price must not be negative", ErrInvalidArgument)
	}
	var txn model.Transaction
	err := s.store.Update(ctx, func(tx store.Tx) error {
		acct, err := tx.Account(ctx, accountID)
		if err != nil {
			return err
		}
		totalCost := req.Price.Mul(decimal.NewFromInt(req.Quantity))
		if acct.Funds.LessThan(totalCost) {
			return ErrInsufficientFunds
		}
		inst, err := tx.InstrumentByTicker(ctx, req.Ticker)
		if err != nil {
			return err
		}
		if inst.Volume < req.Quantity {
			return ErrInsufficientVolume
		}
		inst.Volume -= req.Quantity
		if err := tx.SaveInstrument(ctx, inst); err != nil {
			return err
		}
		acct.Funds = acct.Funds.Sub(totalCost)
		if err := tx.SaveAccount(ctx, acct); err != nil {
			return err
		}
		name := req.Name
		if name == "" {
			name = inst.Name
		}
		pos, err := tx.PositionByTicker(ctx, accountID, inst.Ticker)
		switch {
		case err == nil:
			pos.Quantity += req.Quantity
			pos.PurchasePrice = req.Price
			if err := tx.SavePosition(ctx, pos); err != nil {
				return err
			}
		case errors.Is(err, store.ErrPositionNotFound):
			if _, err := tx.CreatePosition(ctx, model.Position{
				AccountID:     accountID,
				Ticker:        inst.Ticker,
				Name:          name,
				Quantity:      req.Quantity,
				PurchasePrice: req.Price,
			}); err != nil {
				return err
			}
		default:
			return err
		}
		txn = model.Transaction{
			AccountID: accountID,
			Action:    types.TradeActionBuy,
			Ticker:    inst.Ticker,
			Name:      name,
			Quantity:  req.Quantity,
			Price:     req.Price,
			Amount:    totalCost,
			Timestamp: s.now(),
		}
		id, err := tx.AppendTransaction(ctx, txn)
		txn.ID = id
		return err
	})
	if err != nil {
		return model.Transaction{}, err
	}
	return txn, nil
}

// SellOrder sells quantity shares out of the position. Proceeds are valued
// at the recorded purchase price, not the current market price, and the
// instrument's tradable volume is not replenished. Selling the full quantity
// removes the position row in the same transaction.
func (s *Service) SellOrder(ctx context.Context, accountID, positionID string, quantity int64) (model.Transaction, error) {
	if quantity <= 0 {
		return model.Transaction{}, fmt.Errorf("%w: quantity must be positive", ErrInvalidArgument)
	}
	var txn model.Transaction
	err := s.store.Update(ctx, func(tx store.Tx) error {
		pos, err := tx.Position(ctx, positionID)
		if err != nil {
			return err
		}
		if pos.AccountID != accountID {
			return ErrUnauthorized
		}
		if quantity > pos.Quantity {
			return ErrInsufficientQuantity
		}
		proceeds := pos.PurchasePrice.Mul(decimal.NewFromInt(quantity))
		acct, err := tx.Account(ctx, accountID)
		if err != nil {
			return err
		}
		acct.Funds = acct.Funds.Add(proceeds)
		if err := tx.SaveAccount(ctx, acct); err != nil {
			return err
		}
		if quantity == pos.Quantity {
			if err := tx.DeletePosition(ctx, pos.ID); err != nil {
				return err
			}
		} else {
			pos.Quantity -= quantity
			if err := tx.SavePosition(ctx, pos); err != nil {
				return err
			}
		}
		txn = model.Transaction{
			AccountID: accountID,
			Action:    types.TradeActionSell,
			Ticker:    pos.Ticker,
			Name:      pos.Name,
			Quantity:  quantity,
			Price:     pos.PurchasePrice,
			Amount:    proceeds,
			Timestamp: s.now(),
		}
		id, err := tx.AppendTransaction(ctx, txn)
		txn.ID = id
		return err
	})
	if err != nil {
		return model.Transaction{}, err
	}
	return txn, nil
}

func (s *Service) AddFunds(ctx context.Context, accountID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidArgument)
	}
	return s.store.Update(ctx, func(tx store.Tx) error {
		acct, err := tx.Account(ctx, accountID)
		if err != nil {
			return err
		}
		acct.Funds = acct.Funds.Add(amount)
		return tx.SaveAccount(ctx, acct)
	})
}

func (s *Service) Funds(ctx context.Context, accountID string) (decimal.Decimal, error) {
	var funds decimal.Decimal
	err := s.store.View(ctx, func(tx store.Tx) error {
		acct, err := tx.Account(ctx, accountID)
		if err != nil {
			return err
		}
		funds = acct.Funds
		return nil
	})
	return funds, err
}

func (s *Service) Portfolio(ctx context.Context, accountID string) ([]model.Position, error) {
	var positions []model.Position
	err := s.store.View(ctx, func(tx store.Tx) error {
		if _, err := tx.Account(ctx, accountID); err != nil {
			return err
		}
		var err error
		positions, err = tx.ListPositionsByAccount(ctx, accountID)
		return err
	})
	return positions, err
}

func (s *Service) Transactions(ctx context.Context, accountID string) ([]model.Transaction, error) {
	var txns []model.Transaction
	err := s.store.View(ctx, func(tx store.Tx) error {
		if _, err := tx.Account(ctx, accountID); err != nil {
			return err
		}
		var err error
		txns, err = tx.ListTransactionsByAccount(ctx, accountID)
		return err
	})
	return txns, err
}
