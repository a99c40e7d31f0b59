package trading

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papertrade/internal/model"
	"papertrade/internal/store"
	"papertrade/internal/types"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

var emailSeq int

func seedAccount(t *testing.T, st *store.Memory, funds string) string {
	t.Helper()
	emailSeq++
	email := fmt.Sprintf("trader%d@example.com", emailSeq)
	var id string
	err := st.Update(context.Background(), func(tx store.Tx) error {
		var err error
		id, err = tx.CreateAccount(context.Background(), model.Account{
			Email:     email,
			Funds:     dec(t, funds),
			CreatedAt: time.Now().UTC(),
		})
		return err
	})
	require.NoError(t, err)
	return id
}

func seedInstrument(t *testing.T, st *store.Memory, ticker string, volume int64, price string) {
	t.Helper()
	err := st.Update(context.Background(), func(tx store.Tx) error {
		_, err := tx.CreateInstrument(context.Background(), model.Instrument{
			Name:   ticker + " Corp",
			Ticker: ticker,
			Volume: volume,
			Price:  dec(t, price),
		})
		return err
	})
	require.NoError(t, err)
}

func getInstrument(t *testing.T, st *store.Memory, ticker string) model.Instrument {
	t.Helper()
	var in model.Instrument
	err := st.View(context.Background(), func(tx store.Tx) error {
		var err error
		in, err = tx.InstrumentByTicker(context.Background(), ticker)
		return err
	})
	require.NoError(t, err)
	return in
}

func TestBuyOrder(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st)
	ctx := context.Background()

	accountID := seedAccount(t, st, "1000")
	seedInstrument(t, st, "AAPL", 50, "100")

	txn, err := svc.BuyOrder(ctx, accountID, BuyOrderRequest{
		Ticker: "AAPL", Price: dec(t, "100"), Quantity: 5,
	})
	require.NoError(t, err)

	assert.Equal(t, types.TradeActionBuy, txn.Action)
	assert.Equal(t, "AAPL", txn.Ticker)
	assert.Equal(t, int64(5), txn.Quantity)
	assert.True(t, txn.Amount.Equal(dec(t, "500")), "amount = %s", txn.Amount)
	assert.NotEmpty(t, txn.ID)

	funds, err := svc.Funds(ctx, accountID)
	require.NoError(t, err)
	assert.True(t, funds.Equal(dec(t, "500")), "funds = %s", funds)

	assert.Equal(t, int64(45), getInstrument(t, st, "AAPL").Volume)

	positions, err := svc.Portfolio(ctx, accountID)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, "AAPL", positions[0].Ticker)
	assert.Equal(t, int64(5), positions[0].Quantity)
	assert.True(t, positions[0].PurchasePrice.Equal(dec(t, "100")))

	txns, err := svc.Transactions(ctx, accountID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
}

func TestBuyOrderRepeatOverwritesPurchasePrice(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st)
	ctx := context.Background()

	accountID := seedAccount(t, st, "2000")
	seedInstrument(t, st, "AAPL", 50, "100")

	_, err := svc.BuyOrder(ctx, accountID, BuyOrderRequest{Ticker: "AAPL", Price: dec(t, "100"), Quantity: 5})
	require.NoError(t, err)
	_, err = svc.BuyOrder(ctx, accountID, BuyOrderRequest{Ticker: "AAPL", Price: dec(t, "120"), Quantity: 3})
	require.NoError(t, err)

	positions, err := svc.Portfolio(ctx, accountID)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, int64(8), positions[0].Quantity)
	// Last trade wins, not a weighted average.
	assert.True(t, positions[0].PurchasePrice.Equal(dec(t, "120")))

	funds, err := svc.Funds(ctx, accountID)
	require.NoError(t, err)
	assert.True(t, funds.Equal(dec(t, "1140")), "funds = %s", funds)
}

func TestBuyOrderInsufficientFunds(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st)
	ctx := context.Background()

	accountID := seedAccount(t, st, "400")
	seedInstrument(t, st, "AAPL", 50, "100")

	_, err := svc.BuyOrder(ctx, accountID, BuyOrderRequest{Ticker: "AAPL", Price: dec(t, "100"), Quantity: 5})
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	assertUntouched(t, st, svc, accountID, "400", 50)
}

func TestBuyOrderInsufficientVolume(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st)
	ctx := context.Background()

	accountID := seedAccount(t, st, "10000")
	seedInstrument(t, st, "AAPL", 5, "100")

	_, err := svc.BuyOrder(ctx, accountID, BuyOrderRequest{Ticker: "AAPL", Price: dec(t, "100"), Quantity: 10})
	assert.ErrorIs(t, err, ErrInsufficientVolume)

	assertUntouched(t, st, svc, accountID, "10000", 5)
}

// assertUntouched checks that a failed order left funds, volume, positions
// and the ledger unchanged.
func assertUntouched(t *testing.T, st *store.Memory, svc *Service, accountID, wantFunds string, wantVolume int64) {
	t.Helper()
	ctx := context.Background()

	funds, err := svc.Funds(ctx, accountID)
	require.NoError(t, err)
	assert.True(t, funds.Equal(dec(t, wantFunds)), "funds = %s", funds)

	assert.Equal(t, wantVolume, getInstrument(t, st, "AAPL").Volume)

	positions, err := svc.Portfolio(ctx, accountID)
	require.NoError(t, err)
	assert.Empty(t, positions)

	txns, err := svc.Transactions(ctx, accountID)
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestBuyOrderUnknownTicker(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st)

	accountID := seedAccount(t, st, "1000")

	_, err := svc.BuyOrder(context.Background(), accountID, BuyOrderRequest{Ticker: "NOPE", Price: dec(t, "100"), Quantity: 1})
	assert.ErrorIs(t, err, store.ErrInstrumentNotFound)
}

func TestBuyOrderUnknownAccount(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st)
	seedInstrument(t, st, "AAPL", 50, "100")

	_, err := svc.BuyOrder(context.Background(), "missing", BuyOrderRequest{Ticker: "AAPL", Price: dec(t, "100"), Quantity: 1})
	assert.ErrorIs(t, err, store.ErrAccountNotFound)
}

func TestBuyOrderInvalidArguments(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st)
	accountID := seedAccount(t, st, "1000")
	seedInstrument(t, st, "AAPL", 50, "100")

	tests := []struct {
		name string
		req  BuyOrderRequest
	}{
		{"zero quantity", BuyOrderRequest{Ticker: "AAPL", Price: dec(t, "100"), Quantity: 0}},
		{"negative quantity", BuyOrderRequest{Ticker: "AAPL", Price: dec(t, "100"), Quantity: -1}},
		{"negative price", BuyOrderRequest{Ticker: "AAPL", Price: dec(t, "-1"), Quantity: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.BuyOrder(context.Background(), accountID, tt.req)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestSellOrderPartial(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st)
	ctx := context.Background()

	accountID := seedAccount(t, st, "1000")
	seedInstrument(t, st, "AAPL", 50, "100")
	_, err := svc.BuyOrder(ctx, accountID, BuyOrderRequest{Ticker: "AAPL", Price: dec(t, "100"), Quantity: 5})
	require.NoError(t, err)

	positions, err := svc.Portfolio(ctx, accountID)
	require.NoError(t, err)
	require.Len(t, positions, 1)

	txn, err := svc.SellOrder(ctx, accountID, positions[0].ID, 2)
	require.NoError(t, err)
	assert.Equal(t, types.TradeActionSell, txn.Action)
	assert.True(t, txn.Amount.Equal(dec(t, "200")))

	positions, err = svc.Portfolio(ctx, accountID)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, int64(3), positions[0].Quantity)

	funds, err := svc.Funds(ctx, accountID)
	require.NoError(t, err)
	assert.True(t, funds.Equal(dec(t, "700")), "funds = %s", funds)
}

func TestSellOrderFullRemovesPositionAndKeepsVolume(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st)
	ctx := context.Background()

	accountID := seedAccount(t, st, "1000")
	seedInstrument(t, st, "AAPL", 50, "100")
	_, err := svc.BuyOrder(ctx, accountID, BuyOrderRequest{Ticker: "AAPL", Price: dec(t, "100"), Quantity: 5})
	require.NoError(t, err)

	positions, err := svc.Portfolio(ctx, accountID)
	require.NoError(t, err)
	require.Len(t, positions, 1)

	txn, err := svc.SellOrder(ctx, accountID, positions[0].ID, 5)
	require.NoError(t, err)
	assert.True(t, txn.Amount.Equal(dec(t, "500")))

	positions, err = svc.Portfolio(ctx, accountID)
	require.NoError(t, err)
	assert.Empty(t, positions)

	// Funds round-trip to the starting amount because the sell is valued at
	// the recorded purchase price.
	funds, err := svc.Funds(ctx, accountID)
	require.NoError(t, err)
	assert.True(t, funds.Equal(dec(t, "1000")), "funds = %s", funds)

	// Sold shares do not return to the market.
	assert.Equal(t, int64(45), getInstrument(t, st, "AAPL").Volume)

	txns, err := svc.Transactions(ctx, accountID)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, types.TradeActionSell, txns[1].Action)
}

func TestSellOrderValuedAtPurchasePriceNotMarket(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st)
	ctx := context.Background()

	accountID := seedAccount(t, st, "1000")
	seedInstrument(t, st, "AAPL", 50, "100")
	_, err := svc.BuyOrder(ctx, accountID, BuyOrderRequest{Ticker: "AAPL", Price: dec(t, "100"), Quantity: 5})
	require.NoError(t, err)

	// Market doubles after the buy.
	err = st.Update(ctx, func(tx store.Tx) error {
		in, err := tx.InstrumentByTicker(ctx, "AAPL")
		if err != nil {
			return err
		}
		in.Price = dec(t, "200")
		if err := tx.SaveInstrument(ctx, in); err != nil {
			return err
		}
		_, err = tx.AppendPriceTick(ctx, model.PriceTick{Ticker: "AAPL", Price: dec(t, "200"), Timestamp: time.Now().UTC()})
		return err
	})
	require.NoError(t, err)

	positions, err := svc.Portfolio(ctx, accountID)
	require.NoError(t, err)
	require.Len(t, positions, 1)

	txn, err := svc.SellOrder(ctx, accountID, positions[0].ID, 5)
	require.NoError(t, err)
	assert.True(t, txn.Amount.Equal(dec(t, "500")), "amount = %s", txn.Amount)
}

func TestSellOrderUnauthorized(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st)
	ctx := context.Background()

	ownerID := seedAccount(t, st, "1000")
	otherID := seedAccount(t, st, "1000")
	seedInstrument(t, st, "AAPL", 50, "100")
	_, err := svc.BuyOrder(ctx, ownerID, BuyOrderRequest{Ticker: "AAPL", Price: dec(t, "100"), Quantity: 5})
	require.NoError(t, err)

	positions, err := svc.Portfolio(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, positions, 1)

	_, err = svc.SellOrder(ctx, otherID, positions[0].ID, 1)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// The owner's position is untouched.
	positions, err = svc.Portfolio(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, int64(5), positions[0].Quantity)
}

func TestSellOrderTooManyShares(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st)
	ctx := context.Background()

	accountID := seedAccount(t, st, "1000")
	seedInstrument(t, st, "AAPL", 50, "100")
	_, err := svc.BuyOrder(ctx, accountID, BuyOrderRequest{Ticker: "AAPL", Price: dec(t, "100"), Quantity: 5})
	require.NoError(t, err)

	positions, err := svc.Portfolio(ctx, accountID)
	require.NoError(t, err)

	_, err = svc.SellOrder(ctx, accountID, positions[0].ID, 6)
	assert.ErrorIs(t, err, ErrInsufficientQuantity)

	funds, err := svc.Funds(ctx, accountID)
	require.NoError(t, err)
	assert.True(t, funds.Equal(dec(t, "500")), "funds = %s", funds)
}

func TestSellOrderUnknownPosition(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st)
	accountID := seedAccount(t, st, "1000")

	_, err := svc.SellOrder(context.Background(), accountID, "missing", 1)
	assert.ErrorIs(t, err, store.ErrPositionNotFound)
}

func TestSellOrderInvalidQuantity(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st)

	_, err := svc.SellOrder(context.Background(), "acct", "pos", 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestAddFunds(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st)
	ctx := context.Background()

	accountID := seedAccount(t, st, "100")
	require.NoError(t, svc.AddFunds(ctx, accountID, dec(t, "250.50")))

	funds, err := svc.Funds(ctx, accountID)
	require.NoError(t, err)
	assert.True(t, funds.Equal(dec(t, "350.50")), "funds = %s", funds)
}

func TestAddFundsRejectsNonPositive(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st)
	accountID := seedAccount(t, st, "100")

	assert.ErrorIs(t, svc.AddFunds(context.Background(), accountID, dec(t, "0")), ErrInvalidArgument)
	assert.ErrorIs(t, svc.AddFunds(context.Background(), accountID, dec(t, "-5")), ErrInvalidArgument)
}
