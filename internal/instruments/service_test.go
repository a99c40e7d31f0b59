package instruments

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papertrade/internal/model"
	"papertrade/internal/store"
)

func TestCreate(t *testing.T) {
	svc := NewService(store.NewMemory())

	created, err := svc.Create(context.Background(), model.Instrument{
		Name: " Apple Inc ", Ticker: " aapl ", Volume: 100, Price: decimal.NewFromInt(150),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "AAPL", created.Ticker)
	assert.Equal(t, "Apple Inc", created.Name)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestCreateDuplicateTicker(t *testing.T) {
	svc := NewService(store.NewMemory())
	ctx := context.Background()

	_, err := svc.Create(ctx, model.Instrument{Name: "Apple", Ticker: "AAPL", Volume: 1, Price: decimal.NewFromInt(1)})
	require.NoError(t, err)

	_, err = svc.Create(ctx, model.Instrument{Name: "Apple 2", Ticker: "aapl", Volume: 1, Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, store.ErrTickerTaken)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(store.NewMemory())

	tests := []struct {
		name string
		in   model.Instrument
	}{
		{"missing ticker", model.Instrument{Name: "Apple", Price: decimal.NewFromInt(1)}},
		{"missing name", model.Instrument{Ticker: "AAPL", Price: decimal.NewFromInt(1)}},
		{"negative volume", model.Instrument{Name: "Apple", Ticker: "AAPL", Volume: -1, Price: decimal.NewFromInt(1)}},
		{"negative price", model.Instrument{Name: "Apple", Ticker: "AAPL", Volume: 1, Price: decimal.NewFromInt(-1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.in)
			assert.ErrorIs(t, err, ErrInvalidInstrument)
		})
	}
}

func TestUpdate(t *testing.T) {
	svc := NewService(store.NewMemory())
	ctx := context.Background()

	created, err := svc.Create(ctx, model.Instrument{Name: "Apple", Ticker: "AAPL", Volume: 100, Price: decimal.NewFromInt(150)})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, model.Instrument{Name: "Apple Inc", Ticker: "AAPL", Volume: 80, Price: decimal.NewFromInt(160)})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Apple Inc", updated.Name)
	assert.Equal(t, int64(80), updated.Volume)
	assert.True(t, updated.Price.Equal(decimal.NewFromInt(160)))
}

func TestUpdateUnknown(t *testing.T) {
	svc := NewService(store.NewMemory())

	_, err := svc.Update(context.Background(), "missing", model.Instrument{Name: "X", Ticker: "X", Volume: 1, Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, store.ErrInstrumentNotFound)
}

func TestDelete(t *testing.T) {
	svc := NewService(store.NewMemory())
	ctx := context.Background()

	created, err := svc.Create(ctx, model.Instrument{Name: "Apple", Ticker: "AAPL", Volume: 1, Price: decimal.NewFromInt(1)})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, store.ErrInstrumentNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, created.ID), store.ErrInstrumentNotFound)
}

func TestList(t *testing.T) {
	svc := NewService(store.NewMemory())
	ctx := context.Background()

	for _, ticker := range []string{"MSFT", "AAPL"} {
		_, err := svc.Create(ctx, model.Instrument{Name: ticker, Ticker: ticker, Volume: 1, Price: decimal.NewFromInt(1)})
		require.NoError(t, err)
	}

	out, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "AAPL", out[0].Ticker)
	assert.Equal(t, "MSFT", out[1].Ticker)
}
