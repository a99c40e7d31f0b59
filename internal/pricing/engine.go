// Package pricing owns instrument price state. Each tick perturbs every
// instrument's price by a uniform random change in [-2.5%, +2.5%] and
// appends the new price to the instrument's history.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"papertrade/internal/model"
	"papertrade/internal/store"
	"papertrade/internal/stream"
)

type Engine struct {
	store store.Store
	bus   *stream.Bus
	now   func() time.Time
	draw  func() float64
}

// NewEngine creates the pricing engine. bus may be nil when no live feed is
// wanted.
func NewEngine(st store.Store, bus *stream.Bus) *Engine {
	return &Engine{
		store: st,
		bus:   bus,
		now:   func() time.Time { return time.Now().UTC() },
		draw:  rand.Float64,
	}
}

// Tick updates every instrument once. Instruments are processed
// independently: a failure on one is logged and collected, the rest still
// tick. The returned error joins the per-instrument failures, if any.
func (e *Engine) Tick(ctx context.Context) ([]model.PriceTick, error) {
	var instruments []model.Instrument
	err := e.store.View(ctx, func(tx store.Tx) error {
		var err error
		instruments, err = tx.ListInstruments(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	ticks := make([]model.PriceTick, 0, len(instruments))
	var errs []error
	for _, inst := range instruments {
		tick, err := e.tickInstrument(ctx, inst.Ticker)
		if err != nil {
			log.Printf("[pricing] tick %s: %v", inst.Ticker, err)
			errs = append(errs, fmt.Errorf("%s: %w", inst.Ticker, err))
			continue
		}
		ticks = append(ticks, tick)
		if e.bus != nil {
			e.bus.Publish(stream.Event{Type: "tick", Data: tick})
		}
	}
	return ticks, errors.Join(errs...)
}

func (e *Engine) tickInstrument(ctx context.Context, ticker string) (model.PriceTick, error) {
	var tick model.PriceTick
	err := e.store.Update(ctx, func(tx store.Tx) error {
		inst, err := tx.InstrumentByTicker(ctx, ticker)
		if err != nil {
			return err
		}
		change := inst.Price.Mul(decimal.NewFromFloat(e.draw()*0.05 - 0.025))
		newPrice := inst.Price.Add(change)
		if newPrice.IsNegative() {
			newPrice = decimal.Zero
		}
		inst.Price = newPrice
		if err := tx.SaveInstrument(ctx, inst); err != nil {
			return err
		}
		tick = model.PriceTick{Ticker: inst.Ticker, Price: newPrice, Timestamp: e.now()}
		id, err := tx.AppendPriceTick(ctx, tick)
		tick.ID = id
		return err
	})
	return tick, err
}

// History returns the ticker's price history, newest first.
func (e *Engine) History(ctx context.Context, ticker string) ([]model.PriceTick, error) {
	var ticks []model.PriceTick
	err := e.store.View(ctx, func(tx store.Tx) error {
		if _, err := tx.InstrumentByTicker(ctx, ticker); err != nil {
			return err
		}
		var err error
		ticks, err = tx.PriceHistory(ctx, ticker)
		return err
	})
	return ticks, err
}

func (e *Engine) Latest(ctx context.Context, ticker string) (model.PriceTick, error) {
	var tick model.PriceTick
	err := e.store.View(ctx, func(tx store.Tx) error {
		if _, err := tx.InstrumentByTicker(ctx, ticker); err != nil {
			return err
		}
		var err error
		tick, err = tx.LatestPriceTick(ctx, ticker)
		return err
	})
	return tick, err
}
