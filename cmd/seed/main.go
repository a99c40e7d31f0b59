// Seed loads a small set of instruments into the database so a fresh
// deployment has something to trade. Safe to re-run: existing tickers are
// left untouched.
package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/shopspring/decimal"

	"papertrade/internal/db"
	"papertrade/internal/instruments"
	"papertrade/internal/model"
	"papertrade/internal/store"
)

var listings = []model.Instrument{
	{Name: "Apple Inc.", Ticker: "AAPL", Volume: 100000, Price: decimal.NewFromInt(190)},
	{Name: "Alphabet Inc.", Ticker: "GOOG", Volume: 80000, Price: decimal.NewFromInt(140)},
	{Name: "Microsoft Corporation", Ticker: "MSFT", Volume: 90000, Price: decimal.NewFromInt(410)},
	{Name: "Amazon.com Inc.", Ticker: "AMZN", Volume: 70000, Price: decimal.NewFromInt(175)},
	{Name: "Tesla Inc.", Ticker: "TSLA", Volume: 60000, Price: decimal.NewFromInt(250)},
}

func main() {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN is required")
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatal(err)
	}

	svc := instruments.NewService(store.NewPostgres(pool))
	for _, in := range listings {
		if _, err := svc.Create(ctx, in); err != nil {
			if errors.Is(err, store.ErrTickerTaken) {
				log.Printf("skip %s: already listed", in.Ticker)
				continue
			}
			log.Fatal(err)
		}
		log.Printf("listed %s (%s)", in.Ticker, in.Name)
	}
}
