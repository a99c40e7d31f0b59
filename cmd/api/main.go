package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"papertrade/internal/auth"
	"papertrade/internal/config"
	"papertrade/internal/db"
	"papertrade/internal/httpserver"
	"papertrade/internal/instruments"
	"papertrade/internal/pricing"
	"papertrade/internal/scheduler"
	"papertrade/internal/store"
	"papertrade/internal/stream"
	"papertrade/internal/trading"
	"papertrade/internal/valuation"
	"papertrade/internal/watchlist"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	startingFunds, err := decimal.NewFromString(cfg.StartingFunds)
	if err != nil {
		log.Fatal(err)
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatal(err)
	}

	st := store.NewPostgres(pool)
	bus := stream.NewBus()

	tradingSvc := trading.NewService(st)
	pricingEngine := pricing.NewEngine(st, bus)
	valuationEngine := valuation.NewEngine(st)
	instrumentSvc := instruments.NewService(st)
	watchlistSvc := watchlist.NewService(st)
	authSvc := auth.NewService(st, cfg.JWTIssuer, []byte(cfg.JWTSecret), cfg.JWTTTL, startingFunds)

	sched := scheduler.New(scheduler.Config{
		Interval:  cfg.TickInterval,
		Valuation: cfg.ValuationEnabled,
	}, pricingEngine, valuationEngine, st)

	router := httpserver.NewRouter(httpserver.RouterDeps{
		AuthHandler:       auth.NewHandler(authSvc),
		TradingHandler:    trading.NewHandler(tradingSvc),
		PricingHandler:    pricing.NewHandler(pricingEngine),
		ValuationHandler:  valuation.NewHandler(valuationEngine),
		InstrumentHandler: instruments.NewHandler(instrumentSvc),
		WatchlistHandler:  watchlist.NewHandler(watchlistSvc),
		AuthService:       authSvc,
		InternalToken:     cfg.InternalToken,
		TickWSHandler:     httpserver.NewTickWSHandler(bus, cfg.WebSocketOrigin),
	})
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	sched.Start(ctx)

	log.Printf("server listening on %s", cfg.HTTPAddr)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := sched.Stop(shutdownCtx); err != nil {
			log.Printf("scheduler stop: %v", err)
		}
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
