package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"papertrade/internal/auth"
	"papertrade/internal/httputil"
	"papertrade/internal/instruments"
	"papertrade/internal/pricing"
	"papertrade/internal/trading"
	"papertrade/internal/valuation"
	"papertrade/internal/watchlist"
)

type RouterDeps struct {
	AuthHandler       *auth.Handler
	TradingHandler    *trading.Handler
	PricingHandler    *pricing.Handler
	ValuationHandler  *valuation.Handler
	InstrumentHandler *instruments.Handler
	WatchlistHandler  *watchlist.Handler
	AuthService       *auth.Service
	InternalToken     string
	TickWSHandler     http.Handler
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", d.AuthHandler.Register)
			r.Post("/login", d.AuthHandler.Login)
		})

		// Public market data.
		r.Get("/market/instruments", d.InstrumentHandler.List)
		r.Get("/market/{ticker}/history", func(w http.ResponseWriter, r *http.Request) {
			d.PricingHandler.History(w, r, chi.URLParam(r, "ticker"))
		})
		r.Get("/market/{ticker}/latest", func(w http.ResponseWriter, r *http.Request) {
			d.PricingHandler.Latest(w, r, chi.URLParam(r, "ticker"))
		})
		r.Get("/market/ws", d.TickWSHandler.ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(WithAuth(d.AuthService))
			r.Get("/me", withAccount(d.AuthHandler.Me))
			r.Get("/funds", withAccount(d.TradingHandler.Funds))
			r.Post("/funds", withAccount(d.TradingHandler.AddFunds))
			r.Post("/orders/buy", withAccount(d.TradingHandler.Buy))
			r.Post("/orders/sell", withAccount(d.TradingHandler.Sell))
			r.Get("/portfolio", withAccount(d.TradingHandler.Portfolio))
			r.Get("/portfolio/history", withAccount(d.ValuationHandler.History))
			r.Post("/portfolio/value", withAccount(d.ValuationHandler.Value))
			r.Get("/transactions", withAccount(d.TradingHandler.Transactions))
			r.Get("/watchlist", withAccount(d.WatchlistHandler.List))
			r.Post("/watchlist", withAccount(d.WatchlistHandler.Add))
			r.Delete("/watchlist/{id}", func(w http.ResponseWriter, r *http.Request) {
				accountID, ok := AccountID(r)
				if !ok {
					httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{Error: "unauthorized"})
					return
				}
				d.WatchlistHandler.Remove(w, r, accountID, chi.URLParam(r, "id"))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(InternalAuth(d.InternalToken))
			r.Post("/internal/instruments", d.InstrumentHandler.Create)
			r.Get("/internal/instruments/{id}", func(w http.ResponseWriter, r *http.Request) {
				d.InstrumentHandler.Get(w, r, chi.URLParam(r, "id"))
			})
			r.Put("/internal/instruments/{id}", func(w http.ResponseWriter, r *http.Request) {
				d.InstrumentHandler.Update(w, r, chi.URLParam(r, "id"))
			})
			r.Delete("/internal/instruments/{id}", func(w http.ResponseWriter, r *http.Request) {
				d.InstrumentHandler.Delete(w, r, chi.URLParam(r, "id"))
			})
			r.Post("/internal/prices/generate", d.PricingHandler.Generate)
		})
	})
	return r
}

func withAccount(fn func(w http.ResponseWriter, r *http.Request, accountID string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := AccountID(r)
		if !ok {
			httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{Error: "unauthorized"})
			return
		}
		fn(w, r, accountID)
	}
}
