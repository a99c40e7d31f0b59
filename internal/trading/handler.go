package trading

import (
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"papertrade/internal/httputil"
	"papertrade/internal/store"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type buyRequest struct {
	Ticker   string `json:"ticker"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Quantity int64  `json:"quantity"`
}

func (h *Handler) Buy(w http.ResponseWriter, r *http.Request, accountID string) {
	var req buyRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	ticker := strings.ToUpper(strings.TrimSpace(req.Ticker))
	if ticker == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "ticker is required"})
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "invalid price"})
		return
	}
	txn, err := h.svc.BuyOrder(r.Context(), accountID, BuyOrderRequest{
		Ticker:   ticker,
		Name:     strings.TrimSpace(req.Name),
		Price:    price,
		Quantity: req.Quantity,
	})
	if err != nil {
		httputil.WriteJSON(w, statusFor(err), httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, txn)
}

type sellRequest struct {
	PositionID string `json:"position_id"`
	Quantity   int64  `json:"quantity"`
}

func (h *Handler) Sell(w http.ResponseWriter, r *http.Request, accountID string) {
	var req sellRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	if req.PositionID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "position_id is required"})
		return
	}
	txn, err := h.svc.SellOrder(r.Context(), accountID, req.PositionID, req.Quantity)
	if err != nil {
		httputil.WriteJSON(w, statusFor(err), httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, txn)
}

type addFundsRequest struct {
	Amount string `json:"amount"`
}

func (h *Handler) AddFunds(w http.ResponseWriter, r *http.Request, accountID string) {
	var req addFundsRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "invalid amount"})
		return
	}
	if err := h.svc.AddFunds(r.Context(), accountID, amount); err != nil {
		httputil.WriteJSON(w, statusFor(err), httputil.ErrorResponse{Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Funds(w http.ResponseWriter, r *http.Request, accountID string) {
	funds, err := h.svc.Funds(r.Context(), accountID)
	if err != nil {
		httputil.WriteJSON(w, statusFor(err), httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"funds": funds.String()})
}

func (h *Handler) Portfolio(w http.ResponseWriter, r *http.Request, accountID string) {
	positions, err := h.svc.Portfolio(r.Context(), accountID)
	if err != nil {
		httputil.WriteJSON(w, statusFor(err), httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, positions)
}

func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request, accountID string) {
	txns, err := h.svc.Transactions(r.Context(), accountID)
	if err != nil {
		httputil.WriteJSON(w, statusFor(err), httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, txns)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrAccountNotFound),
		errors.Is(err, store.ErrInstrumentNotFound),
		errors.Is(err, store.ErrPositionNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, store.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}
