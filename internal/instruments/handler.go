package instruments

import (
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"papertrade/internal/httputil"
	"papertrade/internal/model"
	"papertrade/internal/store"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type instrumentRequest struct {
	Name   string `json:"name"`
	Ticker string `json:"ticker"`
	Volume int64  `json:"volume"`
	Price  string `json:"price"`
}

func (r instrumentRequest) toModel() (model.Instrument, error) {
	price, err := decimal.NewFromString(r.Price)
	if err != nil {
		return model.Instrument{}, errors.New("invalid price")
	}
	return model.Instrument{Name: r.Name, Ticker: r.Ticker, Volume: r.Volume, Price: price}, nil
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req instrumentRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	in, err := req.toModel()
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	created, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request, id string) {
	var req instrumentRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	in, err := req.toModel()
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	updated, err := h.svc.Update(r.Context(), id, in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request, id string) {
	in, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, in)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, store.ErrInstrumentNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrTickerTaken):
		status = http.StatusConflict
	case errors.Is(err, store.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, status, httputil.ErrorResponse{Error: err.Error()})
}
