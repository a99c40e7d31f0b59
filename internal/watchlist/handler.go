package watchlist

import (
	"errors"
	"net/http"

	"papertrade/internal/httputil"
	"papertrade/internal/store"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type watchRequest struct {
	InstrumentID string `json:"instrument_id"`
}

func (h *Handler) Add(w http.ResponseWriter, r *http.Request, accountID string) {
	var req watchRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	if err := h.svc.Add(r.Context(), accountID, req.InstrumentID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Remove(w http.ResponseWriter, r *http.Request, accountID, instrumentID string) {
	if err := h.svc.Remove(r.Context(), accountID, instrumentID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request, accountID string) {
	out, err := h.svc.List(r.Context(), accountID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, store.ErrAccountNotFound),
		errors.Is(err, store.ErrInstrumentNotFound),
		errors.Is(err, store.ErrWatchNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrWatchExists):
		status = http.StatusConflict
	case errors.Is(err, store.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, status, httputil.ErrorResponse{Error: err.Error()})
}
