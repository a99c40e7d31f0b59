package valuation

import (
	"errors"
	"net/http"

	"papertrade/internal/httputil"
	"papertrade/internal/store"
)

type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request, accountID string) {
	snaps, err := h.engine.History(r.Context(), accountID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, snaps)
}

// Value is the manual valuation trigger for the authed account.
func (h *Handler) Value(w http.ResponseWriter, r *http.Request, accountID string) {
	snap, err := h.engine.ValueAccount(r.Context(), accountID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, snap)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, store.ErrAccountNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, status, httputil.ErrorResponse{Error: err.Error()})
}
