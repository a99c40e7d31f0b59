package pricing

import (
	"errors"
	"net/http"
	"strings"

	"papertrade/internal/httputil"
	"papertrade/internal/store"
)

type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request, ticker string) {
	ticks, err := h.engine.History(r.Context(), strings.ToUpper(ticker))
	if err != nil {
		h.writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ticks)
}

func (h *Handler) Latest(w http.ResponseWriter, r *http.Request, ticker string) {
	tick, err := h.engine.Latest(r.Context(), strings.ToUpper(ticker))
	if err != nil {
		h.writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tick)
}

// Generate is the manual "tick now" trigger, exposed on the internal API.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	ticks, err := h.engine.Tick(r.Context())
	if err != nil && len(ticks) == 0 {
		h.writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"ticks": ticks})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, store.ErrInstrumentNotFound), errors.Is(err, store.ErrNoPriceTick):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, status, httputil.ErrorResponse{Error: err.Error()})
}
