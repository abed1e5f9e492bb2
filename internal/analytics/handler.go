package analytics

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	apperrors "github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/errors"
)

// maxTop caps the ?top= parameter of the stats endpoint.
const maxTop = 100

// Handler exposes an Aggregator over HTTP.
type Handler struct {
	aggregator *Aggregator
	logger     *slog.Logger
}

func NewHandler(aggregator *Aggregator) *Handler {
	return &Handler{
		aggregator: aggregator,
		logger:     slog.Default().With("component", "analytics-handler"),
	}
}

// Routes registers the analytics endpoints on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/analytics", h.Stats)
	mux.HandleFunc("POST /api/v1/analytics/reset", h.Reset)
}

// Stats writes the aggregated statistics. The optional top parameter sets
// how many entries each ranked list carries, from 1 to 100.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	top := DefaultTop
	if raw := r.URL.Query().Get("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxTop {
			apperrors.WriteHTTP(w, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest,
				"top must be between 1 and %d", maxTop))
			return
		}
		top = n
	}
	h.writeJSON(w, http.StatusOK, h.aggregator.StatsTop(top))
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	h.aggregator.Reset()
	h.logger.Info("analytics reset")
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to write analytics response", "error", err)
	}
}
