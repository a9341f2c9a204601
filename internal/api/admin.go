package api

import (
	"net/http"
	"strconv"

	"github.com/MikeSquared-Agency/Appraisal/internal/hermes"
	"github.com/MikeSquared-Agency/Appraisal/internal/monitor"
	"github.com/MikeSquared-Agency/Appraisal/internal/store"
)

type AdminHandler struct {
	store   store.Store
	monitor *monitor.Monitor
}

// NewAdminHandler builds the handler. m may be nil, in which case the anomaly
// feed is always empty.
func NewAdminHandler(s store.Store, m *monitor.Monitor) *AdminHandler {
	return &AdminHandler{store: s, monitor: m}
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) Targets(w http.ResponseWriter, r *http.Request) {
	targets, err := h.store.ListTargets(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if targets == nil {
		targets = []*store.TargetInfo{}
	}
	writeJSON(w, http.StatusOK, targets)
}

// Anomalies lists the most recent anomaly events, newest first.
func (h *AdminHandler) Anomalies(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	events := []hermes.AnomalyDetectedEvent{}
	if h.monitor != nil {
		events = h.monitor.Recent(limit)
	}
	writeJSON(w, http.StatusOK, events)
}
