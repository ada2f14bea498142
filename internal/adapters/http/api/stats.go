package api

import (
	"net/http"
)

// StatsProvider reports the service's worklog counters (submissions,
// worklogs created and failed, validations) and its effective settings.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves the counters behind /stats.
type StatsHandler struct {
	statsProvider StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(statsProvider StatsProvider) *StatsHandler {
	return &StatsHandler{statsProvider: statsProvider}
}

// HandleStats handles GET /stats. Credentials never appear in the payload;
// only whether a fallback identity is configured.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.statsProvider.GetStats())
}
