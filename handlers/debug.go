package handlers

import (
	"net/http"

	"chatwire/observability"
)

// DebugStats serves a point-in-time snapshot of the process for operators.
func DebugStats(collector *observability.StatsCollector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := collector.Collect()
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, stats)
	}
}
