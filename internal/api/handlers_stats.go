package api

import (
	"net/http"
)

func (s *Server) handleDocsStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		jsonError(w, "docs api stats unavailable", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"window":      s.cfg.StatsWindow.String(),
		"stats":       s.stats.Snapshot(),
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}
