package api

import (
	"context"
	"net/http"
	"time"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":      "ok",
		"grobid":      "disabled",
		"queue_depth": s.orchestrator.QueueDepth(),
	}
	if gc := s.orchestrator.Grobid(); gc != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := gc.IsAlive(ctx); err != nil {
			resp["grobid"] = "down"
			resp["grobid_error"] = err.Error()
		} else {
			resp["grobid"] = "up"
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGrobidStats(w http.ResponseWriter, r *http.Request) {
	gc := s.orchestrator.Grobid()
	if gc == nil || gc.Stats == nil {
		jsonError(w, "grobid stats unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"url":   gc.BaseURL(),
		"stats": gc.Stats.Snapshot(),
	})
}
