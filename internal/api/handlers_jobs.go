package api

import (
	"net/http"

	"github.com/dgallion1/guideparse/internal/pipeline"
	"github.com/dgallion1/guideparse/internal/report"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

// finishedJob returns the job's result, or writes an error response and
// returns nil when the job is unknown or still running.
func (s *Server) finishedJob(w http.ResponseWriter, r *http.Request) *pipeline.Result {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return nil
	}
	res := job.Result()
	if res == nil {
		snap := job.Snapshot()
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":  "job has no result",
			"status": snap.Status,
			"errors": snap.Progress.Errors,
		})
		return nil
	}
	return res
}

func (s *Server) handleJobSections(w http.ResponseWriter, r *http.Request) {
	res := s.finishedJob(w, r)
	if res == nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"title":    res.Title,
		"source":   res.Source,
		"sections": res.Sections,
		"stats":    res.Stats,
	})
}

func (s *Server) handleJobReport(w http.ResponseWriter, r *http.Request) {
	res := s.finishedJob(w, r)
	if res == nil {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := report.Write(w, res.Sections); err != nil {
		s.log.Warn("write report", "error", err)
	}
}

func (s *Server) handleJobChunks(w http.ResponseWriter, r *http.Request) {
	res := s.finishedJob(w, r)
	if res == nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"title":  res.Title,
		"chunks": res.Chunks,
	})
}
