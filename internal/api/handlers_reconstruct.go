package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dgallion1/guideparse/internal/doctree"
	"github.com/dgallion1/guideparse/internal/grobid"
	"github.com/dgallion1/guideparse/internal/report"
	"github.com/dgallion1/guideparse/internal/sections"
)

// handleReconstruct runs the reconstructor synchronously over posted
// fragment JSON. With ?format=report the plain-text report is returned.
func (s *Server) handleReconstruct(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	frags, err := sections.DecodeRaw(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			jsonError(w, "request body too large", http.StatusRequestEntityTooLarge)
		case errors.Is(err, sections.ErrInvalidFragments):
			jsonError(w, err.Error(), http.StatusBadRequest)
		default:
			jsonError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	secs, stats := sections.ReconstructWithStats(frags)
	if strings.EqualFold(r.URL.Query().Get("format"), "report") {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if _, err := report.Write(w, secs); err != nil {
			s.log.Warn("write report", "error", err)
		}
		return
	}
	if secs == nil {
		secs = []doctree.Section{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sections": secs,
		"stats":    stats,
	})
}

func (s *Server) handlePseudoXML(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	out, err := grobid.PseudoXML(r.Body)
	if err != nil {
		jsonError(w, "invalid tei: "+err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(out))
}
