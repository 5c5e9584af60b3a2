package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/secgest/internal/edgar"
	"github.com/dgallion1/secgest/internal/pipeline"
)

// handleFetchFilings downloads the latest filing of each requested form
// and queues it for ingestion. Forms default to S-1, S-1/A and 424B4 and
// may be narrowed with repeated ?form= parameters.
func (s *Server) handleFetchFilings(w http.ResponseWriter, r *http.Request) {
	if s.deps.Fetcher == nil {
		jsonError(w, "filing registry unavailable", http.StatusServiceUnavailable)
		return
	}
	ticker := strings.TrimSpace(chi.URLParam(r, "ticker"))
	forms := r.URL.Query()["form"]
	if len(forms) == 0 {
		forms = edgar.IPOForms
	}

	var results []map[string]any
	queued := 0
	for _, form := range forms {
		doc, meta, err := s.deps.Fetcher.Fetch(r.Context(), ticker, form)
		if err != nil {
			if errors.Is(err, edgar.ErrCompanyNotFound) {
				jsonError(w, err.Error(), http.StatusNotFound)
				return
			}
			s.log.Warn("filing fetch failed", "ticker", ticker, "form", form, "error", err)
			results = append(results, map[string]any{"form": form, "error": err.Error()})
			continue
		}

		job := pipeline.NewJob(doc, meta.Ticker)
		if err := s.deps.Orchestrator.Submit(job); err != nil {
			results = append(results, map[string]any{"form": form, "error": err.Error()})
			continue
		}
		queued++
		res := jobAccepted(job)
		res["form"] = form
		res["filing_date"] = meta.FilingDate
		res["url"] = meta.URL
		results = append(results, res)
	}

	code := http.StatusAccepted
	if queued == 0 {
		code = http.StatusBadGateway
	}
	writeJSON(w, code, map[string]any{"ticker": strings.ToUpper(ticker), "jobs": results})
}

// handleResetIndex drops every stored chunk.
func (s *Server) handleResetIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Store.Reset(r.Context()); err != nil {
		jsonError(w, "failed to reset index: "+err.Error(), http.StatusInternalServerError)
		return
	}
	s.log.Info("vector index reset")
	w.WriteHeader(http.StatusNoContent)
}
