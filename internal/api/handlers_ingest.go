package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/secgest/internal/filing"
	"github.com/dgallion1/secgest/internal/parser"
	"github.com/dgallion1/secgest/internal/pipeline"
)

// readUpload reads the multipart "file" field as a raw filing. The form
// type label comes from the "form_type" field or the filename stem.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (filing.RawDocument, bool) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return filing.RawDocument{}, false
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return filing.RawDocument{}, false
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".htm", ".html", ".txt", "":
	default:
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return filing.RawDocument{}, false
	}

	// Read file data.
	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return filing.RawDocument{}, false
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return filing.RawDocument{}, false
	}

	formType := r.FormValue("form_type")
	if formType == "" {
		formType = strings.TrimSuffix(filename, filepath.Ext(filename))
	}
	return filing.RawDocument{Locator: filename, FormType: formType, Content: data}, true
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	res, err := s.deps.Parser.ParseDetailed(doc)
	if err != nil {
		if errors.Is(err, parser.ErrUndecodable) {
			jsonError(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	sections := make([]map[string]any, len(res.Sections))
	for i, sec := range res.Sections {
		sections[i] = map[string]any{
			"title":       sec.Title,
			"level":       sec.Level,
			"page_number": sec.PageNumber,
			"length":      len(sec.Text),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"source":      doc.Locator,
		"filing_type": res.FilingType,
		"encoding":    res.Encoding,
		"sections":    sections,
		"chunks":      res.Chunks,
		"duration_ms": res.Duration.Milliseconds(),
	})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	job := pipeline.NewJob(doc, r.FormValue("ticker"))
	if err := s.deps.Orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, jobAccepted(job))
}

func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.deps.Orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func jobAccepted(job *pipeline.Job) map[string]any {
	snap := job.Snapshot()
	return map[string]any{
		"job_id":    snap.ID,
		"source":    snap.Source,
		"form_type": snap.FormType,
		"status":    snap.Status,
		"poll_url":  fmt.Sprintf("/api/ingest/%s/status", snap.ID),
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
