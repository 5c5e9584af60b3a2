package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dgallion1/secgest/internal/llm"
	"github.com/dgallion1/secgest/internal/rag"
)

type askRequest struct {
	Question      string   `json:"question"`
	TopK          int      `json:"top_k"`
	ContextWindow int      `json:"context_window"`
	Temperature   *float32 `json:"temperature"`
	TopP          *float32 `json:"top_p"`
	MaxTokens     int      `json:"max_tokens"`
	Model         string   `json:"model"`
	Stream        bool     `json:"stream"`
	HTML          bool     `json:"html"` // also render the answer as HTML
}

func (req askRequest) params(defaults rag.Params) rag.Params {
	p := defaults
	if req.TopK > 0 {
		p.TopK = req.TopK
	}
	if req.ContextWindow > 0 {
		p.ContextWindow = req.ContextWindow
	}
	if req.Temperature != nil {
		p.Temperature = *req.Temperature
	}
	if req.TopP != nil {
		p.TopP = *req.TopP
	}
	if req.MaxTokens > 0 {
		p.MaxTokens = req.MaxTokens
	}
	if req.Model != "" {
		p.Model = req.Model
	}
	return p
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}
	params := req.params(s.deps.Answerer.Defaults())

	if req.Stream {
		s.streamAnswer(w, r, req.Question, params)
		return
	}

	ans, err := s.deps.Answerer.Answer(r.Context(), req.Question, params)
	if err != nil {
		jsonError(w, err.Error(), answerErrorStatus(err))
		return
	}
	resp := map[string]any{"answer": ans.Text, "sources": ans.Sources}
	if req.HTML {
		html, err := rag.RenderHTML(ans.Text)
		if err != nil {
			jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		resp["html"] = html
	}
	writeJSON(w, http.StatusOK, resp)
}

// streamAnswer writes server-sent events: one "sources" event, a "delta"
// event per generated fragment, then "done" or "error".
func (s *Server) streamAnswer(w http.ResponseWriter, r *http.Request, question string, params rag.Params) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		jsonError(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	started := false
	start := func() {
		if started {
			return
		}
		started = true
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
	}
	send := func(event string, data any) error {
		start()
		b, err := json.Marshal(data)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, b); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	err := s.deps.Answerer.AnswerStream(r.Context(), question, params,
		func(src []rag.Source) error { return send("sources", src) },
		func(delta string) error { return send("delta", delta) },
	)
	if err != nil {
		if !started {
			// Nothing sent yet, so a plain JSON error is still possible.
			jsonError(w, err.Error(), answerErrorStatus(err))
			return
		}
		s.log.Warn("answer stream failed", "error", err)
		_ = send("error", map[string]string{"error": err.Error()})
		return
	}
	_ = send("done", map[string]string{})
}

func answerErrorStatus(err error) int {
	switch {
	case errors.Is(err, rag.ErrEmptyQuestion):
		return http.StatusBadRequest
	case errors.Is(err, rag.ErrNoContext):
		return http.StatusNotFound
	case llm.IsRetryable(err):
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}
