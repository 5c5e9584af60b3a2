package api

import (
	"net/http"
)

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.deps.LLMStats == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}

	model := s.cfg.ChatModel
	if s.cfg.LLMProvider == "anthropic" {
		model = s.cfg.AnthropicModel
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"provider": s.cfg.LLMProvider,
		"model":    model,
		"stats":    s.deps.LLMStats.Snapshot(),
	})
}
