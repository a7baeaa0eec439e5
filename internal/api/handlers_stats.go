package api

import "net/http"

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"model": s.completion.Model(),
		"stats": s.stats.Snapshot(),
	})
}
