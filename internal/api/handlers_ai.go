package api

import (
	"net/http"
	"strings"

	"github.com/jmercer/draftsmith/internal/edit"
	"github.com/jmercer/draftsmith/internal/provider"
)

// handleEdit generates an edit suggestion for a text span. On provider
// failure the response still wraps the original text so the client can
// render a no-op preview.
func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text   string `json:"text"`
		Action string `json:"action"`
	}
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if !s.completion.Configured() {
		jsonError(w, "completion provider credential not configured", http.StatusInternalServerError)
		return
	}

	action := edit.Action(req.Action)
	prompt := edit.BuildPrompt(action, req.Text)

	content, err := s.completion.Complete(r.Context(), []provider.Message{
		{Role: provider.RoleUser, Content: prompt},
	}, provider.CompletionOptions{
		MaxTokens:   s.cfg.EditMaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		s.log.Error("edit suggestion failed", "action", req.Action, "error", err)
		jsonResponse(w, http.StatusInternalServerError, map[string]any{
			"error":      "Failed to generate AI suggestion. Please check your API key.",
			"suggestion": req.Text,
			"original":   req.Text,
			"action":     req.Action,
		})
		return
	}

	suggestion := strings.TrimSpace(content)
	if suggestion == "" {
		suggestion = req.Text
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"suggestion": suggestion,
		"original":   req.Text,
		"action":     req.Action,
	})
}

// handleChat runs one stateless chat completion over the posted history.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Messages []provider.Message `json:"messages"`
	}
	// Decoding into provider.Message drops any extra fields the client
	// attached (ids, timestamps) before they reach the provider.
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if !s.completion.Configured() {
		jsonError(w, "completion provider credential not configured", http.StatusInternalServerError)
		return
	}

	content, err := s.completion.Complete(r.Context(), req.Messages, provider.CompletionOptions{
		MaxTokens:   s.cfg.EditMaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		s.log.Error("chat completion failed", "error", err)
		jsonError(w, "Failed to process chat request. Please check your API payload.", http.StatusInternalServerError)
		return
	}

	content = strings.TrimSpace(content)
	if content == "" {
		content = "Sorry, I could not process your request."
	}

	jsonResponse(w, http.StatusOK, map[string]string{"content": content})
}

// handleAgentSearch runs the search-augmented answer pipeline.
func (s *Server) handleAgentSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		jsonError(w, "Query is required", http.StatusBadRequest)
		return
	}

	if !s.search.Configured() {
		jsonError(w, "Search API key not configured", http.StatusInternalServerError)
		return
	}
	if !s.completion.Configured() {
		jsonError(w, "completion provider credential not configured", http.StatusInternalServerError)
		return
	}

	bundle := s.engine.Answer(r.Context(), req.Query)
	jsonResponse(w, http.StatusOK, bundle)
}
