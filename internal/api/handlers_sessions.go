package api

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jmercer/draftsmith/internal/agent"
	"github.com/jmercer/draftsmith/internal/chat"
	"github.com/jmercer/draftsmith/internal/document"
	"github.com/jmercer/draftsmith/internal/edit"
	"github.com/jmercer/draftsmith/internal/parser"
	"github.com/jmercer/draftsmith/internal/session"
)

func (s *Server) newSession(content string) *session.Session {
	buf := document.NewBuffer(content)
	wf := edit.NewWorkflow(s.completion, s.cfg.EditMaxTokens, s.cfg.Temperature)
	conv := chat.NewConversation(s.completion, s.cfg.EditMaxTokens, s.cfg.Temperature, s.cfg.HistoryMaxTokens)
	return session.New(buf, wf, conv)
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) *session.Session {
	id := chi.URLParam(r, "sessionID")
	sess := s.sessions.Get(id)
	if sess == nil {
		jsonError(w, "session not found", http.StatusNotFound)
		return nil
	}
	return sess
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	sess := s.newSession(req.Content)
	s.sessions.Put(sess)

	jsonResponse(w, http.StatusCreated, map[string]any{
		"session_id": sess.ID,
		"created_at": sess.CreatedAt,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"session_id": sess.ID,
		"created_at": sess.CreatedAt,
		"document":   sess.Buffer.Text(),
		"selection":  sess.Selection(),
		"edit_state": sess.Edit.State(),
		"pending":    sess.Edit.Pending(),
		"messages":   sess.Chat.History(),
	})
}

// handleImportDocument parses an uploaded file into the session's buffer,
// replacing its previous content.
func (s *Server) handleImportDocument(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	p, err := parser.ForFile(filename)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	doc, err := p.Parse(file, filename)
	if err != nil {
		s.log.Error("document import failed", "filename", filename, "error", err)
		jsonError(w, "failed to parse document", http.StatusUnprocessableEntity)
		return
	}

	sess.Buffer.SetText(doc.Text)
	sess.SetSelection(0, 0)

	jsonResponse(w, http.StatusOK, map[string]any{
		"title":  doc.Title,
		"length": sess.Buffer.Len(),
	})
}

func (s *Server) handleSetSelection(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	var req struct {
		From int `json:"from"`
		To   int `json:"to"`
	}
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}

	span, err := sess.SetSelection(req.From, req.To)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"selection": span})
}

// handleProposeEdit requests a suggestion for the session's current
// selection. The span is captured now; confirm targets it even if the
// selection moves afterwards.
func (s *Server) handleProposeEdit(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	var req struct {
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

	span := sess.Selection()
	suggestion, err := sess.Edit.Propose(r.Context(), span, edit.Action(req.Action))
	if err != nil {
		switch {
		case errors.Is(err, edit.ErrInvalidAction), errors.Is(err, edit.ErrEmptySelection):
			jsonError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, edit.ErrRequestInFlight):
			jsonError(w, err.Error(), http.StatusConflict)
		default:
			s.log.Error("edit proposal failed", "action", req.Action, "error", err)
			jsonResponse(w, http.StatusInternalServerError, map[string]any{
				"error":      "Failed to generate AI suggestion. Please check your API key.",
				"suggestion": suggestion,
			})
		}
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"suggestion": suggestion,
		"edit_state": sess.Edit.State(),
	})
}

func (s *Server) handleConfirmEdit(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	applied, err := sess.Edit.Confirm(sess.Buffer)
	if err != nil {
		if errors.Is(err, edit.ErrNoPendingSuggestion) {
			jsonError(w, err.Error(), http.StatusConflict)
			return
		}
		jsonError(w, "suggestion no longer fits the document: "+err.Error(), http.StatusConflict)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"applied":  applied,
		"document": sess.Buffer.Text(),
	})
}

func (s *Server) handleCancelEdit(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	if err := sess.Edit.Cancel(); err != nil {
		jsonError(w, err.Error(), http.StatusConflict)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// handleSessionChat runs one conversational turn. Directives embedded in the
// assistant reply mutate the session's document.
func (s *Server) handleSessionChat(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if !s.completion.Configured() {
		jsonError(w, "completion provider credential not configured", http.StatusInternalServerError)
		return
	}

	reply, directive, err := sess.Chat.Send(r.Context(), req.Content)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrEmptyMessage):
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		case errors.Is(err, chat.ErrRequestInFlight):
			jsonError(w, err.Error(), http.StatusConflict)
			return
		}
		// Provider failure: the apology turn is already part of the
		// history, so the conversation stays well-formed for the client.
		s.log.Error("chat turn failed", "session", sess.ID, "error", err)
	}

	if applyErr := sess.ApplyDirective(directive, reply.Content); applyErr != nil {
		s.log.Error("directive application failed", "session", sess.ID, "directive", directive.String(), "error", applyErr)
	}

	resp := map[string]any{
		"message":   reply,
		"directive": directive.String(),
	}
	if directive != agent.DirectiveNone {
		resp["document"] = sess.Buffer.Text()
	}
	jsonResponse(w, http.StatusOK, resp)
}

// handleSessionSearch answers a query with web context and inserts the
// answer at the cursor when the insert directive was present.
func (s *Server) handleSessionSearch(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

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

	inserted := false
	if bundle.ShouldInsert {
		if err := sess.Buffer.InsertAt(sess.Cursor(), bundle.Text); err != nil {
			s.log.Error("answer insertion failed", "session", sess.ID, "error", err)
		} else {
			inserted = true
		}
	}

	resp := map[string]any{
		"text":          bundle.Text,
		"searchResults": bundle.SearchResults,
		"shouldInsert":  bundle.ShouldInsert,
		"inserted":      inserted,
	}
	if inserted {
		resp["document"] = sess.Buffer.Text()
	}
	jsonResponse(w, http.StatusOK, resp)
}
