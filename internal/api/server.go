package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmercer/draftsmith/internal/agent"
	"github.com/jmercer/draftsmith/internal/config"
	"github.com/jmercer/draftsmith/internal/provider"
	"github.com/jmercer/draftsmith/internal/session"
)

// Server is the HTTP API server for draftsmith.
type Server struct {
	router     chi.Router
	completion *provider.CompletionClient
	search     *provider.SearchClient
	engine     *agent.Engine
	sessions   *session.Store
	stats      *provider.Stats
	log        *slog.Logger
	cfg        config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(completion *provider.CompletionClient, search *provider.SearchClient, engine *agent.Engine, sessions *session.Store, stats *provider.Stats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		completion: completion,
		search:     search,
		engine:     engine,
		sessions:   sessions,
		stats:      stats,
		log:        log,
		cfg:        cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	// Stateless passthrough endpoints.
	r.Post("/api/ai/edit", s.handleEdit)
	r.Post("/api/ai/chat", s.handleChat)
	r.Post("/api/agent/search", s.handleAgentSearch)

	r.Get("/api/stats/llm", s.handleLLMStats)

	// Server-side editing sessions.
	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Post("/import", s.handleImportDocument)
			r.Put("/selection", s.handleSetSelection)
			r.Post("/edit", s.handleProposeEdit)
			r.Post("/edit/confirm", s.handleConfirmEdit)
			r.Post("/edit/cancel", s.handleCancelEdit)
			r.Post("/chat", s.handleSessionChat)
			r.Post("/search", s.handleSessionSearch)
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func jsonResponse(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	jsonResponse(w, code, map[string]string{"error": msg})
}

// decodeJSON parses a request body, rejecting anything unparseable.
func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
