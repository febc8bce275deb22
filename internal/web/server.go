// Package web exposes the study service as a JSON HTTP API. Callers are
// identified by the X-User-ID header set by the authenticating proxy in
// front of the service. Source management and card moderation are limited
// to the configured admins.
package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/conorfennell/part66/internal/storage"
	"github.com/conorfennell/part66/internal/study"
	"github.com/conorfennell/part66/internal/sync"
)

// UserHeader carries the caller's identity.
const UserHeader = "X-User-ID"

// historyLimit is the number of sessions returned by GET /me/history.
const historyLimit = 10

// Server holds the dependencies for the HTTP server.
type Server struct {
	db       *storage.DB
	manager  *study.Manager
	syncer   *sync.Syncer
	logger   *slog.Logger
	validate *validator.Validate
	admins   map[string]bool
	router   *http.ServeMux
	now      func() time.Time
	newID    func() string
}

// NewServer creates and configures a new server. admins lists the user ids
// allowed on the admin routes.
func NewServer(db *storage.DB, manager *study.Manager, syncer *sync.Syncer, logger *slog.Logger, admins []string) *Server {
	s := &Server{
		db:       db,
		manager:  manager,
		syncer:   syncer,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		admins:   make(map[string]bool, len(admins)),
		router:   http.NewServeMux(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, id := range admins {
		s.admins[id] = true
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.logRequests(s.router).ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	s.router.HandleFunc("GET /healthz", s.handleHealth())

	// Module catalogue
	s.router.HandleFunc("GET /modules", s.handleListModules())
	s.router.HandleFunc("GET /modules/{id}", s.handleGetModule())
	s.router.HandleFunc("GET /modules/{id}/cards", s.handleListModuleCards())
	s.router.HandleFunc("GET /modules/{id}/progress", s.withUser(s.handleModuleProgress))
	s.router.HandleFunc("GET /me/modules", s.withUser(s.handleListUserModules))
	s.router.HandleFunc("POST /me/modules/{id}/toggle", s.withUser(s.handleToggleUserModule))

	// Cards
	s.router.HandleFunc("POST /cards", s.withUser(s.handleCreateCard))
	s.router.HandleFunc("GET /cards/{id}", s.handleGetCard())
	s.router.HandleFunc("GET /admin/cards/pending", s.withAdmin(s.handleListPendingCards))
	s.router.HandleFunc("POST /admin/cards/{id}/approve", s.withAdmin(s.handleApproveCard))
	s.router.HandleFunc("PUT /cards/{id}", s.withUser(s.handleUpdateCard))
	s.router.HandleFunc("DELETE /cards/{id}", s.withUser(s.handleDeleteCard))

	// Study sessions
	s.router.HandleFunc("POST /sessions", s.withUser(s.handleStartSession))
	s.router.HandleFunc("GET /sessions/{id}", s.withUser(s.handleGetSession))
	s.router.HandleFunc("POST /sessions/{id}/rate", s.withUser(s.handleRate))
	s.router.HandleFunc("POST /sessions/{id}/skip", s.withUser(s.handleSkip))
	s.router.HandleFunc("POST /sessions/{id}/pause", s.withUser(s.handlePause))
	s.router.HandleFunc("POST /sessions/{id}/resume", s.withUser(s.handleResume))
	s.router.HandleFunc("POST /sessions/{id}/complete", s.withUser(s.handleComplete))

	// Statistics
	s.router.HandleFunc("GET /me/stats", s.withUser(s.handleStats))
	s.router.HandleFunc("GET /me/history", s.withUser(s.handleHistory))

	// Source management
	s.router.HandleFunc("GET /sources", s.withAdmin(s.handleListSources))
	s.router.HandleFunc("POST /sources", s.withAdmin(s.handleAddSource))
	s.router.HandleFunc("DELETE /sources/{id}", s.withAdmin(s.handleDeleteSource))
	s.router.HandleFunc("POST /sync", s.withAdmin(s.handlePostSync))
}

// handleHealth reports whether the database is reachable.
func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.db.Ping(r.Context()); err != nil {
			s.logger.Error("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "database unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
