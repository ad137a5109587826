// Package server exposes the session, file, and chat operations as a JSON
// REST API and serves the embedded web UI.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nstogner/filechat/pkg/query"
	"github.com/nstogner/filechat/pkg/store"
)

// Server serves the web UI and REST API for the file chat system.
type Server struct {
	sessions store.SessionStore
	chat     store.ChatStore
	query    *query.Service
	user     string
	distFS   embed.FS
	srv      *http.Server
}

// New creates a new Server. user is the fixed identity every request acts
// as; there is no real authentication.
func New(
	sessions store.SessionStore,
	chat store.ChatStore,
	q *query.Service,
	user string,
	distFS embed.FS,
) *Server {
	return &Server{
		sessions: sessions,
		chat:     chat,
		query:    q,
		user:     user,
		distFS:   distFS,
	}
}

// Start starts the HTTP server.
func (s *Server) Start(addr string) error {
	s.srv = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	slog.Info("Starting web server", "addr", addr)
	return s.srv.ListenAndServe()
}

// Handler builds the full route table. Split out from Start so tests can
// drive it through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Auth
	mux.HandleFunc("POST /login", s.handleLogin)

	// Sessions
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("GET /sessions", s.handleListSessions)
	mux.HandleFunc("POST /sessions/{id}/rename", s.handleRenameSession)
	mux.HandleFunc("DELETE /sessions/{id}", s.handleDeleteSession)

	// Files
	mux.HandleFunc("GET /sessions/{id}/files", s.handleListFiles)
	mux.HandleFunc("GET /sessions/{id}/files/{name}", s.handleGetFile)

	// Chat
	mux.HandleFunc("POST /query", s.handleQuery)
	mux.HandleFunc("GET /sessions/{id}/chat", s.handleGetChat)
	mux.HandleFunc("GET /sessions/{id}/chat/ws", s.handleChatWebSocket)

	// Static assets (SPA fallback)
	mux.HandleFunc("/", s.handleStatic)

	return s.corsMiddleware(mux)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// apiPrefixes keeps the SPA fallback from swallowing unmatched API calls.
var apiPrefixes = []string{"/login", "/upload", "/sessions", "/query"}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	for _, p := range apiPrefixes {
		if strings.HasPrefix(r.URL.Path, p) {
			http.NotFound(w, r)
			return
		}
	}

	path := r.URL.Path
	if path == "/" {
		path = "index.html"
	} else if path[0] == '/' {
		path = path[1:]
	}

	distFS, err := fs.Sub(s.distFS, "dist")
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	// Try serving the exact file.
	f, err := distFS.Open(path)
	if err == nil {
		defer f.Close()
		stat, _ := f.Stat()
		if !stat.IsDir() {
			http.FileServer(http.FS(distFS)).ServeHTTP(w, r)
			return
		}
	}

	// Fallback to index.html for SPA routing.
	index, err := distFS.Open("index.html")
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	defer index.Close()
	http.ServeContent(w, r, "index.html", time.Time{}, index.(io.ReadSeeker))
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) errorResponse(w http.ResponseWriter, status int, err error) {
	slog.Error("API Error", "status", status, "error", err)
	s.jsonResponse(w, status, map[string]string{"error": err.Error()})
}

// storeStatus classifies a store error into an HTTP status.
func storeStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrBadMetadata):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
