package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/nstogner/filechat/pkg/domain"
	"github.com/nstogner/filechat/pkg/store"
)

// maxUploadMemory bounds how much of a multipart upload is buffered in
// memory before spilling to temp files.
const maxUploadMemory = 32 << 20

// sessionSummary is the wire shape of one session in list responses.
type sessionSummary struct {
	SessionID   string    `json:"session_id"`
	SessionName string    `json:"session_name"`
	CreatedAt   time.Time `json:"created_at"`
	Filenames   []string  `json:"filenames"`
}

// --- Auth ---

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err)
		return
	}
	// Simulated login: every credential maps to the fixed identity.
	s.jsonResponse(w, http.StatusOK, map[string]string{"user_id": s.user})
}

// --- Sessions ---

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		s.errorResponse(w, http.StatusBadRequest, fmt.Errorf("parse multipart form: %w", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	uploads := make([]store.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			s.errorResponse(w, http.StatusInternalServerError, fmt.Errorf("open upload %q: %w", fh.Filename, err))
			return
		}
		defer f.Close()
		uploads = append(uploads, store.Upload{Name: fh.Filename, Reader: f})
	}

	sess, err := s.sessions.Create(r.Context(), s.user, uploads)
	if err != nil {
		s.errorResponse(w, storeStatus(err), err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"session_id": sess.SessionID,
		"filenames":  sess.Filenames,
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.sessions.List(r.Context(), s.user)
	if err != nil {
		s.errorResponse(w, storeStatus(err), err)
		return
	}
	summaries := make([]sessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		summaries = append(summaries, sessionSummary{
			SessionID:   sess.SessionID,
			SessionName: sess.SessionName,
			CreatedAt:   sess.CreatedAt,
			Filenames:   sess.Filenames,
		})
	}
	s.jsonResponse(w, http.StatusOK, summaries)
}

func (s *Server) handleRenameSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req struct {
		NewName string `json:"new_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err)
		return
	}
	if req.NewName == "" {
		s.errorResponse(w, http.StatusBadRequest, errors.New("new_name is required"))
		return
	}

	sess, err := s.sessions.Rename(r.Context(), s.user, id, req.NewName)
	if err != nil {
		s.errorResponse(w, storeStatus(err), err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"message":      "Session renamed successfully",
		"session_id":   sess.SessionID,
		"session_name": sess.SessionName,
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.sessions.Delete(r.Context(), s.user, id); err != nil {
		s.errorResponse(w, storeStatus(err), err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"message":    "Session deleted successfully",
		"session_id": id,
	})
}

// --- Files ---

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	files, err := s.sessions.ListFiles(r.Context(), s.user, id)
	if err != nil {
		s.errorResponse(w, storeStatus(err), err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string][]domain.FileInfo{"files": files})
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	name := r.PathValue("name")
	download, _ := strconv.ParseBool(r.URL.Query().Get("download"))

	f, fi, err := s.sessions.OpenFile(r.Context(), s.user, id, name)
	if err != nil {
		s.errorResponse(w, storeStatus(err), err)
		return
	}
	defer f.Close()

	if download {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	}
	http.ServeContent(w, r, name, fi.ModTime(), f)
}

// --- Chat ---

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Question  string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err)
		return
	}
	if req.SessionID == "" {
		s.errorResponse(w, http.StatusBadRequest, errors.New("session_id is required"))
		return
	}

	answer, err := s.query.Answer(r.Context(), s.user, req.SessionID, req.Question)
	if err != nil {
		s.errorResponse(w, storeStatus(err), err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]domain.Answer{"answer": answer})
}

func (s *Server) handleGetChat(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	entries, err := s.chat.Get(r.Context(), s.user, id)
	if err != nil {
		s.errorResponse(w, storeStatus(err), err)
		return
	}
	s.jsonResponse(w, http.StatusOK, entries)
}
