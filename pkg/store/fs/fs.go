// Package fs implements the session and chat stores on a local filesystem.
//
// Layout, one directory per session:
//
//	<root>/<user>/<session_id>/metadata.json
//	<root>/<user>/<session_id>/files/<name>
//	<root>/<user>/<session_id>/chat.json
//
// Directory existence is session existence; a directory without a parseable
// metadata.json is invisible to List.
package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nstogner/filechat/pkg/domain"
	"github.com/nstogner/filechat/pkg/store"
)

const (
	metadataFile = "metadata.json"
	chatFile     = "chat.json"
	filesDir     = "files"

	// Second-precision timestamp suffix for session IDs.
	idTimeLayout = "20060102150405"
)

// Store implements store.SessionStore and store.ChatStore on a directory
// tree rooted at root.
type Store struct {
	root string

	// now is swappable so tests can force same-second rename collisions.
	now func() time.Time

	// Per-session locks serialize the read-modify-write sequences in
	// Rename and Append. The filesystem offers no protection on its own.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

var _ store.SessionStore = (*Store)(nil)
var _ store.ChatStore = (*Store)(nil)

// New creates a Store rooted at the given directory, creating it if needed.
func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create session root: %w", err)
	}
	return &Store{
		root:  root,
		now:   time.Now,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

func (s *Store) sessionLock(userID, sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := userID + "/" + sessionID
	lk, ok := s.locks[key]
	if !ok {
		lk = &sync.Mutex{}
		s.locks[key] = lk
	}
	return lk
}

func (s *Store) userDir(userID string) string {
	return filepath.Join(s.root, userID)
}

func (s *Store) sessionDir(userID, sessionID string) string {
	return filepath.Join(s.root, userID, sessionID)
}

// Create makes the session directory and its files/ subdirectory, persists
// each upload verbatim, and writes the metadata record. The generated ID is
// second-precision, so two creates within one second land in the same
// directory; uploads are last-write-wins in that case.
func (s *Store) Create(ctx context.Context, userID string, files []store.Upload) (*domain.Session, error) {
	now := s.now()
	sessionID := "sess_" + now.Format(idTimeLayout)
	dir := s.sessionDir(userID, sessionID)

	if err := os.MkdirAll(filepath.Join(dir, filesDir), 0755); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}

	filenames := make([]string, 0, len(files))
	for _, up := range files {
		name := filepath.Base(up.Name)
		if err := writeBlob(filepath.Join(dir, filesDir, name), up.Reader); err != nil {
			return nil, fmt.Errorf("save upload %q: %w", name, err)
		}
		filenames = append(filenames, name)
	}

	sess := &domain.Session{
		SessionID:   sessionID,
		UserID:      userID,
		Filenames:   filenames,
		CreatedAt:   now,
		SessionName: sessionID,
	}
	if err := writeJSON(filepath.Join(dir, metadataFile), sess); err != nil {
		return nil, fmt.Errorf("write metadata: %w", err)
	}
	return sess, nil
}

// List enumerates session directories and reads each metadata record.
// Directories whose metadata is missing or unparseable are skipped; the skip
// count is logged so corruption does not pass entirely unnoticed.
func (s *Store) List(ctx context.Context, userID string) ([]domain.Session, error) {
	entries, err := os.ReadDir(s.userDir(userID))
	if os.IsNotExist(err) {
		return []domain.Session{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sessions directory: %w", err)
	}

	sessions := make([]domain.Session, 0, len(entries))
	skipped := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		sess, err := s.readMetadata(userID, e.Name())
		if err != nil {
			skipped++
			continue
		}
		sessions = append(sessions, *sess)
	}
	if skipped > 0 {
		slog.Warn("Skipped sessions with missing or invalid metadata", "user", userID, "count", skipped)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions, nil
}

// Rename moves the session directory to a new slug-derived ID and rewrites
// the metadata record. If the metadata write fails after the move, the
// directory is moved back so no half-renamed session is left behind.
func (s *Store) Rename(ctx context.Context, userID, sessionID, newName string) (*domain.Session, error) {
	lk := s.sessionLock(userID, sessionID)
	lk.Lock()
	defer lk.Unlock()

	sess, err := s.readMetadata(userID, sessionID)
	if err != nil {
		return nil, err
	}

	newID := Slugify(newName) + "_" + s.now().Format(idTimeLayout)
	oldDir := s.sessionDir(userID, sessionID)
	newDir := s.sessionDir(userID, newID)

	if _, err := os.Stat(newDir); err == nil {
		return nil, fmt.Errorf("session %q: %w", newID, store.ErrConflict)
	}

	if err := os.Rename(oldDir, newDir); err != nil {
		return nil, fmt.Errorf("move session directory: %w", err)
	}

	sess.SessionID = newID
	sess.SessionName = newName
	if err := writeJSON(filepath.Join(newDir, metadataFile), sess); err != nil {
		// Compensate: put the directory back under its old ID rather than
		// leave a directory whose metadata disagrees with its name.
		if mvErr := os.Rename(newDir, oldDir); mvErr != nil {
			slog.Error("Failed to roll back session rename", "session", sessionID, "error", mvErr)
		}
		return nil, fmt.Errorf("write renamed metadata: %w", err)
	}
	return sess, nil
}

// Delete removes the session directory and everything under it.
func (s *Store) Delete(ctx context.Context, userID, sessionID string) error {
	dir := s.sessionDir(userID, sessionID)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fmt.Errorf("session %q: %w", sessionID, store.ErrNotFound)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove session directory: %w", err)
	}
	return nil
}

// ListFiles returns every regular file directly under files/, without
// recursing. An absent files/ directory is ErrNotFound, not an empty list.
func (s *Store) ListFiles(ctx context.Context, userID, sessionID string) ([]domain.FileInfo, error) {
	dir := filepath.Join(s.sessionDir(userID, sessionID), filesDir)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("session %q files: %w", sessionID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read files directory: %w", err)
	}

	infos := make([]domain.FileInfo, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		infos = append(infos, domain.FileInfo{Filename: e.Name(), Size: fi.Size()})
	}
	return infos, nil
}

// OpenFile opens one uploaded blob for reading.
func (s *Store) OpenFile(ctx context.Context, userID, sessionID, filename string) (io.ReadSeekCloser, os.FileInfo, error) {
	// Uploads are stored flat under files/, so any path component in the
	// requested name cannot resolve to an upload.
	if filename != filepath.Base(filename) || filename == "." || filename == string(filepath.Separator) {
		return nil, nil, fmt.Errorf("file %q: %w", filename, store.ErrNotFound)
	}
	path := filepath.Join(s.sessionDir(userID, sessionID), filesDir, filename)

	fi, err := os.Stat(path)
	if err != nil || !fi.Mode().IsRegular() {
		return nil, nil, fmt.Errorf("file %q: %w", filename, store.ErrNotFound)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open file %q: %w", filename, err)
	}
	return f, fi, nil
}

// Append loads the transcript, adds a new entry, and writes the whole file
// back. An absent or corrupt transcript starts over as empty.
func (s *Store) Append(ctx context.Context, userID, sessionID, question string, answer domain.Answer) (*domain.ChatEntry, error) {
	lk := s.sessionLock(userID, sessionID)
	lk.Lock()
	defer lk.Unlock()

	dir := s.sessionDir(userID, sessionID)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, fmt.Errorf("session %q: %w", sessionID, store.ErrNotFound)
	}

	entries := s.readTranscript(userID, sessionID)
	entry := domain.ChatEntry{
		ID:        uuid.New().String(),
		Question:  question,
		Answer:    answer,
		Timestamp: s.now(),
	}
	entries = append(entries, entry)

	if err := writeJSON(filepath.Join(dir, chatFile), entries); err != nil {
		return nil, fmt.Errorf("write transcript: %w", err)
	}
	return &entry, nil
}

// Get returns the transcript in append order, empty if absent or corrupt.
func (s *Store) Get(ctx context.Context, userID, sessionID string) ([]domain.ChatEntry, error) {
	return s.readTranscript(userID, sessionID), nil
}

func (s *Store) readMetadata(userID, sessionID string) (*domain.Session, error) {
	path := filepath.Join(s.sessionDir(userID, sessionID), metadataFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("session %q metadata: %w", sessionID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("session %q: %w", sessionID, store.ErrBadMetadata)
	}
	return &sess, nil
}

func (s *Store) readTranscript(userID, sessionID string) []domain.ChatEntry {
	path := filepath.Join(s.sessionDir(userID, sessionID), chatFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return []domain.ChatEntry{}
	}
	var entries []domain.ChatEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		slog.Debug("Ignoring corrupt transcript", "session", sessionID, "error", err)
		return []domain.ChatEntry{}
	}
	return entries
}

// writeJSON serializes v and atomically replaces the file at path via a
// temp file and rename, so readers never observe a partial document.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func writeBlob(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
