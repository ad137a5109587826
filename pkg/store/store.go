package store

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/nstogner/filechat/pkg/domain"
)

// Sentinel errors returned by store implementations. Handlers classify them
// into HTTP statuses with errors.Is; anything else is an internal error.
var (
	// ErrNotFound indicates a missing session, file, or metadata record.
	ErrNotFound = errors.New("not found")

	// ErrBadMetadata indicates a metadata record that exists but cannot be
	// parsed. Call sites decide whether to treat it as absent (listing) or
	// surface it as a client error (rename).
	ErrBadMetadata = errors.New("invalid session metadata")

	// ErrConflict indicates a rename target that already exists.
	ErrConflict = errors.New("session already exists")
)

// Upload is one file to persist at session creation, streamed from the
// multipart request body.
type Upload struct {
	Name   string
	Reader io.Reader
}

// SessionStore manages session directories and the files within them. Every
// method takes the owning user ID explicitly; implementations hold no
// per-user state between calls.
type SessionStore interface {
	// Create makes a new session directory, persists each upload verbatim
	// under files/ (last write wins on duplicate names), and writes the
	// metadata record. Filenames keep upload order.
	Create(ctx context.Context, userID string, files []Upload) (*domain.Session, error)

	// List returns one summary per valid session. Directories with missing
	// or unparseable metadata are skipped. Results are ordered by creation
	// time descending.
	List(ctx context.Context, userID string) ([]domain.Session, error)

	// Rename derives a slugged ID from newName, moves the session directory
	// to it, and rewrites the metadata record with the new ID and name.
	// Returns ErrNotFound if the metadata record does not exist,
	// ErrBadMetadata if it cannot be parsed, and ErrConflict if a directory
	// already occupies the new ID.
	Rename(ctx context.Context, userID, sessionID, newName string) (*domain.Session, error)

	// Delete removes the session directory recursively.
	// Returns ErrNotFound if the directory does not exist.
	Delete(ctx context.Context, userID, sessionID string) error

	// ListFiles returns name and size for every regular file directly under
	// the session's files/ directory. Returns ErrNotFound if the directory
	// is absent, which is distinct from an empty list.
	ListFiles(ctx context.Context, userID, sessionID string) ([]domain.FileInfo, error)

	// OpenFile opens one uploaded file for reading. Returns ErrNotFound if
	// the path does not resolve to a regular file. The caller closes the
	// returned file.
	OpenFile(ctx context.Context, userID, sessionID, filename string) (io.ReadSeekCloser, os.FileInfo, error)
}

// ChatStore manages the append-only transcript of a session.
type ChatStore interface {
	// Append loads the transcript, adds a new entry stamped with the current
	// time, and writes the whole transcript back. An absent or corrupt
	// transcript is treated as empty.
	Append(ctx context.Context, userID, sessionID, question string, answer domain.Answer) (*domain.ChatEntry, error)

	// Get returns the transcript in append order. An absent or corrupt
	// transcript yields an empty slice, never an error.
	Get(ctx context.Context, userID, sessionID string) ([]domain.ChatEntry, error)
}
