package domain

import "time"

// Session is one unit of uploaded files plus its chat transcript. A session
// is backed by a single directory on disk; the directory name is the session
// ID and changes when the session is renamed.
type Session struct {
	SessionID   string    `json:"session_id"`
	UserID      string    `json:"user_id"`
	Filenames   []string  `json:"filenames"`
	CreatedAt   time.Time `json:"created_at"`
	SessionName string    `json:"session_name"`
}

// FileInfo describes one uploaded file inside a session.
type FileInfo struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// Event is one unit of chat output: rendered text or an embedded image.
type Event struct {
	Type    string `json:"type"` // "text" or "plot"
	Content string `json:"content"`
}

const (
	EventTypeText = "text"
	EventTypePlot = "plot" // content is base64-encoded PNG data
)

// ChatEntry is a single question/answer exchange in a session's transcript.
// Entries are append-only; only whole-session deletion removes them.
type ChatEntry struct {
	ID        string    `json:"id,omitempty"`
	Question  string    `json:"question"`
	Answer    Answer    `json:"answer"`
	Timestamp time.Time `json:"timestamp"`
}
