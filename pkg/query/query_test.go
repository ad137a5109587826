package query

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/nstogner/filechat/pkg/domain"
	"github.com/nstogner/filechat/pkg/store"
	"github.com/nstogner/filechat/pkg/store/fs"
)

func setup(t *testing.T) (*Service, *fs.Store, string) {
	t.Helper()
	st, err := fs.New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	sess, err := st.Create(context.Background(), "testuser", nil)
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return New(st), st, sess.SessionID
}

func checkEventShape(t *testing.T, events []domain.Event) {
	t.Helper()
	if len(events) < 3 {
		t.Fatalf("events len = %d, want at least 3", len(events))
	}
	if events[0].Type != domain.EventTypeText {
		t.Errorf("first event type = %q, want text", events[0].Type)
	}
	if events[len(events)-1].Type != domain.EventTypeText {
		t.Errorf("last event type = %q, want text", events[len(events)-1].Type)
	}

	plots := 0
	for _, e := range events {
		if e.Type == domain.EventTypePlot {
			plots++
			raw, err := base64.StdEncoding.DecodeString(e.Content)
			if err != nil {
				t.Errorf("plot content is not base64: %v", err)
			}
			if len(raw) == 0 {
				t.Error("plot content is empty")
			}
		}
	}
	if plots != 1 {
		t.Errorf("plot events = %d, want exactly 1", plots)
	}
}

func TestAnswerShape(t *testing.T) {
	svc, _, sessionID := setup(t)

	answer, err := svc.Answer(context.Background(), "testuser", sessionID, "hello")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if !answer.IsEvents() {
		t.Fatal("answer is not event-shaped")
	}
	checkEventShape(t, answer.Events)
}

func TestAnswerPersistsExchange(t *testing.T) {
	svc, st, sessionID := setup(t)
	ctx := context.Background()

	if _, err := svc.Answer(ctx, "testuser", sessionID, "hello"); err != nil {
		t.Fatalf("Answer: %v", err)
	}

	entries, err := st.Get(ctx, "testuser", sessionID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("transcript len = %d, want 1", len(entries))
	}
	if entries[0].Question != "hello" {
		t.Errorf("question = %q, want %q", entries[0].Question, "hello")
	}
	// Structure survives the trip through the transcript file.
	if !entries[0].Answer.IsEvents() {
		t.Fatal("stored answer lost its event shape")
	}
	checkEventShape(t, entries[0].Answer.Events)
}

func TestAnswerMissingSession(t *testing.T) {
	svc, _, _ := setup(t)
	if _, err := svc.Answer(context.Background(), "testuser", "sess_19990101000000", "hello"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestPlotIsDeterministic(t *testing.T) {
	svc, _, _ := setup(t)

	a, err := svc.Events("one")
	if err != nil {
		t.Fatal(err)
	}
	b, err := svc.Events("two")
	if err != nil {
		t.Fatal(err)
	}
	if a[1].Content != b[1].Content {
		t.Error("plot content differs between calls")
	}
}
