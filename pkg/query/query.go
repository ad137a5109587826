// Package query produces chat answers for a session. The engine is a stub:
// it never reads the uploaded files, and every answer has the same shape of
// a greeting, a sample plot, and a closing line.
package query

import (
	"context"
	"fmt"

	"github.com/nstogner/filechat/pkg/domain"
	"github.com/nstogner/filechat/pkg/store"
)

// Service answers questions against a session and records each exchange in
// the session's transcript.
type Service struct {
	chat store.ChatStore
}

// New creates a Service persisting through the given chat store.
func New(chat store.ChatStore) *Service {
	return &Service{chat: chat}
}

// Answer builds the stubbed event sequence for a question and appends the
// exchange to the session's transcript before returning it.
func (s *Service) Answer(ctx context.Context, userID, sessionID, question string) (domain.Answer, error) {
	events, err := s.Events(question)
	if err != nil {
		return domain.Answer{}, err
	}
	answer := domain.FromEvents(events)
	if _, err := s.chat.Append(ctx, userID, sessionID, question, answer); err != nil {
		return domain.Answer{}, fmt.Errorf("record exchange: %w", err)
	}
	return answer, nil
}

// Events builds the answer events without persisting anything: an opening
// text event acknowledging the question, one plot event, and a closing text
// event.
func (s *Service) Events(question string) ([]domain.Event, error) {
	plot, err := sinePlotPNG()
	if err != nil {
		return nil, fmt.Errorf("render plot: %w", err)
	}
	return []domain.Event{
		{Type: domain.EventTypeText, Content: fmt.Sprintf("Received your question: %s", question)},
		{Type: domain.EventTypePlot, Content: plot},
		{Type: domain.EventTypeText, Content: "That is a sample of the kind of chart I can produce from your files."},
	}, nil
}
