package domain

import (
	"encoding/json"
	"fmt"
)

// Answer is the tagged union of the two answer shapes that appear on the
// wire and in stored transcripts: a legacy plain string, or an ordered list
// of typed events. Exactly one of the two branches is populated.
type Answer struct {
	Text   string
	Events []Event
}

// PlainText returns a legacy string-shaped answer.
func PlainText(text string) Answer {
	return Answer{Text: text}
}

// FromEvents returns an event-shaped answer.
func FromEvents(events []Event) Answer {
	return Answer{Events: events}
}

// IsEvents reports whether the answer carries the structured event shape.
func (a Answer) IsEvents() bool {
	return a.Events != nil
}

// MarshalJSON encodes the event shape as {"events":[...]} and the legacy
// shape as a bare JSON string.
func (a Answer) MarshalJSON() ([]byte, error) {
	if a.Events != nil {
		return json.Marshal(struct {
			Events []Event `json:"events"`
		}{Events: a.Events})
	}
	return json.Marshal(a.Text)
}

// UnmarshalJSON accepts either shape. Transcripts written before the event
// format existed hold bare strings.
func (a *Answer) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*a = Answer{Text: text}
		return nil
	}
	var obj struct {
		Events []Event `json:"events"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("answer is neither a string nor an event object: %w", err)
	}
	if obj.Events == nil {
		obj.Events = []Event{}
	}
	*a = Answer{Events: obj.Events}
	return nil
}
