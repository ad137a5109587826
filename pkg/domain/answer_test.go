package domain

import (
	"encoding/json"
	"testing"
)

func TestAnswerLegacyString(t *testing.T) {
	var a Answer
	if err := json.Unmarshal([]byte(`"a mocked answer"`), &a); err != nil {
		t.Fatalf("unmarshal legacy string: %v", err)
	}
	if a.IsEvents() {
		t.Error("legacy string decoded as events")
	}
	if a.Text != "a mocked answer" {
		t.Errorf("Text = %q, want %q", a.Text, "a mocked answer")
	}

	out, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `"a mocked answer"` {
		t.Errorf("marshal = %s, want bare string", out)
	}
}

func TestAnswerEvents(t *testing.T) {
	a := FromEvents([]Event{
		{Type: EventTypeText, Content: "hello"},
		{Type: EventTypePlot, Content: "aGk="},
	})

	out, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back Answer
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.IsEvents() {
		t.Fatal("event answer decoded as legacy string")
	}
	if len(back.Events) != 2 {
		t.Fatalf("events len = %d, want 2", len(back.Events))
	}
	if back.Events[1].Type != EventTypePlot || back.Events[1].Content != "aGk=" {
		t.Errorf("plot event = %+v", back.Events[1])
	}
}

func TestAnswerRejectsOtherShapes(t *testing.T) {
	var a Answer
	if err := json.Unmarshal([]byte(`42`), &a); err == nil {
		t.Error("expected error for numeric answer")
	}
}
