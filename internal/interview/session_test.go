package interview

import (
	"testing"

	"github.com/spigell/interview-coach/internal/ai"
	"github.com/spigell/interview-coach/internal/resume"
)

func TestSessionHistory(t *testing.T) {
	t.Parallel()

	questions, _ := Sanitize([]string{"What is Go?", "How do channels work?", "Why use Redis?"}, 5)
	session := NewSession("cv.txt", resume.Profile{Name: "Jane"}, questions)

	if session.ID == "" || session.CreatedAt.IsZero() {
		t.Fatalf("session must have an id and creation time: %+v", session)
	}
	if got := session.Joined(); got != "What is Go?, How do channels work?, Why use Redis?" {
		t.Fatalf("unexpected joined questions %q", got)
	}
	if got := session.HistoryContext(3); got != "" {
		t.Fatalf("expected empty history, got %q", got)
	}

	for i, answer := range []string{"A language.", "Via send and receive.", "Caching."} {
		q, err := session.Question(i + 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		session.Record(q, ai.TranscriptResult{Text: answer}, FeedbackRecord{})
	}

	want := "Question: How do channels work?\nAnswer: Via send and receive.\n\nQuestion: Why use Redis?\nAnswer: Caching."
	if got := session.HistoryContext(2); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if got := session.HistoryContext(0); len(got) <= len(want) {
		t.Fatalf("expected the whole history, got %q", got)
	}

	if _, err := session.Question(4); err == nil {
		t.Fatalf("expected error for unknown question")
	}
}
