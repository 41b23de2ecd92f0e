package interview

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spigell/interview-coach/internal/ai"
	"github.com/spigell/interview-coach/internal/resume"
)

// Exchange is one answered question.
type Exchange struct {
	Question   Question            `json:"question" yaml:"question"`
	Transcript ai.TranscriptResult `json:"transcript" yaml:"transcript"`
	Feedback   FeedbackRecord      `json:"feedback" yaml:"feedback"`
	AnsweredAt time.Time           `json:"answered_at" yaml:"answered_at"`
}

// Session is one mock interview: the questions generated from a resume and the answers given
// so far. It is persisted by a store after every change.
type Session struct {
	ID         string         `json:"id" yaml:"id"`
	ResumePath string         `json:"resume_path" yaml:"resume_path"`
	Resume     resume.Profile `json:"resume" yaml:"resume"`
	Questions  []Question     `json:"questions" yaml:"questions"`
	History    []Exchange     `json:"history" yaml:"history"`
	CreatedAt  time.Time      `json:"created_at" yaml:"created_at"`
}

func NewSession(resumePath string, profile resume.Profile, questions []Question) *Session {
	return &Session{
		ID:         uuid.NewString(),
		ResumePath: resumePath,
		Resume:     profile,
		Questions:  questions,
		CreatedAt:  time.Now().UTC(),
	}
}

// Question returns the question with the given 1-based index.
func (s *Session) Question(index int) (Question, error) {
	for _, q := range s.Questions {
		if q.Index == index {
			return q, nil
		}
	}
	return Question{}, fmt.Errorf("session %s has no question %d", s.ID, index)
}

// Record appends an answered question to the history.
func (s *Session) Record(q Question, transcript ai.TranscriptResult, feedback FeedbackRecord) Exchange {
	exchange := Exchange{
		Question:   q,
		Transcript: transcript,
		Feedback:   feedback,
		AnsweredAt: time.Now().UTC(),
	}
	s.History = append(s.History, exchange)
	return exchange
}

// HistoryContext renders the last limit exchanges for follow-up prompts. limit <= 0 renders all.
func (s *Session) HistoryContext(limit int) string {
	history := s.History
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}

	blocks := make([]string, 0, len(history))
	for _, e := range history {
		blocks = append(blocks, fmt.Sprintf("Question: %s\nAnswer: %s", e.Question.Text, e.Transcript.Text))
	}
	return strings.Join(blocks, "\n\n")
}

// Joined renders the question list the way interview records store it.
func (s *Session) Joined() string {
	return strings.Join(Texts(s.Questions), ", ")
}
