package interview

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const scenarioQuestion = "What is your experience with Python?"

func TestAssemblerEvaluate(t *testing.T) {
	t.Parallel()

	template := ExpectedAnswerTemplate(scenarioQuestion)

	tests := []struct {
		name     string
		output   string
		outErr   error
		followUp string
		expect   FeedbackRecord
	}{
		{
			name: "model output is clamped",
			output: `{"feedback": "Solid answer.", "proficiency": 9999, "confidence": -5,
				"expected_answer": {"structure": ["Context"], "content": "Talk about APIs.", "examples": ["Flask"]},
				"improvement_suggestions": ["Mention testing", "Quantify impact", "Describe trade-offs", "Extra"]}`,
			followUp: `"How did you version those APIs??"`,
			expect: FeedbackRecord{
				Feedback:    "Solid answer.",
				Proficiency: 100,
				Confidence:  0,
				ExpectedAnswer: ExpectedAnswer{
					Structure: []string{"Context"},
					Content:   "Talk about APIs.",
					Examples:  []string{"Flask"},
				},
				ImprovementSuggestions: []string{"Mention testing", "Quantify impact", "Describe trade-offs"},
				FollowUp:               "How did you version those APIs?",
				Source:                 SourceModel,
			},
		},
		{
			name:     "fenced output with chatter",
			output:   "Here you go:\n```json\n{\"proficiency\": 64.9, \"confidence\": 77}\n```",
			followUp: "Tell me more about Kubernetes.",
			expect: FeedbackRecord{
				Feedback:               "Good technical content. Try to better connect concepts to the question.",
				Proficiency:            64,
				Confidence:             77,
				ExpectedAnswer:         template,
				ImprovementSuggestions: defaultSuggestions,
				FollowUp:               "Tell me more about Kubernetes?",
				Source:                 SourceModel,
			},
		},
		{
			name:     "plain string expected answer",
			output:   `{"feedback": "Nice.", "expected_answer": "Mention concrete projects.", "improvement_suggestions": ["", "Add metrics"]}`,
			followUp: "ok",
			expect: FeedbackRecord{
				Feedback:    "Nice.",
				Proficiency: 82,
				Confidence:  90,
				ExpectedAnswer: ExpectedAnswer{
					Structure: template.Structure,
					Content:   "Mention concrete projects.",
					Examples:  template.Examples,
				},
				ImprovementSuggestions: []string{"Add metrics", "Provide more technical details", "Include specific examples"},
				FollowUp:               defaultFollowUp,
				Source:                 SourceModel,
			},
		},
		{
			name:     "follow-up without words",
			output:   `{"feedback": "Nice.", "proficiency": 70, "confidence": 60}`,
			followUp: "?",
			expect: FeedbackRecord{
				Feedback:               "Nice.",
				Proficiency:            70,
				Confidence:             60,
				ExpectedAnswer:         template,
				ImprovementSuggestions: defaultSuggestions,
				FollowUp:               defaultFollowUp,
				Source:                 SourceModel,
			},
		},
		{
			name:     "not json",
			output:   "I think this answer is great",
			followUp: "What about testing?",
			expect: FeedbackRecord{
				Feedback:               "Your answer was received. Here's some feedback: Try to elaborate more with specific examples.",
				Proficiency:            82,
				Confidence:             90,
				ExpectedAnswer:         template,
				ImprovementSuggestions: rejectedSuggestions,
				FollowUp:               "What about testing?",
				Source:                 SourceFallback,
			},
		},
		{
			name:     "none of the expected keys",
			output:   `{"score": 5}`,
			followUp: "What about testing?",
			expect: FeedbackRecord{
				Feedback:               "Your answer was received. Here's some feedback: Try to elaborate more with specific examples.",
				Proficiency:            82,
				Confidence:             90,
				ExpectedAnswer:         template,
				ImprovementSuggestions: rejectedSuggestions,
				FollowUp:               "What about testing?",
				Source:                 SourceFallback,
			},
		},
		{
			name:     "wrong field type",
			output:   `{"feedback": "Fine.", "proficiency": "high"}`,
			followUp: "What about testing?",
			expect: FeedbackRecord{
				Feedback:               "Your answer was received. Here's some feedback: Try to elaborate more with specific examples.",
				Proficiency:            82,
				Confidence:             90,
				ExpectedAnswer:         template,
				ImprovementSuggestions: rejectedSuggestions,
				FollowUp:               "What about testing?",
				Source:                 SourceFallback,
			},
		},
		{
			name:   "generator unavailable",
			outErr: errors.New("quota exceeded"),
			expect: FeedbackRecord{
				Feedback:               "Good technical content. Try to better connect concepts to the question.",
				Proficiency:            82,
				Confidence:             90,
				ExpectedAnswer:         template,
				ImprovementSuggestions: defaultSuggestions,
				FollowUp:               defaultFollowUp,
				Source:                 SourceDefaults,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gen := &stubGenerator{
				generate: respond(tt.output, tt.outErr),
				followUp: respond(tt.followUp, tt.outErr),
			}

			got := NewAssembler(gen).Evaluate(context.Background(), scenarioQuestion, scenarioAnswer, "")

			assertRecord(t, tt.expect, got)
			if gen.generateCalls.Load() != 1 || gen.followUpCalls.Load() != 1 {
				t.Fatalf("expected one call of each kind, got generate=%d follow-up=%d",
					gen.generateCalls.Load(), gen.followUpCalls.Load())
			}
		})
	}
}

func TestAssemblerRejectsShortAnswers(t *testing.T) {
	t.Parallel()

	for _, answer := range []string{"", "   ", "Python is good"} {
		gen := &stubGenerator{}
		got := NewAssembler(gen).Evaluate(context.Background(), scenarioQuestion, answer, "")

		expected := ShortAnswerScore(WordCount(answer))
		if got.Proficiency != expected || got.Confidence != expected {
			t.Fatalf("answer %q: expected scores %d, got %d/%d", answer, expected, got.Proficiency, got.Confidence)
		}
		if got.Source != SourceRejected || got.FollowUp != "" || got.Feedback != tooBriefFeedback {
			t.Fatalf("answer %q: unexpected record %+v", answer, got)
		}
		if !slices.Equal(got.ImprovementSuggestions, rejectedSuggestions) {
			t.Fatalf("answer %q: unexpected suggestions %v", answer, got.ImprovementSuggestions)
		}
		if gen.generateCalls.Load()+gen.followUpCalls.Load() != 0 {
			t.Fatalf("answer %q: generator must not be called", answer)
		}
	}
}

func TestAssemblerTimeout(t *testing.T) {
	t.Parallel()

	block := func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}
	gen := &stubGenerator{generate: block, followUp: block}

	core, logs := observer.New(zapcore.WarnLevel)
	assembler := NewAssembler(gen,
		WithTimeout(20*time.Millisecond),
		WithParallel(true),
		WithLogger(zap.New(core)),
	)

	got := assembler.Evaluate(context.Background(), scenarioQuestion, scenarioAnswer, "")

	if got.Source != SourceDefaults || got.FollowUp != defaultFollowUp {
		t.Fatalf("unexpected record %+v", got)
	}

	warnings := logs.FilterMessage("generation step degraded").All()
	if len(warnings) != 2 {
		t.Fatalf("expected 2 degraded steps, got %d", len(warnings))
	}
	for _, w := range warnings {
		if w.ContextMap()["reason"] != "unavailable" {
			t.Fatalf("unexpected reason %v", w.ContextMap()["reason"])
		}
		if !strings.Contains(w.ContextMap()["error"].(string), context.DeadlineExceeded.Error()) {
			t.Fatalf("expected deadline error, got %v", w.ContextMap()["error"])
		}
	}
}

func TestAssemblerParallelCalls(t *testing.T) {
	t.Parallel()

	arrived := make(chan struct{}, 2)
	// each call only succeeds when the other one is in flight at the same time
	meet := func(text string) func(context.Context, string) (string, error) {
		return func(ctx context.Context, _ string) (string, error) {
			arrived <- struct{}{}
			deadline := time.After(2 * time.Second)
			for len(arrived) < 2 {
				select {
				case <-deadline:
					return "", errors.New("calls were not concurrent")
				case <-time.After(time.Millisecond):
				}
			}
			return text, nil
		}
	}

	gen := &stubGenerator{
		generate: meet(`{"proficiency": 70, "confidence": 60}`),
		followUp: meet("What would you change?"),
	}

	got := NewAssembler(gen, WithParallel(true)).Evaluate(context.Background(), scenarioQuestion, scenarioAnswer, "")

	if got.Source != SourceModel || got.Proficiency != 70 || got.FollowUp != "What would you change?" {
		t.Fatalf("unexpected record %+v", got)
	}
}

func TestAssemblerPassesHistoryToFollowUp(t *testing.T) {
	t.Parallel()

	var conversation string
	gen := &stubGenerator{
		generate: respond(`{"feedback": "ok"}`, nil),
		followUp: func(_ context.Context, c string) (string, error) {
			conversation = c
			return "Why?", nil
		},
	}

	NewAssembler(gen).Evaluate(context.Background(), scenarioQuestion, scenarioAnswer, "Question: Q1\nAnswer: A1")

	for _, part := range []string{"Earlier in the interview:", "Answer: A1", "Question: " + scenarioQuestion, "Answer: " + scenarioAnswer} {
		if !strings.Contains(conversation, part) {
			t.Fatalf("conversation %q does not contain %q", conversation, part)
		}
	}
}

func TestAssemblerLongAnswerFallbackMessage(t *testing.T) {
	t.Parallel()

	answer := strings.Repeat("I built services in Go with Docker. ", 5)
	gen := &stubGenerator{generate: respond("nope", nil), followUp: respond("Why?", nil)}

	got := NewAssembler(gen).Evaluate(context.Background(), scenarioQuestion, answer, "")

	want := "Your answer was received. Here's some feedback: Good technical content but could use more structure."
	if got.Feedback != want {
		t.Fatalf("expected %q, got %q", want, got.Feedback)
	}
}

func assertRecord(t *testing.T, expect, got FeedbackRecord) {
	t.Helper()

	if got.Feedback != expect.Feedback {
		t.Fatalf("feedback: expected %q, got %q", expect.Feedback, got.Feedback)
	}
	if got.Proficiency != expect.Proficiency || got.Confidence != expect.Confidence {
		t.Fatalf("scores: expected %d/%d, got %d/%d", expect.Proficiency, expect.Confidence, got.Proficiency, got.Confidence)
	}
	if got.ExpectedAnswer.Content != expect.ExpectedAnswer.Content ||
		!slices.Equal(got.ExpectedAnswer.Structure, expect.ExpectedAnswer.Structure) ||
		!slices.Equal(got.ExpectedAnswer.Examples, expect.ExpectedAnswer.Examples) {
		t.Fatalf("expected answer: expected %+v, got %+v", expect.ExpectedAnswer, got.ExpectedAnswer)
	}
	if !slices.Equal(got.ImprovementSuggestions, expect.ImprovementSuggestions) {
		t.Fatalf("suggestions: expected %q, got %q", expect.ImprovementSuggestions, got.ImprovementSuggestions)
	}
	if got.FollowUp != expect.FollowUp {
		t.Fatalf("follow-up: expected %q, got %q", expect.FollowUp, got.FollowUp)
	}
	if got.Source != expect.Source {
		t.Fatalf("source: expected %q, got %q", expect.Source, got.Source)
	}
}
