package interview

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrGenerationUnavailable reports a generator call that failed, timed out or returned nothing.
	ErrGenerationUnavailable = errors.New("generation unavailable")
	// ErrMalformedOutput reports generator output that could not be decoded into the expected shape.
	ErrMalformedOutput = errors.New("malformed generation output")
)

// Source tells which path produced a FeedbackRecord.
type Source string

const (
	SourceModel    Source = "model"
	SourceDefaults Source = "defaults"
	SourceFallback Source = "fallback"
	SourceRejected Source = "rejected"
)

const (
	suggestionCount = 3

	defaultFollowUp  = "Could you elaborate on that point further?"
	tooBriefFeedback = "Your answer is too brief. Please elaborate with technical details and examples."
)

var (
	rejectedSuggestions = []string{
		"Provide more technical details",
		"Include specific examples",
		"Explain your thought process",
	}
	defaultSuggestions = []string{
		"Provide more technical details",
		"Include specific examples",
		"Structure your answer more clearly",
	}
)

// Evaluator turns one answer into a complete FeedbackRecord. Implementations never fail: every
// problem below them degrades the record instead.
type Evaluator interface {
	Evaluate(ctx context.Context, question, answer, historyContext string) FeedbackRecord
}

// ExpectedAnswer outlines what a strong answer to a question contains.
type ExpectedAnswer struct {
	Structure []string `json:"structure" yaml:"structure" mapstructure:"structure"`
	Content   string   `json:"content" yaml:"content" mapstructure:"content"`
	Examples  []string `json:"examples" yaml:"examples" mapstructure:"examples"`
}

// FeedbackRecord is the evaluation of a single answer. Proficiency and Confidence are always
// within [0,100] and ImprovementSuggestions always has three entries.
type FeedbackRecord struct {
	Feedback               string         `json:"feedback" yaml:"feedback" validate:"required"`
	Proficiency            int            `json:"proficiency" yaml:"proficiency" validate:"gte=0,lte=100"`
	Confidence             int            `json:"confidence" yaml:"confidence" validate:"gte=0,lte=100"`
	ExpectedAnswer         ExpectedAnswer `json:"expected_answer" yaml:"expected_answer"`
	ImprovementSuggestions []string       `json:"improvement_suggestions" yaml:"improvement_suggestions" validate:"len=3,dive,required"`
	FollowUp               string         `json:"follow_up" yaml:"follow_up"`
	Source                 Source         `json:"source,omitempty" yaml:"source"`
}

// ExpectedAnswerTemplate derives a generic outline from the question text alone.
func ExpectedAnswerTemplate(question string) ExpectedAnswer {
	return ExpectedAnswer{
		Structure: []string{
			"Clear definition of key terms",
			"2-3 main advantages or applications",
			"Specific examples or case studies",
			"Relevance to industry trends",
		},
		Content: fmt.Sprintf("A strong answer to '%s' would:", question),
		Examples: []string{
			"Reference specific technologies",
			"Include measurable outcomes",
			"Demonstrate problem-solving approach",
		},
	}
}

// DynamicFeedback picks a message from the amount of technical content in the answer.
func DynamicFeedback(answer string) string {
	terms := CountTechnicalTerms(answer)
	switch {
	case terms >= 5 && WordCount(answer) > 30:
		return "Strong technical answer! Consider adding more real-world examples."
	case terms >= 3:
		return "Good technical content. Try to better connect concepts to the question."
	default:
		return "Focus on including more technical terms and specific examples."
	}
}

// rejectAnswer builds the record for answers too short to evaluate.
func rejectAnswer(question, answer string) FeedbackRecord {
	score := ShortAnswerScore(WordCount(answer))
	return FeedbackRecord{
		Feedback:               tooBriefFeedback,
		Proficiency:            score,
		Confidence:             score,
		ExpectedAnswer:         ExpectedAnswerTemplate(question),
		ImprovementSuggestions: slices.Clone(rejectedSuggestions),
		Source:                 SourceRejected,
	}
}

// normalizeSuggestions returns exactly three non-blank suggestions, padding from the fixed
// list when the model supplied fewer.
func normalizeSuggestions(suggestions []string) []string {
	result := make([]string, 0, suggestionCount)
	for _, s := range suggestions {
		s = strings.TrimSpace(s)
		if s == "" || slices.Contains(result, s) {
			continue
		}
		result = append(result, s)
		if len(result) == suggestionCount {
			return result
		}
	}
	for _, s := range defaultSuggestions {
		if len(result) == suggestionCount {
			break
		}
		if !slices.Contains(result, s) {
			result = append(result, s)
		}
	}
	return result
}
