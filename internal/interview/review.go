package interview

import (
	"context"
	"slices"
	"strings"

	"github.com/spigell/interview-coach/internal/ai"
)

// reviewDefaults is used for a failed review and for any sub-score the model left out.
var reviewDefaults = struct {
	technical, relevance, confidence int
	feedback, expectedAnswer         string
}{
	technical:      70,
	relevance:      75,
	confidence:     65,
	feedback:       "The answer was relevant but could benefit from more specific examples and technical depth.",
	expectedAnswer: "A strong answer would demonstrate specific experience with the technologies mentioned and provide concrete examples.",
}

// Reviewer evaluates an answer with a single multi-axis review request and combines the
// technical, relevance and confidence scores into a proficiency score.
type Reviewer struct {
	pipeline
}

func NewReviewer(gen ai.TextGenerator, opts ...Option) *Reviewer {
	return &Reviewer{pipeline: newPipeline(gen, opts)}
}

func (r *Reviewer) Evaluate(ctx context.Context, question, answer, historyContext string) FeedbackRecord {
	if WordCount(answer) < MinAnswerWords {
		return r.finish(rejectAnswer(question, answer))
	}

	var (
		followUp    string
		followUpErr error
		output      reviewOutput
		outputErr   error
	)

	r.fanOut(ctx,
		func(ctx context.Context) {
			followUp, followUpErr = r.requestFollowUp(ctx, question, answer, historyContext)
		},
		func(ctx context.Context) {
			output, outputErr = r.requestReview(ctx, question, answer, historyContext)
		},
	)

	if outputErr != nil {
		r.fallback(stepReview, outputErr)
	}

	record := mergeReview(question, output, outputErr)
	record.FollowUp = r.resolveFollowUp(followUp, followUpErr)

	return r.finish(record)
}

func (r *Reviewer) requestReview(ctx context.Context, question, answer, historyContext string) (reviewOutput, error) {
	prompt := reviewPrompt(BuildFollowUpContext(question, answer, historyContext))
	raw, err := r.generate(ctx, stepReview, func(ctx context.Context) (string, error) {
		return r.gen.Generate(ctx, prompt)
	})
	if err != nil {
		return reviewOutput{}, err
	}

	var out reviewOutput
	if err := decodeOutput(raw, &out, reviewKeys); err != nil {
		return reviewOutput{}, err
	}
	return out, nil
}

// CompositeScore weights technical accuracy, relevance and confidence 50/30/20.
func CompositeScore(technical, relevance, confidence int) int {
	return (technical*50 + relevance*30 + confidence*20) / 100
}

// mergeReview builds the record from the review step. Any failure replaces the whole review
// with the fixed bundle.
func mergeReview(question string, out reviewOutput, err error) FeedbackRecord {
	if err != nil {
		out = reviewOutput{}
	}

	technical := scoreOr(out.TechnicalScore, reviewDefaults.technical)
	relevance := scoreOr(out.RelevanceScore, reviewDefaults.relevance)
	confidence := scoreOr(out.ConfidenceScore, reviewDefaults.confidence)

	record := FeedbackRecord{
		Feedback:    reviewDefaults.feedback,
		Proficiency: CompositeScore(technical, relevance, confidence),
		Confidence:  confidence,
		Source:      SourceModel,
	}
	if err != nil {
		record.Source = SourceFallback
	}

	if out.Feedback != nil && strings.TrimSpace(*out.Feedback) != "" {
		record.Feedback = strings.TrimSpace(*out.Feedback)
	}

	if isEmptyExpectedAnswer(out.ExpectedAnswer) {
		out.ExpectedAnswer = &ExpectedAnswer{Content: reviewDefaults.expectedAnswer}
	}
	record.ExpectedAnswer = mergeExpectedAnswer(question, out.ExpectedAnswer)

	if len(out.ImprovementSuggestions) > 0 {
		record.ImprovementSuggestions = normalizeSuggestions(out.ImprovementSuggestions)
	} else {
		record.ImprovementSuggestions = slices.Clone(defaultSuggestions)
	}

	return record
}

func scoreOr(v *float64, fallback int) int {
	if v == nil {
		return fallback
	}
	return clampScore(*v)
}
