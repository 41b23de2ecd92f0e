package interview

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/spigell/interview-coach/internal/ai"
)

const fallbackFeedbackPrefix = "Your answer was received. Here's some feedback: "

// Assembler evaluates an answer from a structured feedback request and a follow-up request,
// filling anything the generator did not deliver with deterministic estimates.
type Assembler struct {
	pipeline
}

func NewAssembler(gen ai.TextGenerator, opts ...Option) *Assembler {
	return &Assembler{pipeline: newPipeline(gen, opts)}
}

func (a *Assembler) Evaluate(ctx context.Context, question, answer, historyContext string) FeedbackRecord {
	if WordCount(answer) < MinAnswerWords {
		return a.finish(rejectAnswer(question, answer))
	}

	var (
		followUp    string
		followUpErr error
		output      feedbackOutput
		outputErr   error
	)

	a.fanOut(ctx,
		func(ctx context.Context) {
			followUp, followUpErr = a.requestFollowUp(ctx, question, answer, historyContext)
		},
		func(ctx context.Context) {
			output, outputErr = a.requestFeedback(ctx, question, answer)
		},
	)

	if outputErr != nil {
		a.fallback(stepFeedback, outputErr)
	}

	record := mergeFeedback(question, answer, output, outputErr)
	record.FollowUp = a.resolveFollowUp(followUp, followUpErr)

	return a.finish(record)
}

func (a *Assembler) requestFeedback(ctx context.Context, question, answer string) (feedbackOutput, error) {
	prompt := feedbackPrompt(question, answer)
	raw, err := a.generate(ctx, stepFeedback, func(ctx context.Context) (string, error) {
		return a.gen.Generate(ctx, prompt)
	})
	if err != nil {
		return feedbackOutput{}, err
	}

	var out feedbackOutput
	if err := decodeOutput(raw, &out, feedbackKeys); err != nil {
		return feedbackOutput{}, err
	}
	return out, nil
}

// mergeFeedback builds the record from whatever the feedback step produced. Malformed output
// yields the fallback bundle; an unavailable generator leaves every field to its default.
func mergeFeedback(question, answer string, out feedbackOutput, err error) FeedbackRecord {
	if errors.Is(err, ErrMalformedOutput) {
		return fallbackFeedback(question, answer)
	}

	record := FeedbackRecord{Source: SourceModel}
	if err != nil {
		record.Source = SourceDefaults
		out = feedbackOutput{}
	}

	if out.Feedback != nil && strings.TrimSpace(*out.Feedback) != "" {
		record.Feedback = strings.TrimSpace(*out.Feedback)
	} else {
		record.Feedback = DynamicFeedback(answer)
	}

	if out.Proficiency != nil {
		record.Proficiency = clampScore(*out.Proficiency)
	} else {
		record.Proficiency = EstimateProficiency(answer)
	}

	if out.Confidence != nil {
		record.Confidence = clampScore(*out.Confidence)
	} else {
		record.Confidence = EstimateConfidence(answer)
	}

	record.ExpectedAnswer = mergeExpectedAnswer(question, out.ExpectedAnswer)
	record.ImprovementSuggestions = normalizeSuggestions(out.ImprovementSuggestions)

	return record
}

// mergeExpectedAnswer fills the parts missing from the model's outline with the template.
func mergeExpectedAnswer(question string, got *ExpectedAnswer) ExpectedAnswer {
	result := ExpectedAnswerTemplate(question)
	if isEmptyExpectedAnswer(got) {
		return result
	}

	if len(got.Structure) > 0 {
		result.Structure = got.Structure
	}
	if content := strings.TrimSpace(got.Content); content != "" {
		result.Content = content
	}
	if len(got.Examples) > 0 {
		result.Examples = got.Examples
	}
	return result
}

// fallbackFeedback is the bundle used when the generator answered with something unusable.
func fallbackFeedback(question, answer string) FeedbackRecord {
	message := "Try to elaborate more with specific examples."
	if WordCount(answer) > 20 {
		message = "Good technical content but could use more structure."
	}

	return FeedbackRecord{
		Feedback:               fallbackFeedbackPrefix + message,
		Proficiency:            EstimateProficiency(answer),
		Confidence:             EstimateConfidence(answer),
		ExpectedAnswer:         ExpectedAnswerTemplate(question),
		ImprovementSuggestions: slices.Clone(rejectedSuggestions),
		Source:                 SourceFallback,
	}
}
