package interview

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/ai"
	"github.com/spigell/interview-coach/internal/resume"
)

// QuestionGenerator asks the generator for interview questions about a resume.
type QuestionGenerator struct {
	pipeline
	maxCount int
}

func NewQuestionGenerator(gen ai.TextGenerator, maxCount int, opts ...Option) *QuestionGenerator {
	return &QuestionGenerator{pipeline: newPipeline(gen, opts), maxCount: maxCount}
}

// Generate returns between one and maxCount questions. Generator failures end in the fallback set.
func (g *QuestionGenerator) Generate(ctx context.Context, profile resume.Profile) []Question {
	prompt := questionsPrompt(profile.Summary())
	raw, err := g.generate(ctx, stepQuestions, func(ctx context.Context) (string, error) {
		return g.gen.Generate(ctx, prompt)
	})
	if err != nil {
		g.fallback(stepQuestions, err)
	}

	var lines []string
	if raw != "" {
		lines = strings.Split(raw, "\n")
	}

	questions, stats := Sanitize(lines, g.maxCount)
	if stats.Fallback {
		g.metrics.ObserveFallback(stepQuestions, "no_survivors")
	}

	g.logger.Info("questions generated",
		zap.Int("initial", stats.Initial),
		zap.Any("dropped", stats.Dropped),
		zap.Int("left", stats.Left),
		zap.Bool("fallback", stats.Fallback),
	)

	return questions
}
