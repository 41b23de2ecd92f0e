package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/interview-coach/internal/ai"
	"github.com/spigell/interview-coach/internal/logger"
	"github.com/spigell/interview-coach/internal/metrics"
)

const (
	stepFollowUp  = "follow_up"
	stepFeedback  = "feedback"
	stepReview    = "review"
	stepQuestions = "questions"

	defaultMaxLogLength = 200
)

// Option configures an evaluator or question generator.
type Option func(*pipeline)

// WithLogger sets the logger. Nil keeps the no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *pipeline) {
		p.logger = logger.OrNop(l)
	}
}

// WithMetrics sets the collectors generator calls and fallbacks are counted in.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *pipeline) {
		p.metrics = m
	}
}

// WithTimeout bounds every generator call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(p *pipeline) {
		p.timeout = d
	}
}

// WithParallel runs the follow-up and scoring calls concurrently.
func WithParallel(parallel bool) Option {
	return func(p *pipeline) {
		p.parallel = parallel
	}
}

// WithMaxLogLength limits previews of raw generator output in debug logs.
func WithMaxLogLength(n int) Option {
	return func(p *pipeline) {
		if n > 0 {
			p.maxLogLength = n
		}
	}
}

// pipeline holds what both evaluation strategies share: the generator, its call policy and
// the reporting of failures.
type pipeline struct {
	gen          ai.TextGenerator
	logger       *zap.Logger
	metrics      *metrics.Metrics
	timeout      time.Duration
	parallel     bool
	maxLogLength int
	validate     *validator.Validate
}

func newPipeline(gen ai.TextGenerator, opts []Option) pipeline {
	p := pipeline{
		gen:          gen,
		logger:       zap.NewNop(),
		maxLogLength: defaultMaxLogLength,
		validate:     validator.New(),
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// generate runs one generator call under the configured timeout. Errors and blank output are
// reported as ErrGenerationUnavailable.
func (p *pipeline) generate(ctx context.Context, step string, call func(context.Context) (string, error)) (string, error) {
	if p.gen == nil {
		return "", fmt.Errorf("%w: %s: no generator configured", ErrGenerationUnavailable, step)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := call(ctx)
	took := time.Since(start)

	if err != nil {
		p.metrics.ObserveGeneration(step, "error", took)
		return "", fmt.Errorf("%w: %s: %w", ErrGenerationUnavailable, step, err)
	}
	if strings.TrimSpace(raw) == "" {
		p.metrics.ObserveGeneration(step, "empty", took)
		return "", fmt.Errorf("%w: %s: empty output", ErrGenerationUnavailable, step)
	}

	p.metrics.ObserveGeneration(step, "ok", took)
	p.logger.Debug("generator output",
		zap.String("kind", step),
		zap.Duration("took", took),
		zap.String("preview", logger.Truncate(raw, p.maxLogLength)),
	)

	return raw, nil
}

// requestFollowUp asks the generator for a follow-up question about the answer.
func (p *pipeline) requestFollowUp(ctx context.Context, question, answer, historyContext string) (string, error) {
	conversation := BuildFollowUpContext(question, answer, historyContext)
	raw, err := p.generate(ctx, stepFollowUp, func(ctx context.Context) (string, error) {
		return p.gen.GenerateFollowUp(ctx, conversation)
	})
	if err != nil {
		return "", err
	}

	followUp := extractFollowUp(raw)
	if followUp == "" {
		return "", fmt.Errorf("%w: no question in follow-up output %q", ErrMalformedOutput, logger.Truncate(raw, p.maxLogLength))
	}
	return followUp, nil
}

// resolveFollowUp substitutes the default question for a failed follow-up step.
func (p *pipeline) resolveFollowUp(followUp string, err error) string {
	if err == nil {
		return followUp
	}
	p.fallback(stepFollowUp, err)
	return defaultFollowUp
}

// fanOut runs the follow-up step and a scoring step, concurrently when configured. Neither
// step fails the other: each keeps its own error.
func (p *pipeline) fanOut(ctx context.Context, followUp, scoring func(context.Context)) {
	if !p.parallel {
		followUp(ctx)
		scoring(ctx)
		return
	}

	var g errgroup.Group
	g.Go(func() error {
		followUp(ctx)
		return nil
	})
	g.Go(func() error {
		scoring(ctx)
		return nil
	})
	_ = g.Wait()
}

// fallback logs and counts a degraded step.
func (p *pipeline) fallback(step string, err error) {
	reason := "unavailable"
	if errors.Is(err, ErrMalformedOutput) {
		reason = "malformed"
	}
	p.metrics.ObserveFallback(step, reason)
	p.logger.Warn("generation step degraded",
		zap.String("kind", step),
		zap.String("reason", reason),
		zap.Error(err),
	)
}

// finish checks the record invariants and reports the result.
func (p *pipeline) finish(record FeedbackRecord) FeedbackRecord {
	if err := p.validate.Struct(record); err != nil {
		p.logger.Error("feedback record violates invariants", zap.Error(err))
	}

	p.metrics.ObserveRecord(string(record.Source), record.Proficiency, record.Confidence)
	p.logger.Info("answer evaluated",
		zap.String("source", string(record.Source)),
		zap.Int("proficiency", record.Proficiency),
		zap.Int("confidence", record.Confidence),
	)
	return record
}
