package ai

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// Limit wraps a generator that is not reentrant so that at most n calls run at once.
// Waiting callers give up when their context is done.
func Limit(gen TextGenerator, n int64) TextGenerator {
	if n <= 0 {
		n = 1
	}
	return &limitedGenerator{next: gen, sem: semaphore.NewWeighted(n)}
}

type limitedGenerator struct {
	next TextGenerator
	sem  *semaphore.Weighted
}

func (l *limitedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("waiting for generator: %w", err)
	}
	defer l.sem.Release(1)

	return l.next.Generate(ctx, prompt)
}

func (l *limitedGenerator) GenerateFollowUp(ctx context.Context, conversation string) (string, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("waiting for generator: %w", err)
	}
	defer l.sem.Release(1)

	return l.next.GenerateFollowUp(ctx, conversation)
}
