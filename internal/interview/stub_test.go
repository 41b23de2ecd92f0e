package interview

import (
	"context"
	"sync/atomic"
)

type stubGenerator struct {
	generate func(ctx context.Context, prompt string) (string, error)
	followUp func(ctx context.Context, conversation string) (string, error)

	generateCalls atomic.Int32
	followUpCalls atomic.Int32
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	s.generateCalls.Add(1)
	if s.generate == nil {
		return "", nil
	}
	return s.generate(ctx, prompt)
}

func (s *stubGenerator) GenerateFollowUp(ctx context.Context, conversation string) (string, error) {
	s.followUpCalls.Add(1)
	if s.followUp == nil {
		return "", nil
	}
	return s.followUp(ctx, conversation)
}

func respond(text string, err error) func(context.Context, string) (string, error) {
	return func(context.Context, string) (string, error) {
		return text, err
	}
}
