package gemini

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"google.golang.org/genai"
)

type fakeResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

type fakeCall struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

type fakeModels struct {
	mu    sync.Mutex
	queue []fakeResponse
	calls []fakeCall
}

func (f *fakeModels) enqueue(resp *genai.GenerateContentResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, fakeResponse{resp: resp, err: err})
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fakeCall{model: model, contents: contents, config: config})
	if len(f.queue) == 0 {
		return nil, errors.New("unexpected call")
	}
	res := f.queue[0]
	f.queue = f.queue[1:]
	return res.resp, res.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func newTestClient(models *fakeModels, maxRetries int) *Client {
	c := newClient(models, Config{Model: "gemini-test", MaxRetries: maxRetries})
	c.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return c
}

func TestGenerateRetriesOnTemporaryError(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"})
	models.enqueue(textResponse("retry ok"), nil)

	output, err := newTestClient(models, 2).Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if output != "retry ok" {
		t.Fatalf("unexpected output: %q", output)
	}
	if len(models.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(models.calls))
	}
	for _, call := range models.calls {
		if call.model != "gemini-test" {
			t.Fatalf("unexpected model %q", call.model)
		}
		if got := call.contents[0].Parts[0].Text; got != "prompt" {
			t.Fatalf("unexpected prompt %q", got)
		}
	}
}

func TestGenerateStopsAfterRetriesExhausted(t *testing.T) {
	models := &fakeModels{}
	tempErr := genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE"}
	models.enqueue(nil, tempErr)
	models.enqueue(nil, tempErr)

	_, err := newTestClient(models, 2).Generate(context.Background(), "prompt")
	if err == nil {
		t.Fatal("expected error after retries exhausted")
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected wrapped api error, got %v", err)
	}
	if len(models.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(models.calls))
	}
}

func TestGenerateDoesNotRetryPermanentErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{
			name: "long quota delay",
			err: genai.APIError{
				Code:    http.StatusTooManyRequests,
				Status:  "RESOURCE_EXHAUSTED",
				Message: "quota exhausted, retry after 60 seconds",
			},
		},
		{name: "bad request", err: genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"}},
		{name: "transport error", err: errors.New("connection reset")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			models := &fakeModels{}
			models.enqueue(nil, tt.err)

			if _, err := newTestClient(models, 3).Generate(context.Background(), "prompt"); err == nil {
				t.Fatal("expected error")
			}
			if len(models.calls) != 1 {
				t.Fatalf("expected single call, got %d", len(models.calls))
			}
		})
	}
}

func TestGenerateRetriesShortQuotaDelay(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{Code: http.StatusTooManyRequests, Message: "Please retry in 2.5s."})
	models.enqueue(textResponse("ok"), nil)

	if _, err := newTestClient(models, 3).Generate(context.Background(), "prompt"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(models.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(models.calls))
	}
}

func TestGenerateEmptyResponse(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(textResponse("   "), nil)

	if _, err := newTestClient(models, 1).Generate(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error for empty response")
	}
	if _, err := newTestClient(models, 1).Generate(context.Background(), " "); err == nil {
		t.Fatal("expected error for empty prompt")
	}
}

func TestGenerateFollowUpUsesTemplate(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(textResponse("Why Redis?"), nil)

	output, err := newTestClient(models, 1).GenerateFollowUp(context.Background(), "Question: Q\nAnswer: A")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output != "Why Redis?" {
		t.Fatalf("unexpected output %q", output)
	}

	prompt := models.calls[0].contents[0].Parts[0].Text
	if !strings.Contains(prompt, "Question: Q\nAnswer: A") || strings.Contains(prompt, "{{CONVERSATION}}") {
		t.Fatalf("conversation not rendered into prompt: %q", prompt)
	}
}

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		message string
		seconds float64
		ok      bool
	}{
		{message: "retry after 60 seconds", seconds: 60, ok: true},
		{message: "Please retry in 41.5s.", seconds: 41.5, ok: true},
		{message: "quota exceeded", ok: false},
	}

	for _, tt := range tests {
		delay, ok := retryDelay(tt.message)
		if ok != tt.ok || delay.Seconds() != tt.seconds {
			t.Fatalf("retryDelay(%q) = %v, %v", tt.message, delay, ok)
		}
	}
}
