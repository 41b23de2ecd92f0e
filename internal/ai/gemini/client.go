package gemini

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/interview-coach/internal/logger"
)

const (
	ProviderName = "gemini"

	defaultModel      = "gemini-2.5-flash"
	defaultTTSModel   = "gemini-2.5-flash-preview-tts"
	defaultVoice      = "Kore"
	defaultMaxRetries = 3

	// quota errors asking to wait longer than this are not retried
	maxQuotaDelay = 30 * time.Second
)

//go:embed follow_up.md
var followUpTemplate string

var retryDelayPattern = regexp.MustCompile(`(?i)retry (?:after|in) (\d+(?:\.\d+)?)\s*s`)

// contentModels is the part of genai.Models the client uses.
type contentModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Config struct {
	APIKey       string
	Model        string
	TTSModel     string
	Voice        string
	MaxRetries   int
	MaxLogLength int
	Logger       *zap.Logger
}

// Client talks to the Gemini API. It generates text, transcribes audio and synthesizes speech.
// It is safe for concurrent use.
type Client struct {
	models       contentModels
	model        string
	ttsModel     string
	voice        string
	maxRetries   int
	maxLogLength int
	logger       *zap.Logger

	newBackOff func() backoff.BackOff
}

// New creates a Client configured for the Gemini API backend.
func New(ctx context.Context, cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newClient(client.Models, cfg), nil
}

func newClient(models contentModels, cfg Config) *Client {
	c := &Client{
		models:       models,
		model:        orDefault(cfg.Model, defaultModel),
		ttsModel:     orDefault(cfg.TTSModel, defaultTTSModel),
		voice:        orDefault(cfg.Voice, defaultVoice),
		maxRetries:   cfg.MaxRetries,
		maxLogLength: cfg.MaxLogLength,
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff(
				backoff.WithInitialInterval(time.Second),
				backoff.WithMaxInterval(10*time.Second),
				backoff.WithMaxElapsedTime(0),
			)
		},
	}

	if c.maxRetries <= 0 {
		c.maxRetries = defaultMaxRetries
	}
	if c.maxLogLength <= 0 {
		c.maxLogLength = 200
	}

	c.logger = logger.WithCommonFields(cfg.Logger, ProviderName, c.model)

	return c
}

// Generate sends the prompt and returns the textual response.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	return c.generateText(ctx, genai.Text(prompt), nil)
}

// GenerateFollowUp asks for a single follow-up question about the conversation.
func (c *Client) GenerateFollowUp(ctx context.Context, conversation string) (string, error) {
	conversation = strings.TrimSpace(conversation)
	if conversation == "" {
		return "", errors.New("conversation must not be empty")
	}

	prompt := strings.ReplaceAll(strings.TrimSpace(followUpTemplate), "{{CONVERSATION}}", conversation)
	return c.generateText(ctx, genai.Text(prompt), nil)
}

// ExtractText returns the plain text of a document, e.g. a PDF resume.
func (c *Client) ExtractText(ctx context.Context, document []byte, mimeType string) (string, error) {
	if len(document) == 0 {
		return "", errors.New("document must not be empty")
	}

	contents := []*genai.Content{genai.NewContentFromParts([]*genai.Part{
		genai.NewPartFromBytes(document, mimeType),
		genai.NewPartFromText("Return the full plain text of this document. Do not summarize or add commentary."),
	}, genai.RoleUser)}

	return c.generateText(ctx, contents, nil)
}

func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.model
}

func (c *Client) generateText(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (string, error) {
	resp, err := c.generateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", err
	}

	output := responseText(resp)
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	c.logger.Debug("gemini response received", zap.String("response_preview", logger.Truncate(output, c.maxLogLength)))
	return output, nil
}

// generateContent calls the API, retrying rate limits and server errors with exponential backoff.
func (c *Client) generateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if c == nil || c.models == nil {
		return nil, errors.New("gemini client is not initialized")
	}

	attempt := 0
	operation := func() (*genai.GenerateContentResponse, error) {
		attempt++
		resp, err := c.models.GenerateContent(ctx, model, contents, config)
		if err == nil {
			return resp, nil
		}
		if !retryable(err) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	notify := func(err error, next time.Duration) {
		c.logger.Warn("gemini request failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.maxRetries),
			zap.Duration("backoff", next),
			zap.Error(err),
		)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), uint64(c.maxRetries-1)), ctx)

	resp, err := backoff.RetryNotifyWithData(operation, policy, notify)
	if err != nil {
		return nil, fmt.Errorf("generate content with %s after %d attempt(s): %w", model, attempt, err)
	}
	return resp, nil
}

// retryable reports whether err is a transient API error worth another attempt.
func retryable(err error) bool {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}

	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		if delay, ok := retryDelay(apiErr.Message); ok && delay > maxQuotaDelay {
			return false
		}
		return true
	case apiErr.Code >= http.StatusInternalServerError:
		return true
	default:
		return false
	}
}

// retryDelay parses the wait hint of quota errors, e.g. "retry after 60 seconds".
func retryDelay(message string) (time.Duration, bool) {
	match := retryDelayPattern.FindStringSubmatch(message)
	if match == nil {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(seconds * float64(time.Second)), true
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}

func orDefault(value, fallback string) string {
	if value = strings.TrimSpace(value); value != "" {
		return value
	}
	return fallback
}
