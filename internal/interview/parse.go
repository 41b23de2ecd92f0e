package interview

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// feedbackOutput is the JSON shape requested from the generator for feedback. Nil fields were
// absent from the output.
type feedbackOutput struct {
	Feedback               *string         `mapstructure:"feedback"`
	Proficiency            *float64        `mapstructure:"proficiency"`
	Confidence             *float64        `mapstructure:"confidence"`
	ExpectedAnswer         *ExpectedAnswer `mapstructure:"expected_answer"`
	ImprovementSuggestions []string        `mapstructure:"improvement_suggestions"`
}

var feedbackKeys = []string{"feedback", "proficiency", "confidence", "expected_answer", "improvement_suggestions"}

// reviewOutput is the JSON shape requested from the generator for a multi-axis review.
type reviewOutput struct {
	TechnicalScore         *float64        `mapstructure:"technical_score"`
	RelevanceScore         *float64        `mapstructure:"relevance_score"`
	ConfidenceScore        *float64        `mapstructure:"confidence_score"`
	Feedback               *string         `mapstructure:"feedback"`
	ExpectedAnswer         *ExpectedAnswer `mapstructure:"expected_answer"`
	ImprovementSuggestions []string        `mapstructure:"improvement_suggestions"`
}

var reviewKeys = []string{"technical_score", "relevance_score", "confidence_score", "feedback", "expected_answer", "improvement_suggestions"}

var expectedAnswerType = reflect.TypeOf(ExpectedAnswer{})

// decodeOutput extracts the first JSON object from raw generator text and decodes it into out
// without weak typing, so a string where a number is expected is an error. At least one of
// keys must be present.
func decodeOutput(raw string, out any, keys []string) error {
	cleaned := extractJSON(raw)
	if cleaned == "" {
		return fmt.Errorf("%w: no json object in output", ErrMalformedOutput)
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedOutput, err)
	}

	if !hasAnyKey(data, keys) {
		return fmt.Errorf("%w: none of the expected keys %v present", ErrMalformedOutput, keys)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.DecodeHookFuncType(expectedAnswerHook),
		Result:     out,
	})
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}

	if err := decoder.Decode(data); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedOutput, err)
	}

	return nil
}

// expectedAnswerHook accepts a plain string for expected_answer and treats it as the content.
func expectedAnswerHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != expectedAnswerType || from.Kind() != reflect.String {
		return data, nil
	}
	return map[string]any{"content": data}, nil
}

func hasAnyKey(data map[string]any, keys []string) bool {
	for _, key := range keys {
		if _, ok := data[key]; ok {
			return true
		}
	}
	return false
}

// extractJSON strips markdown fences and surrounding chatter, returning the text between the
// first '{' and the last '}'.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end < start {
		return ""
	}
	return raw[start : end+1]
}

// clampScore converts a model-supplied number into [0,100].
func clampScore(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(clampFloat(v, 0, 100))
}

func isEmptyExpectedAnswer(e *ExpectedAnswer) bool {
	return e == nil || (strings.TrimSpace(e.Content) == "" && len(e.Structure) == 0 && len(e.Examples) == 0)
}
