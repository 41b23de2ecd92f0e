package interview

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxQuestions is the upper bound of questions in a session.
const MaxQuestions = 5

// Question is a well-formed interview question with its 1-based position in the session.
type Question struct {
	Text  string `json:"text" yaml:"text"`
	Index int    `json:"index" yaml:"index"`
}

func (q Question) String() string {
	return fmt.Sprintf("%d. %s", q.Index, q.Text)
}

var (
	fallbackQuestions = []string{
		"Can you explain your experience with the technologies mentioned in your resume?",
		"What was your most challenging technical project?",
		"How do you approach problem-solving in your work?",
	}

	introductoryPhrases = []string{"here are the", "based on"}
	enumerationMarker   = regexp.MustCompile(`^[a-zA-Z0-9]+[.)]\s*`)
)

// SanitizeStats describes what the sanitizer did with its input.
type SanitizeStats struct {
	Initial  int
	Dropped  map[string]int
	Left     int
	Fallback bool
}

// sanitizeRule transforms a candidate line. ok=false drops it.
type sanitizeRule struct {
	name  string
	apply func(line string) (string, bool)
}

var sanitizeRules = []sanitizeRule{
	{name: "empty", apply: func(line string) (string, bool) {
		line = strings.TrimSpace(line)
		return line, line != ""
	}},
	{name: "introductory", apply: func(line string) (string, bool) {
		lower := strings.ToLower(line)
		for _, phrase := range introductoryPhrases {
			if strings.Contains(lower, phrase) {
				return line, false
			}
		}
		return line, true
	}},
	{name: "enumeration", apply: func(line string) (string, bool) {
		// nested markers like "1. a) ..." are stripped one by one
		for {
			stripped := strings.TrimSpace(enumerationMarker.ReplaceAllString(line, ""))
			if stripped == line {
				return line, true
			}
			line = stripped
		}
	}},
	{name: "not_a_question", apply: func(line string) (string, bool) {
		return line, strings.HasSuffix(line, "?")
	}},
	{name: "repeated_marks", apply: func(line string) (string, bool) {
		return strings.TrimRight(line, "?") + "?", true
	}},
	{name: "too_short", apply: func(line string) (string, bool) {
		return line, WordCount(line) >= 3
	}},
}

// Sanitize filters raw generated lines into at most maxCount unique, well-formed questions.
// When nothing survives the fixed fallback set is returned, so the result is never empty.
func Sanitize(lines []string, maxCount int) ([]Question, SanitizeStats) {
	if maxCount <= 0 || maxCount > MaxQuestions {
		maxCount = MaxQuestions
	}

	stats := SanitizeStats{Initial: len(lines), Dropped: make(map[string]int)}
	accepted := make([]string, 0, maxCount)
	seen := make(map[string]struct{}, maxCount)

	for _, line := range lines {
		if len(accepted) == maxCount {
			break
		}

		cleaned, ok := applyRules(line, stats.Dropped)
		if !ok {
			continue
		}

		if _, dup := seen[cleaned]; dup {
			stats.Dropped["duplicate"]++
			continue
		}
		seen[cleaned] = struct{}{}
		accepted = append(accepted, cleaned)
	}

	if len(accepted) == 0 {
		accepted = fallbackQuestions
		stats.Fallback = true
	}

	questions := make([]Question, len(accepted))
	for i, text := range accepted {
		questions[i] = Question{Text: text, Index: i + 1}
	}
	stats.Left = len(questions)

	return questions, stats
}

// Texts returns the question texts in order.
func Texts(questions []Question) []string {
	texts := make([]string, len(questions))
	for i, q := range questions {
		texts[i] = q.Text
	}
	return texts
}

func applyRules(line string, dropped map[string]int) (string, bool) {
	for _, rule := range sanitizeRules {
		var ok bool
		line, ok = rule.apply(line)
		if !ok {
			dropped[rule.name]++
			return "", false
		}
	}
	return line, true
}
