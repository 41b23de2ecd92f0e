package interview

import (
	"strings"
	"testing"
)

func TestFeedbackPromptKeepsPlaceholdersInValues(t *testing.T) {
	t.Parallel()

	answer := "I would template it like {{QUESTION}} and {{ANSWER}}."
	first := feedbackPrompt(scenarioQuestion, answer)

	for range 50 {
		if got := feedbackPrompt(scenarioQuestion, answer); got != first {
			t.Fatalf("rendering is not stable:\n%s\n---\n%s", first, got)
		}
	}

	if !strings.Contains(first, "Question: "+scenarioQuestion) {
		t.Fatalf("question is not rendered:\n%s", first)
	}
	if !strings.Contains(first, "Answer: "+answer) {
		t.Fatalf("answer placeholders must stay literal:\n%s", first)
	}
}

func TestRenderFillsEveryPlaceholder(t *testing.T) {
	t.Parallel()

	prompt := reviewPrompt("Question: Q\nAnswer: A")
	if strings.Contains(prompt, "{{CONTEXT}}") {
		t.Fatalf("placeholder left in prompt:\n%s", prompt)
	}
}
