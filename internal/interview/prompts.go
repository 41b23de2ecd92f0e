package interview

import (
	"embed"
	"strings"
)

//go:embed prompts/*.md
var promptFiles embed.FS

// render fills {{KEY}} placeholders of an embedded prompt template. pairs alternate key and value.
// Substitution is a single pass, placeholders inside values are left as is.
func render(name string, pairs ...string) string {
	data, err := promptFiles.ReadFile("prompts/" + name)
	if err != nil {
		// templates are compiled in, a missing one is a programming error
		panic(err)
	}

	oldnew := make([]string, 0, len(pairs))
	for i := 0; i+1 < len(pairs); i += 2 {
		oldnew = append(oldnew, "{{"+pairs[i]+"}}", pairs[i+1])
	}
	return strings.TrimSpace(strings.NewReplacer(oldnew...).Replace(string(data)))
}

// BuildFollowUpContext renders the conversation passed to GenerateFollowUp.
func BuildFollowUpContext(question, answer, historyContext string) string {
	var b strings.Builder
	if history := strings.TrimSpace(historyContext); history != "" {
		b.WriteString("Earlier in the interview:\n")
		b.WriteString(history)
		b.WriteString("\n\n")
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\nAnswer: ")
	b.WriteString(answer)
	return b.String()
}

func questionsPrompt(summary string) string {
	return render("questions.md", "RESUME_SUMMARY", summary)
}

func feedbackPrompt(question, answer string) string {
	return render("feedback.md", "QUESTION", question, "ANSWER", answer)
}

func reviewPrompt(conversation string) string {
	return render("review.md", "CONTEXT", conversation)
}
