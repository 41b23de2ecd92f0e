// Package resume extracts a structured candidate profile from plain resume text.
package resume

import (
	"errors"
	"regexp"
	"sort"
	"strings"
)

const (
	notFound    = "N/A"
	unknownName = "Name Not Found"
)

// ErrNoSkills is returned when the resume text does not mention any known skill. Questions
// generated from such a profile would be meaningless.
var ErrNoSkills = errors.New("resume does not mention any known skill")

// Profile is the candidate data the interview is built from. It is not modified after Extract.
type Profile struct {
	Name       string            `json:"name" yaml:"name"`
	Skills     []string          `json:"skills" yaml:"skills"`
	Education  []string          `json:"education" yaml:"education"`
	Experience []string          `json:"experience" yaml:"experience"`
	Contact    map[string]string `json:"contact" yaml:"contact"`
}

// Summary joins skills, education and experience into the text used for question prompts.
func (p Profile) Summary() string {
	parts := make([]string, 0, len(p.Skills)+len(p.Education)+len(p.Experience))
	parts = append(parts, p.Skills...)
	parts = append(parts, p.Education...)
	parts = append(parts, p.Experience...)
	return strings.Join(parts, " ")
}

var (
	skillKeywords = []string{
		"python", "java", "c++", "sql", "ml", "ai", "tensorflow", "pytorch", "flask",
		"react", "django", "html", "css", "javascript", "go", "kubernetes", "docker",
	}

	namePattern = regexp.MustCompile(`^[A-Z][a-z]+(?:\s[A-Z][a-z]+)*$`)

	educationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(B\.?Tech|M\.?Tech|Bachelor|Master).*?(Computer|Technology|Engineering)`),
		regexp.MustCompile(`(?i)(University|College)\s+\w+`),
		regexp.MustCompile(`(?i)\b(BCA|MCA|B\.?Sc|M\.?Sc)\b`),
	}

	experiencePattern = regexp.MustCompile(`(?i)(intern|experience|developer|engineer)`)
	emailPattern      = regexp.MustCompile(`[\w.-]+@[\w.-]+`)
	phonePattern      = regexp.MustCompile(`(\+91[-\s]?)?[6-9]\d{9}`)
	wordBoundary      = regexp.MustCompile(`[^a-z0-9+#]+`)
)

// Extract builds a Profile from resume text.
func Extract(text string) (Profile, error) {
	profile := Profile{
		Name:       extractName(text),
		Skills:     extractSkills(text),
		Education:  extractEducation(text),
		Experience: extractExperience(text),
		Contact:    extractContact(text),
	}

	if len(profile.Skills) == 0 {
		return profile, ErrNoSkills
	}

	return profile, nil
}

func extractName(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) > 5 {
		lines = lines[:5]
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if namePattern.MatchString(line) {
			return line
		}
	}
	return unknownName
}

// extractSkills matches keywords against whole tokens so that short keywords such as "go" or
// "ai" do not fire inside unrelated words.
func extractSkills(text string) []string {
	tokens := make(map[string]struct{})
	for _, token := range wordBoundary.Split(strings.ToLower(text), -1) {
		if token != "" {
			tokens[token] = struct{}{}
		}
	}

	found := make([]string, 0)
	for _, keyword := range skillKeywords {
		if _, ok := tokens[keyword]; ok {
			found = append(found, keyword)
		}
	}
	sort.Strings(found)
	return found
}

func extractEducation(text string) []string {
	matches := make([]string, 0)
	for _, pattern := range educationPatterns {
		for _, groups := range pattern.FindAllStringSubmatch(text, -1) {
			if len(groups) > 2 {
				matches = append(matches, strings.Join(groups[1:], " "))
				continue
			}
			matches = append(matches, strings.TrimSpace(groups[0]))
		}
	}
	return unique(matches)
}

func extractExperience(text string) []string {
	lines := make([]string, 0)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && experiencePattern.MatchString(line) {
			lines = append(lines, line)
		}
	}
	return unique(lines)
}

func extractContact(text string) map[string]string {
	contact := map[string]string{"email": notFound, "phone": notFound}
	if email := emailPattern.FindString(text); email != "" {
		contact["email"] = email
	}
	if phone := phonePattern.FindString(text); phone != "" {
		contact["phone"] = phone
	}
	return contact
}

// unique drops repeated entries keeping the first occurrence.
func unique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
