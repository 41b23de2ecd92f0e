package interview

import (
	"regexp"
	"strings"
)

// MinAnswerWords is the shortest answer that is scored on its content.
const MinAnswerWords = 5

var (
	technicalTerms = []string{
		"algorithm", "database", "API", "framework", "JavaScript", "Python",
		"React", "Node.js", "machine learning", "AI", "cloud", "devops",
		"backend", "frontend", "fullstack", "container", "microservices",
		"CI/CD", "agile", "scrum", "OOP", "REST", "GraphQL", "SQL", "NoSQL",
		"Docker", "Kubernetes", "AWS", "Azure", "GCP", "neural network",
		"deep learning", "natural language processing", "computer vision",
	}

	fillerWords = []string{"um", "uh", "like", "you know", "so", "well", "basically", "actually"}

	sentenceSeparators = regexp.MustCompile(`[.!?]`)
)

// WordCount returns the number of whitespace separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// CountTechnicalTerms counts case-insensitive substring occurrences of every technical term.
// Overlapping terms and repeats are all counted.
func CountTechnicalTerms(text string) int {
	return countOccurrences(text, technicalTerms)
}

// CountFillerWords counts case-insensitive substring occurrences of filler words.
func CountFillerWords(text string) int {
	return countOccurrences(text, fillerWords)
}

func countOccurrences(text string, terms []string) int {
	lower := strings.ToLower(text)
	total := 0
	for _, term := range terms {
		total += strings.Count(lower, strings.ToLower(term))
	}
	return total
}

// ShortAnswerScore is the score given to answers below MinAnswerWords regardless of content.
func ShortAnswerScore(wordCount int) int {
	return clamp(wordCount*5, 10, 30)
}

// EstimateProficiency scores technical depth from technical-term density and answer length.
func EstimateProficiency(answer string) int {
	wc := WordCount(answer)
	if wc < MinAnswerWords {
		return ShortAnswerScore(wc)
	}

	density := float64(CountTechnicalTerms(answer)) / float64(wc+1)
	base := clampFloat(70+density*0.3*100, 70, 95)
	lengthBonus := min(float64(wc)/50*10, 10)

	return clamp(int(base+lengthBonus), 0, 100)
}

// EstimateConfidence scores delivery from the filler-word rate and average sentence length.
func EstimateConfidence(answer string) int {
	wc := WordCount(answer)
	if wc < MinAnswerWords {
		return ShortAnswerScore(wc)
	}

	rate := float64(CountFillerWords(answer)) / float64(wc+1)
	base := max(50, 90-rate*2*100)

	// the trailing piece after the final terminator counts as a sentence
	sentences := len(sentenceSeparators.Split(answer, -1))
	if avg := float64(wc) / float64(sentences); avg >= 10 && avg <= 20 {
		base += 5
	}

	return clamp(int(base), 0, 100)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func clampFloat(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}
