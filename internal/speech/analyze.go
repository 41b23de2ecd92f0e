// Package speech derives delivery metrics from a timed transcript.
package speech

import (
	"math"
	"strings"
	"unicode"

	"github.com/spigell/interview-coach/internal/ai"
)

var fillers = map[string]struct{}{"um": {}, "uh": {}}

// Delivery describes how an answer was spoken.
type Delivery struct {
	FillerWords   int     `json:"filler_words" yaml:"filler_words"`
	SpeechRate    float64 `json:"speech_rate" yaml:"speech_rate"`
	MinConfidence float64 `json:"confidence" yaml:"confidence"`
}

// Analyze counts filler words, computes words per second between the first and the last word
// and reports the lowest word probability. Words without a probability count as fully confident.
// A transcript without timings yields zero metrics.
func Analyze(transcript ai.TranscriptResult) Delivery {
	words := transcript.Words
	if len(words) == 0 {
		return Delivery{}
	}

	var d Delivery
	d.MinConfidence = 1
	for _, w := range words {
		token := strings.ToLower(strings.TrimFunc(w.Word, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSpace(r)
		}))
		if _, ok := fillers[token]; ok {
			d.FillerWords++
		}
		if w.Probability != nil {
			d.MinConfidence = math.Min(d.MinConfidence, *w.Probability)
		}
	}

	if duration := words[len(words)-1].End - words[0].Start; duration > 0 {
		d.SpeechRate = round(float64(len(words))/duration, 2)
	}
	d.MinConfidence = round(d.MinConfidence, 3)

	return d
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
