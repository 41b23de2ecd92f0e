package ai

import "context"

// TextGenerator is the unreliable text generation capability. Output is free text and must never
// be assumed well-formed.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateFollowUp(ctx context.Context, conversation string) (string, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (TranscriptResult, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (AudioBlob, error)
}

type WordTiming struct {
	Word        string  `json:"word" yaml:"word"`
	Start       float64 `json:"start" yaml:"start"`
	End         float64 `json:"end" yaml:"end"`
	// Probability is nil when the transcriber did not report one.
	Probability *float64 `json:"probability,omitempty" yaml:"probability,omitempty"`
}

// TranscriptResult is the output of a Transcriber. An empty Text means transcription failed.
type TranscriptResult struct {
	Text     string       `json:"text" yaml:"text"`
	Language string       `json:"language" yaml:"language"`
	Words    []WordTiming `json:"words,omitempty" yaml:"words,omitempty"`
}

type AudioBlob struct {
	Data     []byte
	MIMEType string
}
