package gemini

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/interview-coach/internal/ai"
)

const (
	transcribePrompt = `Transcribe the spoken answer in this recording verbatim, keeping filler words such as "um" and "uh".
Return only a JSON object: {"text": string, "language": ISO 639-1 code,
"words": [{"word": string, "start": seconds, "end": seconds, "probability": 0..1}]}.`

	defaultSampleRate = 24000
	wavMIMEType       = "audio/wav"
)

var (
	ErrEmptyTranscript  = errors.New("transcription returned no text")
	ErrUnsupportedAudio = errors.New("unsupported audio format")
)

// Transcribe converts a recorded answer to text with per-word timings when the model provides them.
func (c *Client) Transcribe(ctx context.Context, audio []byte) (ai.TranscriptResult, error) {
	if len(audio) == 0 {
		return ai.TranscriptResult{}, errors.New("audio must not be empty")
	}

	mime := mimetype.Detect(audio)
	if !isAudio(mime) {
		return ai.TranscriptResult{}, fmt.Errorf("%w: %s", ErrUnsupportedAudio, mime.String())
	}

	contents := []*genai.Content{genai.NewContentFromParts([]*genai.Part{
		genai.NewPartFromBytes(audio, mime.String()),
		genai.NewPartFromText(transcribePrompt),
	}, genai.RoleUser)}

	raw, err := c.generateText(ctx, contents, &genai.GenerateContentConfig{ResponseMIMEType: "application/json"})
	if err != nil {
		return ai.TranscriptResult{}, fmt.Errorf("transcribe audio: %w", err)
	}

	result := parseTranscript(raw)
	if result.Text == "" {
		return ai.TranscriptResult{}, ErrEmptyTranscript
	}

	c.logger.Debug("audio transcribed",
		zap.String("mime", mime.String()),
		zap.Int("words", len(result.Words)),
		zap.String("language", result.Language),
	)
	return result, nil
}

// Synthesize voices text with the configured prebuilt voice and returns a WAV file.
func (c *Client) Synthesize(ctx context.Context, text string) (ai.AudioBlob, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ai.AudioBlob{}, errors.New("text must not be empty")
	}

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityAudio)},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: c.voice},
			},
		},
	}

	resp, err := c.generateContent(ctx, c.ttsModel, genai.Text(text), config)
	if err != nil {
		return ai.AudioBlob{}, fmt.Errorf("synthesize speech: %w", err)
	}

	blob := firstInlineData(resp)
	if blob == nil || len(blob.Data) == 0 {
		return ai.AudioBlob{}, errors.New("gemini api returned no audio")
	}

	// raw PCM comes back as e.g. "audio/L16;codec=pcm;rate=24000"
	if isPCM(blob.MIMEType) {
		return ai.AudioBlob{Data: wrapPCM(blob.Data, sampleRate(blob.MIMEType)), MIMEType: wavMIMEType}, nil
	}
	return ai.AudioBlob{Data: blob.Data, MIMEType: blob.MIMEType}, nil
}

func isAudio(mime *mimetype.MIME) bool {
	for m := mime; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "audio/") || m.Is("video/webm") || m.Is("application/ogg") {
			return true
		}
	}
	return false
}

// parseTranscript accepts the requested JSON shape and falls back to treating the output as plain text.
func parseTranscript(raw string) ai.TranscriptResult {
	var result ai.TranscriptResult
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimSuffix(strings.TrimPrefix(trimmed, "```"), "```")

	if err := json.Unmarshal([]byte(trimmed), &result); err != nil {
		return ai.TranscriptResult{Text: strings.TrimSpace(raw)}
	}

	result.Text = strings.TrimSpace(result.Text)
	return result
}

func firstInlineData(resp *genai.GenerateContentResponse) *genai.Blob {
	if resp == nil {
		return nil
	}
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part != nil && part.InlineData != nil {
				return part.InlineData
			}
		}
	}
	return nil
}

func isPCM(mimeType string) bool {
	lower := strings.ToLower(mimeType)
	return strings.HasPrefix(lower, "audio/l16") || strings.HasPrefix(lower, "audio/pcm")
}

func sampleRate(mimeType string) int {
	for _, param := range strings.Split(mimeType, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
		if !ok || !strings.EqualFold(key, "rate") {
			continue
		}
		if rate, err := strconv.Atoi(value); err == nil && rate > 0 {
			return rate
		}
	}
	return defaultSampleRate
}

// wrapPCM prefixes 16-bit mono little-endian PCM samples with a RIFF/WAVE header.
func wrapPCM(pcm []byte, rate int) []byte {
	const (
		channels      = 1
		bitsPerSample = 16
		headerSize    = 44
	)
	blockAlign := channels * bitsPerSample / 8

	var buf bytes.Buffer
	buf.Grow(headerSize + len(pcm))

	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(rate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(rate*blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes()
}
