package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/ai"
	"github.com/spigell/interview-coach/internal/ai/gemini"
	"github.com/spigell/interview-coach/internal/interview"
	"github.com/spigell/interview-coach/internal/speech"
)

var answerCmd = &cobra.Command{
	Use:   "answer",
	Short: "Evaluate an answer to one question of a session",
	Run: func(cmd *cobra.Command, _ []string) {
		runAnswer(cmd)
	},
}

// answerOutput is what the answer command prints.
type answerOutput struct {
	SessionID  string                   `json:"session_id"`
	Question   string                   `json:"question"`
	Transcript string                   `json:"transcript"`
	Feedback   interview.FeedbackRecord `json:"feedback"`
	Delivery   *speech.Delivery         `json:"delivery,omitempty"`
}

func init() {
	rootCmd.AddCommand(answerCmd)

	answerCmd.Flags().StringP("session", "s", "", "session id printed by the questions command")
	answerCmd.Flags().IntP("question", "q", 1, "question number")
	answerCmd.Flags().StringP("text", "t", "", "answer text")
	answerCmd.Flags().StringP("audio", "a", "", "recorded answer")
	answerCmd.Flags().Bool("speak", false, "voice the transcript and the follow-up question")
	answerCmd.MarkFlagRequired("session")
	answerCmd.MarkFlagsOneRequired("text", "audio")
	answerCmd.MarkFlagsMutuallyExclusive("text", "audio")
}

func runAnswer(cmd *cobra.Command) {
	ctx := context.Background()
	d := setup(ctx)
	defer d.close()

	sessionID, _ := cmd.Flags().GetString("session")
	index, _ := cmd.Flags().GetInt("question")

	session, err := d.store.Load(ctx, sessionID)
	if err != nil {
		d.logger.Fatal("loading the session", zap.Error(err))
	}

	question, err := session.Question(index)
	if err != nil {
		d.logger.Fatal("choosing the question", zap.Error(err), zap.Int("questions", len(session.Questions)))
	}

	transcript, err := readAnswer(ctx, cmd, d.client)
	if err != nil {
		d.logger.Fatal("reading the answer", zap.Error(err))
	}

	feedback, err := d.answer(ctx, session, question, transcript)
	if err != nil {
		d.logger.Fatal("saving the session", zap.Error(err))
	}

	output := answerOutput{
		SessionID:  session.ID,
		Question:   question.Text,
		Transcript: transcript.Text,
		Feedback:   feedback,
	}
	if audio, _ := cmd.Flags().GetString("audio"); audio != "" {
		delivery := speech.Analyze(transcript)
		output.Delivery = &delivery
	}

	pretty, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		d.logger.Fatal("encoding the feedback", zap.Error(err))
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(pretty))

	if speak, _ := cmd.Flags().GetBool("speak"); speak {
		speakFeedback(ctx, d, session.ID, question.Index, transcript.Text, feedback.FollowUp)
	}
}

// readAnswer returns the typed answer or the transcript of the recorded one.
func readAnswer(ctx context.Context, cmd *cobra.Command, transcriber ai.Transcriber) (ai.TranscriptResult, error) {
	if text, _ := cmd.Flags().GetString("text"); strings.TrimSpace(text) != "" {
		return ai.TranscriptResult{Text: strings.TrimSpace(text)}, nil
	}

	path, _ := cmd.Flags().GetString("audio")
	if path == "" {
		return ai.TranscriptResult{}, errors.New("answer is empty")
	}

	audio, err := os.ReadFile(path)
	if err != nil {
		return ai.TranscriptResult{}, fmt.Errorf("read audio %q: %w", path, err)
	}

	transcript, err := transcriber.Transcribe(ctx, audio)
	if errors.Is(err, gemini.ErrEmptyTranscript) {
		return ai.TranscriptResult{}, errors.New("could not transcribe audio, please speak clearly and try again")
	}
	if err != nil {
		return ai.TranscriptResult{}, err
	}
	return transcript, nil
}

// speakFeedback writes the "you said" and follow-up clips of an answer.
func speakFeedback(ctx context.Context, d *deps, sessionID string, index int, transcript, followUp string) {
	clips := []struct{ name, text string }{
		{name: fmt.Sprintf("answer_%d_said", index), text: "You said: " + transcript},
	}
	if followUp != "" {
		clips = append(clips, struct{ name, text string }{
			name: fmt.Sprintf("answer_%d_follow_up", index),
			text: "Follow-up question: " + followUp,
		})
	}

	for _, clip := range clips {
		path, err := d.speak(ctx, sessionID, clip.name, clip.text)
		if err != nil {
			d.logger.Warn("synthesizing feedback audio", zap.String("clip", clip.name), zap.Error(err))
			continue
		}
		d.logger.Info("feedback audio written", zap.String("filename", path))
	}
}
