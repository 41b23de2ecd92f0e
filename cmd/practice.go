package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/ai"
	"github.com/spigell/interview-coach/internal/interview"
)

const (
	PromptNext   = "Next question"
	PromptRetry  = "Answer again"
	PromptFinish = "Finish"
)

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Run an interactive mock interview in the terminal",
	Run: func(cmd *cobra.Command, _ []string) {
		runPractice(cmd)
	},
}

func init() {
	rootCmd.AddCommand(practiceCmd)

	practiceCmd.Flags().StringP("resume", "r", "", "resume file (plain text or pdf)")
	practiceCmd.Flags().StringP("session", "s", "", "continue an existing session instead of starting a new one")
	practiceCmd.MarkFlagsOneRequired("resume", "session")
}

func runPractice(cmd *cobra.Command) {
	ctx := context.Background()
	d := setup(ctx)
	defer d.close()

	session, err := practiceSession(ctx, cmd, d)
	if err != nil {
		d.logger.Fatal("starting a session", zap.Error(err))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "session: %s\n", session.ID)

	for i := 0; i < len(session.Questions); i++ {
		q := session.Questions[i]
		fmt.Fprintf(out, "\n%s\n", q.String())

		answerPrompt := promptui.Prompt{Label: "Your answer"}
		text, err := answerPrompt.Run()
		if err != nil {
			d.logger.Fatal("exiting", zap.Error(err))
		}

		feedback, err := d.answer(ctx, session, q, ai.TranscriptResult{Text: strings.TrimSpace(text)})
		if err != nil {
			d.logger.Fatal("saving the session", zap.Error(err))
		}
		printFeedback(out, feedback)

		action, err := nextAction(i == len(session.Questions)-1)
		if err != nil {
			d.logger.Fatal("exiting", zap.Error(err))
		}

		switch action {
		case PromptRetry:
			i--
		case PromptFinish:
			d.logger.Info("exiting", zap.String("reason", "finished by user"), zap.Int("answered", len(session.History)))
			return
		}
	}

	d.logger.Info("interview completed", zap.Int("answered", len(session.History)))
}

func practiceSession(ctx context.Context, cmd *cobra.Command, d *deps) (*interview.Session, error) {
	if id, _ := cmd.Flags().GetString("session"); id != "" {
		return d.store.Load(ctx, id)
	}

	resumePath, _ := cmd.Flags().GetString("resume")
	return d.newSession(ctx, resumePath)
}

func nextAction(last bool) (string, error) {
	items := []string{PromptNext, PromptRetry, PromptFinish}
	if last {
		items = []string{PromptRetry, PromptFinish}
	}

	prompt := promptui.Select{Label: "Proceed?", Items: items}
	_, action, err := prompt.Run()
	if errors.Is(err, promptui.ErrInterrupt) {
		return PromptFinish, nil
	}
	return action, err
}

func printFeedback(out io.Writer, f interview.FeedbackRecord) {
	fmt.Fprintf(out, "\nFeedback: %s\n", f.Feedback)
	fmt.Fprintf(out, "Proficiency: %d/100  Confidence: %d/100\n", f.Proficiency, f.Confidence)
	fmt.Fprintln(out, "Improve:")
	for _, s := range f.ImprovementSuggestions {
		fmt.Fprintf(out, "  - %s\n", s)
	}
	if f.ExpectedAnswer.Content != "" {
		fmt.Fprintf(out, "Expected: %s\n", f.ExpectedAnswer.Content)
	}
	if f.FollowUp != "" {
		fmt.Fprintf(out, "Follow-up: %s\n", f.FollowUp)
	}
}
