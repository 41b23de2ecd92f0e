package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/interview"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Analyze a resume and start a new interview session",
	Run: func(cmd *cobra.Command, _ []string) {
		runQuestions(cmd)
	},
}

func init() {
	rootCmd.AddCommand(questionsCmd)

	questionsCmd.Flags().StringP("resume", "r", "", "resume file (plain text or pdf)")
	questionsCmd.Flags().Bool("speak", false, "write an audio file for every question")
	questionsCmd.MarkFlagRequired("resume")
}

func runQuestions(cmd *cobra.Command) {
	ctx := context.Background()
	d := setup(ctx)
	defer d.close()

	resumePath, _ := cmd.Flags().GetString("resume")

	session, err := d.newSession(ctx, resumePath)
	if err != nil {
		d.logger.Fatal("starting a session", zap.Error(err))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "session: %s\n", session.ID)
	for _, q := range session.Questions {
		fmt.Fprintln(out, q.String())
	}

	if speak, _ := cmd.Flags().GetBool("speak"); speak {
		speakQuestions(ctx, d, session)
	}
}

// speakQuestions writes question_N.wav for every question. Failures are logged and skipped.
func speakQuestions(ctx context.Context, d *deps, session *interview.Session) {
	for _, q := range session.Questions {
		path, err := d.speak(ctx, session.ID, fmt.Sprintf("question_%d", q.Index), q.Text)
		if err != nil {
			d.logger.Warn("synthesizing question audio", zap.Int("question_index", q.Index), zap.Error(err))
			continue
		}
		d.logger.Info("question audio written", zap.Int("question_index", q.Index), zap.String("filename", path))
	}
}
