package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/ai"
	"github.com/spigell/interview-coach/internal/ai/gemini"
	"github.com/spigell/interview-coach/internal/interview"
	"github.com/spigell/interview-coach/internal/logger"
	"github.com/spigell/interview-coach/internal/metrics"
	"github.com/spigell/interview-coach/internal/resume"
	"github.com/spigell/interview-coach/internal/secrets"
	"github.com/spigell/interview-coach/internal/store"
)

// deps holds everything a command needs. It is built once per invocation.
type deps struct {
	config  *Config
	logger  *zap.Logger
	metrics *metrics.Metrics

	client    *gemini.Client
	generator ai.TextGenerator

	store      store.Store
	closeStore func() error
}

// setup builds the dependencies or exits, like every command of this cli does on broken configuration.
func setup(ctx context.Context) *deps {
	logger, err := logger.New(logger.Config{JSON: viper.GetBool("json"), Debug: viper.GetBool("debug")})
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig(viper.GetViper())
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the interview-coach", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	client, err := newGeminiClient(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("creating the ai client",
			zap.Error(err),
			zap.String("hint", "set GEMINI_API_KEY, GEMINI_API_KEY_FILE or the 'ai.gemini.api-key-file' key in the configuration file"),
		)
	}

	st, closeStore, err := store.New(ctx, config.Store)
	if err != nil {
		logger.Fatal("opening the session store", zap.Error(err), zap.String("driver", config.Store.Driver))
	}

	return &deps{
		config:     config,
		logger:     logger,
		metrics:    metrics.New(),
		client:     client,
		generator:  ai.Limit(client, config.AI.MaxConcurrency),
		store:      st,
		closeStore: closeStore,
	}
}

func newGeminiClient(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (*gemini.Client, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != gemini.ProviderName {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:    "gemini api key",
		File:    cfg.Gemini.APIKeyFile,
		FileEnv: "GEMINI_API_KEY_FILE",
		Env:     "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, err
	}

	return gemini.New(ctx, gemini.Config{
		APIKey:       apiKey,
		Model:        cfg.Gemini.Model,
		TTSModel:     cfg.Gemini.TTSModel,
		Voice:        cfg.Gemini.Voice,
		MaxRetries:   cfg.Gemini.MaxRetries,
		MaxLogLength: cfg.Gemini.MaxLogLength,
		Logger: logger.With(
			zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries),
		),
	})
}

func (d *deps) options() []interview.Option {
	return []interview.Option{
		interview.WithLogger(d.logger),
		interview.WithMetrics(d.metrics),
		interview.WithTimeout(d.config.Interview.GenerationTimeout),
		interview.WithParallel(d.config.Interview.Parallel),
		interview.WithMaxLogLength(d.config.AI.Gemini.MaxLogLength),
	}
}

func (d *deps) evaluator(sessionID string, questionIndex int) interview.Evaluator {
	opts := append(d.options(), interview.WithLogger(
		logger.WithFields(d.logger, logger.SessionFields(sessionID, questionIndex)...),
	))

	if d.config.Interview.Evaluator == "review" {
		return interview.NewReviewer(d.generator, opts...)
	}
	return interview.NewAssembler(d.generator, opts...)
}

func (d *deps) questionGenerator() *interview.QuestionGenerator {
	return interview.NewQuestionGenerator(d.generator, d.config.Interview.MaxQuestions, d.options()...)
}

// close releases the store and dumps the metrics collected during the run.
func (d *deps) close() {
	if err := d.closeStore(); err != nil {
		d.logger.Warn("closing the session store", zap.Error(err))
	}

	if err := d.metrics.WriteTextfile(d.config.MetricsFile); err != nil {
		d.logger.Warn("writing metrics", zap.Error(err))
	}

	_ = d.logger.Sync()
}

// readResume returns the resume text. Plain text is used as is, other documents are converted by the model.
func (d *deps) readResume(ctx context.Context, path string) (resume.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return resume.Profile{}, fmt.Errorf("read resume %q: %w", path, err)
	}

	text := string(data)
	if mime := mimetype.Detect(data); !isText(mime) {
		d.logger.Info("extracting resume text", zap.String("mime", mime.String()))
		text, err = d.client.ExtractText(ctx, data, mime.String())
		if err != nil {
			return resume.Profile{}, fmt.Errorf("extract text from %q: %w", path, err)
		}
	}

	profile, err := resume.Extract(text)
	if err != nil {
		return resume.Profile{}, fmt.Errorf("analyze resume %q: %w", path, err)
	}

	d.logger.Info("resume analyzed",
		zap.String("name", profile.Name),
		zap.Strings("skills", profile.Skills),
		zap.Int("experience_lines", len(profile.Experience)),
	)
	return profile, nil
}

// newSession analyzes the resume, generates questions and persists the new session.
func (d *deps) newSession(ctx context.Context, resumePath string) (*interview.Session, error) {
	profile, err := d.readResume(ctx, resumePath)
	if err != nil {
		return nil, err
	}

	questions := d.questionGenerator().Generate(ctx, profile)
	session := interview.NewSession(resumePath, profile, questions)

	if err := d.store.Save(ctx, session); err != nil {
		return nil, err
	}

	d.logger.Info("session created", logger.SessionFields(session.ID, 0)...)
	return session, nil
}

// answer evaluates a transcript for one question and appends it to the session.
func (d *deps) answer(ctx context.Context, session *interview.Session, question interview.Question, transcript ai.TranscriptResult) (interview.FeedbackRecord, error) {
	history := session.HistoryContext(d.config.Interview.HistoryLimit)
	feedback := d.evaluator(session.ID, question.Index).Evaluate(ctx, question.Text, transcript.Text, history)

	session.Record(question, transcript, feedback)
	if err := d.store.Save(ctx, session); err != nil {
		return feedback, err
	}
	return feedback, nil
}

// speak synthesizes text into audio-dir/<session>/<name>.wav and returns the file path.
func (d *deps) speak(ctx context.Context, sessionID, name, text string) (string, error) {
	blob, err := d.client.Synthesize(ctx, text)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(d.config.AudioDir, sessionID)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create audio dir: %w", err)
	}

	path := filepath.Join(dir, name+".wav")
	if err := os.WriteFile(path, blob.Data, 0o600); err != nil {
		return "", fmt.Errorf("write audio %q: %w", path, err)
	}
	return path, nil
}

func isText(mime *mimetype.MIME) bool {
	for m := mime; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}
