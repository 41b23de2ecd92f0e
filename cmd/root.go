package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/interview-coach/internal/store"
)

const (
	app = "interview-coach"
)

type Config struct {
	Interview   *InterviewConfig `mapstructure:"interview" validate:"required"`
	AI          *AIConfig        `mapstructure:"ai" validate:"required"`
	Store       store.Config     `mapstructure:"store"`
	AudioDir    string           `mapstructure:"audio-dir"`
	MetricsFile string           `mapstructure:"metrics-file"`
}

type InterviewConfig struct {
	MaxQuestions      int           `mapstructure:"max-questions" validate:"gte=0,lte=5"`
	Evaluator         string        `mapstructure:"evaluator" validate:"oneof=feedback review"`
	Parallel          bool          `mapstructure:"parallel"`
	HistoryLimit      int           `mapstructure:"history-limit" validate:"gte=0"`
	GenerationTimeout time.Duration `mapstructure:"generation-timeout" validate:"gte=0"`
}

type AIConfig struct {
	Provider       string        `mapstructure:"provider" validate:"oneof=gemini"`
	MaxConcurrency int64         `mapstructure:"max-concurrency" validate:"gte=0"`
	Gemini         *GeminiConfig `mapstructure:"gemini" validate:"required"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	TTSModel     string `mapstructure:"tts-model"`
	Voice        string `mapstructure:"voice"`
	MaxRetries   int    `mapstructure:"max-retries" validate:"gte=0"`
	MaxLogLength int    `mapstructure:"max-log-length" validate:"gte=0"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "interview-coach runs mock technical interviews built from your resume",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is interview-coach.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("interview.max-questions", 5)
	v.SetDefault("interview.evaluator", "feedback")
	v.SetDefault("interview.parallel", true)
	v.SetDefault("interview.history-limit", 3)
	v.SetDefault("interview.generation-timeout", time.Minute)

	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.max-concurrency", 1)
	v.SetDefault("ai.gemini.max-retries", 3)
	v.SetDefault("ai.gemini.max-log-length", 200)

	v.SetDefault("store.driver", store.DriverFile)
	v.SetDefault("store.dir", "sessions")
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.ttl", 7*24*time.Hour)

	v.SetDefault("audio-dir", "audio")
}

func initConfig() {
	// version does not need any configuration
	if versionCmd.CalledAs() != "" {
		return
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env file: %v", err)
	}

	viper.SetEnvPrefix("INTERVIEW_COACH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Without an explicit config file the defaults are enough.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if config == nil {
		return nil, errors.New("config is empty")
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return config, nil
}
