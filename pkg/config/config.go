package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ModeInteractive = "interactive"
	ModeFixed       = "fixed"

	ProfileRandom     = "random"
	ProfileSelect     = "select"
	ProfileSimplified = "simplified"

	SimilarityEmbedding = "embedding"
	SimilarityLexical   = "lexical"
)

type Config struct {
	Tutor      LLMConfig
	Student    LLMConfig
	Judge      LLMConfig
	Similarity SimilarityConfig
	Session    SessionConfig
	Scenario   ScenarioConfig
	Output     OutputConfig
	Redis      RedisConfig
	Metrics    MetricsConfig
	Logging    LoggingConfig
}

type LLMConfig struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	MaxTokens   int
	TimeoutSec  int
}

type SimilarityConfig struct {
	Backend        string
	EmbeddingModel string
	Language       string
}

type SessionConfig struct {
	Mode              string
	Rounds            int
	CountSummaryRound bool
	Profile           string
	KnowledgeLevel    string
	EngagementStyle   string
	Seed              int64
}

type ScenarioConfig struct {
	Path string
}

type OutputConfig struct {
	CSVPath string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTLHours int
}

type MetricsConfig struct {
	TextfilePath string
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

// Load reads configuration from an optional YAML file, .env files and the
// process environment. An empty path searches the default locations.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("tutorsim")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.tutorsim")
	}

	v.SetEnvPrefix("TUTORSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindProviderKeys(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks enumerated settings. Provider API keys are deliberately not
// checked here; a missing key surfaces on the first remote call.
func (c *Config) Validate() error {
	switch c.Session.Mode {
	case ModeInteractive:
	case ModeFixed:
		if c.Session.Rounds <= 0 {
			return fmt.Errorf("session.rounds must be > 0 in fixed mode, got %d", c.Session.Rounds)
		}
	default:
		return fmt.Errorf("unknown session.mode %q", c.Session.Mode)
	}

	switch c.Session.Profile {
	case ProfileRandom, ProfileSelect:
	case ProfileSimplified:
		if c.Session.KnowledgeLevel == "" || c.Session.EngagementStyle == "" {
			return fmt.Errorf("session.knowledgeLevel and session.engagementStyle are required for profile %q", c.Session.Profile)
		}
	default:
		return fmt.Errorf("unknown session.profile %q", c.Session.Profile)
	}

	switch c.Similarity.Backend {
	case SimilarityEmbedding, SimilarityLexical:
	default:
		return fmt.Errorf("unknown similarity.backend %q", c.Similarity.Backend)
	}

	for name, llm := range map[string]LLMConfig{"tutor": c.Tutor, "student": c.Student, "judge": c.Judge} {
		if llm.Model == "" {
			return fmt.Errorf("%s.model cannot be empty", name)
		}
		if llm.MaxTokens <= 0 {
			return fmt.Errorf("%s.maxTokens must be > 0", name)
		}
	}

	if c.Output.CSVPath == "" {
		return fmt.Errorf("output.csvPath cannot be empty")
	}

	return nil
}

func bindProviderKeys(v *viper.Viper) error {
	bindings := map[string][]string{
		"tutor.apiKey":   {"TUTORSIM_TUTOR_APIKEY", "OPENAI_API_KEY"},
		"judge.apiKey":   {"TUTORSIM_JUDGE_APIKEY", "OPENAI_API_KEY"},
		"student.apiKey": {"TUTORSIM_STUDENT_APIKEY", "ANTHROPIC_API_KEY"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("tutor.provider", "openai")
	v.SetDefault("tutor.model", "gpt-4-turbo")
	v.SetDefault("tutor.baseURL", "")
	v.SetDefault("tutor.temperature", 0)
	v.SetDefault("tutor.maxTokens", 1000)
	v.SetDefault("tutor.timeoutSec", 0)

	v.SetDefault("student.provider", "anthropic")
	v.SetDefault("student.model", "claude-3-5-sonnet-20241022")
	v.SetDefault("student.baseURL", "https://api.anthropic.com/v1/")
	v.SetDefault("student.temperature", 0)
	v.SetDefault("student.maxTokens", 1000)
	v.SetDefault("student.timeoutSec", 0)

	v.SetDefault("judge.provider", "openai")
	v.SetDefault("judge.model", "gpt-4-turbo")
	v.SetDefault("judge.baseURL", "")
	v.SetDefault("judge.temperature", 0)
	v.SetDefault("judge.maxTokens", 1000)
	v.SetDefault("judge.timeoutSec", 0)

	v.SetDefault("similarity.backend", SimilarityEmbedding)
	v.SetDefault("similarity.embeddingModel", "text-embedding-3-large")
	v.SetDefault("similarity.language", "en")

	v.SetDefault("session.mode", ModeInteractive)
	v.SetDefault("session.rounds", 0)
	v.SetDefault("session.countSummaryRound", false)
	v.SetDefault("session.profile", ProfileRandom)
	v.SetDefault("session.knowledgeLevel", "")
	v.SetDefault("session.engagementStyle", "")
	v.SetDefault("session.seed", 0)

	v.SetDefault("scenario.path", "")

	v.SetDefault("output.csvPath", "./data/student_tutor_sim.csv")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttlHours", 24*30)

	v.SetDefault("metrics.textfilePath", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.outputPath", "stderr")
}
