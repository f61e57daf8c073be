package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the answerhunter server.
type Config struct {
	Server ServerConfig
	Search SearchConfig
	Fetch  FetchConfig
	AI     AIConfig
	Jobs   JobsConfig
	Verify VerifyConfig
	Redis  RedisConfig
	Log    LogConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type SearchConfig struct {
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

type FetchConfig struct {
	Timeout          time.Duration
	MaxContentLength int
	UserAgent        string
}

type AIConfig struct {
	Provider          string
	InferenceTimeout  time.Duration
	DraftTemperature  float64
	RefineTemperature float64
	MaxTokens         int
	Groq              GroqConfig
	OpenAI            OpenAIConfig
	Ollama            OllamaConfig
	VLLM              VLLMConfig
	Gemini            GeminiConfig
}

type GroqConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type OllamaConfig struct {
	BaseURL string
	Model   string
}

type VLLMConfig struct {
	BaseURL string
	Model   string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

// JobsConfig sizes the worker pool and the in-memory job store.
type JobsConfig struct {
	Workers           int
	QueueSize         int
	MaxStored         int
	DefaultNumResults int
	MaxNumResults     int
}

// VerifyConfig overrides the built-in credibility and quality rules.
// Empty lists and a zero length keep the defaults.
type VerifyConfig struct {
	DenyDomains      []string
	DenyLabels       []string
	SpamPhrases      []string
	MinContentLength int
}

// RedisConfig is optional. An empty URL disables the shared cache.
type RedisConfig struct {
	URL string
}

type LogConfig struct {
	Level  slog.Level
	Format string
}

var validProviders = map[string]bool{
	"groq":   true,
	"openai": true,
	"ollama": true,
	"vllm":   true,
	"gemini": true,
}

// Load reads configuration from an optional .env file and environment variables and
// returns a validated Config. Variables already present in the environment win over
// the file. Returns an error naming the offending variable if any value is missing or invalid.
func Load() (*Config, error) {
	if err := loadEnvFile(envString("ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("ANSWERHUNTER_PORT", 8000),
			Env:  envString("ANSWERHUNTER_ENV", "development"),
		},
		Search: SearchConfig{
			APIKey:   os.Getenv("SERPER_API_KEY"),
			BaseURL:  envString("SERPER_BASE_URL", "https://google.serper.dev"),
			Timeout:  envDuration("SEARCH_TIMEOUT", 15*time.Second),
			CacheTTL: envDuration("SEARCH_CACHE_TTL", 10*time.Minute),
		},
		Fetch: FetchConfig{
			Timeout:          envDuration("FETCH_TIMEOUT", 10*time.Second),
			MaxContentLength: envInt("FETCH_MAX_CONTENT_LENGTH", 4000),
			UserAgent:        envString("FETCH_USER_AGENT", "AnswerHunter/1.0 (+https://github.com/kiranshivaraju/answerhunter)"),
		},
		AI: AIConfig{
			Provider:          envString("AI_PROVIDER", "groq"),
			InferenceTimeout:  envDurationSecs("AI_INFERENCE_TIMEOUT_SECS", 60*time.Second),
			DraftTemperature:  envFloat("AI_DRAFT_TEMPERATURE", 0.3),
			RefineTemperature: envFloat("AI_REFINE_TEMPERATURE", 0.1),
			MaxTokens:         envInt("AI_MAX_TOKENS", 2000),
			Groq: GroqConfig{
				APIKey:  os.Getenv("GROQ_API_KEY"),
				BaseURL: envString("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
				Model:   envString("GROQ_MODEL", "llama-3.3-70b-versatile"),
			},
			OpenAI: OpenAIConfig{
				APIKey:  os.Getenv("OPENAI_API_KEY"),
				BaseURL: envString("OPENAI_BASE_URL", "https://api.openai.com/v1"),
				Model:   envString("OPENAI_MODEL", "gpt-4o-mini"),
			},
			Ollama: OllamaConfig{
				BaseURL: envString("OLLAMA_BASE_URL", "http://localhost:11434/v1"),
				Model:   envString("OLLAMA_MODEL", "llama3"),
			},
			VLLM: VLLMConfig{
				BaseURL: envString("VLLM_BASE_URL", "http://localhost:8001/v1"),
				Model:   envString("VLLM_MODEL", ""),
			},
			Gemini: GeminiConfig{
				APIKey: os.Getenv("GEMINI_API_KEY"),
				Model:  envString("GEMINI_MODEL", "gemini-2.0-flash"),
			},
		},
		Jobs: JobsConfig{
			Workers:           envInt("JOBS_WORKERS", 8),
			QueueSize:         envInt("JOBS_QUEUE_SIZE", 256),
			MaxStored:         envInt("JOBS_MAX_STORED", 10000),
			DefaultNumResults: envInt("JOBS_DEFAULT_NUM_RESULTS", 3),
			MaxNumResults:     envInt("JOBS_MAX_NUM_RESULTS", 10),
		},
		Verify: VerifyConfig{
			DenyDomains:      envList("VERIFY_DENY_DOMAINS"),
			DenyLabels:       envList("VERIFY_DENY_LABELS"),
			SpamPhrases:      envList("VERIFY_SPAM_PHRASES"),
			MinContentLength: envInt("VERIFY_MIN_CONTENT_LENGTH", 0),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Log: LogConfig{
			Level:  envLevel("LOG_LEVEL", slog.LevelInfo),
			Format: envString("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// CredentialsConfigured reports whether the search key and the key required by the
// selected language-model provider are both present. Local providers need no key.
func (c *Config) CredentialsConfigured() bool {
	if c.Search.APIKey == "" {
		return false
	}
	switch c.AI.Provider {
	case "groq":
		return c.AI.Groq.APIKey != ""
	case "openai":
		return c.AI.OpenAI.APIKey != ""
	case "gemini":
		return c.AI.Gemini.APIKey != ""
	default:
		return true
	}
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("ANSWERHUNTER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Search.APIKey == "" {
		return fmt.Errorf("SERPER_API_KEY is required")
	}
	if !isHTTPURL(c.Search.BaseURL) {
		return fmt.Errorf("SERPER_BASE_URL must start with http:// or https://, got %q", c.Search.BaseURL)
	}

	if c.Fetch.MaxContentLength <= 0 {
		return fmt.Errorf("FETCH_MAX_CONTENT_LENGTH must be positive, got %d", c.Fetch.MaxContentLength)
	}

	if !validProviders[c.AI.Provider] {
		return fmt.Errorf("AI_PROVIDER must be one of groq, openai, ollama, vllm, gemini; got %q", c.AI.Provider)
	}
	if c.AI.Provider == "groq" && c.AI.Groq.APIKey == "" {
		return fmt.Errorf("GROQ_API_KEY is required when AI_PROVIDER is groq")
	}
	if c.AI.Provider == "openai" && c.AI.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when AI_PROVIDER is openai")
	}
	if c.AI.Provider == "gemini" && c.AI.Gemini.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required when AI_PROVIDER is gemini")
	}
	if c.AI.Provider == "vllm" && c.AI.VLLM.Model == "" {
		return fmt.Errorf("VLLM_MODEL is required when AI_PROVIDER is vllm")
	}
	if c.AI.MaxTokens <= 0 {
		return fmt.Errorf("AI_MAX_TOKENS must be positive, got %d", c.AI.MaxTokens)
	}

	if c.Jobs.Workers < 1 {
		return fmt.Errorf("JOBS_WORKERS must be at least 1, got %d", c.Jobs.Workers)
	}
	if c.Jobs.QueueSize < 1 {
		return fmt.Errorf("JOBS_QUEUE_SIZE must be at least 1, got %d", c.Jobs.QueueSize)
	}
	if c.Jobs.MaxStored < 1 {
		return fmt.Errorf("JOBS_MAX_STORED must be at least 1, got %d", c.Jobs.MaxStored)
	}
	if c.Jobs.MaxNumResults < 1 {
		return fmt.Errorf("JOBS_MAX_NUM_RESULTS must be at least 1, got %d", c.Jobs.MaxNumResults)
	}
	if c.Jobs.DefaultNumResults < 1 || c.Jobs.DefaultNumResults > c.Jobs.MaxNumResults {
		return fmt.Errorf("JOBS_DEFAULT_NUM_RESULTS must be between 1 and %d, got %d",
			c.Jobs.MaxNumResults, c.Jobs.DefaultNumResults)
	}

	if c.Redis.URL != "" &&
		!strings.HasPrefix(c.Redis.URL, "redis://") && !strings.HasPrefix(c.Redis.URL, "rediss://") {
		return fmt.Errorf("REDIS_URL must start with redis:// or rediss://, got %q", c.Redis.URL)
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.Log.Format)
	}

	return nil
}

// loadEnvFile populates the environment from path. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}

// envList splits a comma-separated variable, dropping blanks. Unset returns nil.
func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func envLevel(key string, defaultVal slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v)); err != nil {
		return defaultVal
	}
	return lvl
}
