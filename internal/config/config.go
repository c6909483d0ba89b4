package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/docrag/internal/domain"
)

// Config holds the docrag service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Documents DocumentsConfig `yaml:"documents"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Cache     CacheConfig     `yaml:"cache"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"` // must cover a full retrieval-augmented answer
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DocumentsConfig holds document directory settings.
type DocumentsConfig struct {
	Dir            string `yaml:"dir"`
	MaxFileMB      int    `yaml:"max_file_mb"`
	Watch          bool   `yaml:"watch"`
	DebounceMs     int    `yaml:"debounce_ms"`
	IndexOnStartup bool   `yaml:"index_on_startup"`
}

// ChunkingConfig holds sentence-window chunking settings.
type ChunkingConfig struct {
	SentencesPerChunk int  `yaml:"sentences_per_chunk"`
	WindowSize        *int `yaml:"window_size"` // sentences of context on each side; 0 disables the window
	MaxSentenceRunes  int  `yaml:"max_sentence_runes"`
}

// RetrievalConfig holds retrieval and retry settings.
type RetrievalConfig struct {
	TopK         int     `yaml:"top_k"`
	Cutoff       float64 `yaml:"similarity_cutoff"`
	MaxAttempts  int     `yaml:"max_attempts"`
	RetryDelayMs int     `yaml:"retry_delay_ms"`
}

// LLMConfig holds chat completion settings. Model keys refer to the model catalog.
type LLMConfig struct {
	APIKey            string   `yaml:"api_key"`
	BaseURL           string   `yaml:"base_url"`
	Model             string   `yaml:"model"`
	FallbackModel     string   `yaml:"fallback_model"`
	Temperature       *float64 `yaml:"temperature"`
	MaxTokens         int      `yaml:"max_tokens"`
	TimeoutSec        int      `yaml:"timeout_sec"`
	EnforceRateLimits bool     `yaml:"enforce_rate_limits"`
	QuotaAction       string   `yaml:"quota_action"` // "", warn, reject: daily catalog limits
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// CacheConfig holds the optional redis embedding cache. Empty addrs disables it.
type CacheConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	KeyPrefix        string   `yaml:"key_prefix"`
	TTLHours         int      `yaml:"ttl_hours"` // 0 = no expiry
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Enabled reports whether the embedding cache is configured.
func (c CacheConfig) Enabled() bool { return len(c.Addrs) > 0 }

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory, if present, is loaded into the environment first.
func Load(env string) (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}

	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands environment references in data and decodes, defaults and validates it.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Documents.Dir == "" {
		c.Documents.Dir = "./documents"
	}
	if c.Documents.MaxFileMB <= 0 {
		c.Documents.MaxFileMB = 10
	}
	if c.Documents.DebounceMs <= 0 {
		c.Documents.DebounceMs = 2000
	}

	if c.Chunking.SentencesPerChunk <= 0 {
		c.Chunking.SentencesPerChunk = 1
	}
	if c.Chunking.WindowSize == nil || *c.Chunking.WindowSize < 0 {
		w := 2
		c.Chunking.WindowSize = &w
	}
	if c.Chunking.MaxSentenceRunes <= 0 {
		c.Chunking.MaxSentenceRunes = 1500
	}

	if c.Retrieval.TopK <= 0 {
		c.Retrieval.TopK = 5
	}
	if c.Retrieval.Cutoff == 0 {
		c.Retrieval.Cutoff = 0.6
	}
	if c.Retrieval.MaxAttempts <= 0 {
		c.Retrieval.MaxAttempts = 2
	}
	if c.Retrieval.RetryDelayMs <= 0 {
		c.Retrieval.RetryDelayMs = 500
	}

	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://api.groq.com/openai/v1"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = domain.DefaultModelKey
	}
	if c.LLM.FallbackModel == "" {
		c.LLM.FallbackModel = c.LLM.Model
	}
	if c.LLM.Temperature == nil {
		t := 0.125
		c.LLM.Temperature = &t
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = 1000
	}
	if c.LLM.TimeoutSec <= 0 {
		c.LLM.TimeoutSec = 60
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.BaseURL == "" {
		c.Embedding.BaseURL = "https://api.openai.com/v1"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 30
	}

	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "docrag:"
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Retrieval.Cutoff <= 0 || c.Retrieval.Cutoff > 1 {
		return fmt.Errorf("retrieval.similarity_cutoff must be within (0, 1], got %g", c.Retrieval.Cutoff)
	}
	if _, err := domain.LookupModel(c.LLM.Model); err != nil {
		return fmt.Errorf("llm.model: %w", err)
	}
	if _, err := domain.LookupModel(c.LLM.FallbackModel); err != nil {
		return fmt.Errorf("llm.fallback_model: %w", err)
	}
	if t := *c.LLM.Temperature; t < 0 || t > 2 {
		return fmt.Errorf("llm.temperature must be within [0, 2], got %g", t)
	}
	switch c.LLM.QuotaAction {
	case "", "warn", "reject":
	default:
		return fmt.Errorf("llm.quota_action must be warn or reject, got %q", c.LLM.QuotaAction)
	}
	if c.Embedding.Dimensions < 0 {
		return fmt.Errorf("embedding.dimensions must not be negative, got %d", c.Embedding.Dimensions)
	}
	if c.Cache.TTLHours < 0 {
		return fmt.Errorf("cache.ttl_hours must not be negative, got %d", c.Cache.TTLHours)
	}
	return nil
}

// loadDotEnv loads credentials from path without overriding variables that are already set.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
