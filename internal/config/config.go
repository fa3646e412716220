package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all runtime settings of the fact-check service
type Config struct {
	AppName        string `mapstructure:"app_name"`
	AppVersion     string `mapstructure:"app_version"`
	Debug          bool   `mapstructure:"debug"`
	LogLevel       string `mapstructure:"log_level"`
	Port           string `mapstructure:"port"`
	AllowedOrigins string `mapstructure:"allowed_origins"`

	// Generative model
	LLMProvider  string        `mapstructure:"llm_provider"` // gemini, openai, ollama
	GeminiAPIKey string        `mapstructure:"gemini_api_key"`
	GeminiModel  string        `mapstructure:"gemini_model"`
	VisionModel  string        `mapstructure:"vision_model"`
	LLMBaseURL   string        `mapstructure:"llm_base_url"`
	OllamaURL    string        `mapstructure:"ollama_url"`
	OllamaModel  string        `mapstructure:"ollama_model"`
	LLMTimeout   time.Duration `mapstructure:"llm_timeout"`

	// Search providers
	GoogleSearchAPIKey   string  `mapstructure:"google_search_api_key"`
	GoogleSearchEngineID string  `mapstructure:"google_search_engine_id"`
	NewsAPIKey           string  `mapstructure:"news_api_key"`
	FactCheckAPIKey      string  `mapstructure:"google_factcheck_api_key"`
	SearchRatePerSecond  float64 `mapstructure:"search_rate_per_second"`

	// Media and uploads
	ScratchDir    string `mapstructure:"scratch_dir"`
	MaxUploadSize int64  `mapstructure:"max_upload_size"`
	MaxBatchFiles int    `mapstructure:"max_batch_files"`

	// Telemetry
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

var keys = []string{
	"app_name", "app_version", "debug", "log_level", "port", "allowed_origins",
	"llm_provider", "gemini_api_key", "gemini_model", "vision_model", "llm_base_url",
	"ollama_url", "ollama_model", "llm_timeout",
	"google_search_api_key", "google_search_engine_id", "news_api_key",
	"google_factcheck_api_key", "search_rate_per_second",
	"scratch_dir", "max_upload_size", "max_batch_files", "otlp_endpoint",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "FactCheck Backend API")
	v.SetDefault("app_version", "1.0.0")
	v.SetDefault("debug", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("port", "8000")
	v.SetDefault("allowed_origins", "http://localhost:4200,http://localhost:3000")
	v.SetDefault("llm_provider", "gemini")
	v.SetDefault("gemini_model", "gemini-2.0-flash-exp")
	v.SetDefault("vision_model", "gemini-2.0-flash-exp")
	v.SetDefault("llm_base_url", "https://generativelanguage.googleapis.com/v1beta/openai/")
	v.SetDefault("ollama_url", "http://localhost:11434")
	v.SetDefault("ollama_model", "gpt-oss:20b")
	v.SetDefault("llm_timeout", 120*time.Second)
	v.SetDefault("search_rate_per_second", 5.0)
	v.SetDefault("scratch_dir", os.TempDir())
	v.SetDefault("max_upload_size", int64(50*1024*1024))
	v.SetDefault("max_batch_files", 10)
}

// Load reads configuration from an optional .env file, an optional config file
// and the environment, in increasing order of precedence
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	// Flat environment names such as GEMINI_API_KEY or PORT
	for _, key := range keys {
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that would make the service unusable
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case "gemini", "openai", "ollama":
	default:
		return fmt.Errorf("llm_provider must be gemini, openai or ollama, got %q", c.LLMProvider)
	}
	if strings.TrimSpace(c.Port) == "" {
		return fmt.Errorf("port is required")
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("max_upload_size must be > 0")
	}
	if c.MaxBatchFiles <= 0 {
		return fmt.Errorf("max_batch_files must be > 0")
	}
	if c.SearchRatePerSecond <= 0 {
		return fmt.Errorf("search_rate_per_second must be > 0")
	}
	return nil
}

// AllowedOriginsList splits the comma separated CORS origins
func (c *Config) AllowedOriginsList() []string {
	var origins []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// GoogleSearchEnabled reports whether both Custom Search credentials are set
func (c *Config) GoogleSearchEnabled() bool {
	return c.GoogleSearchAPIKey != "" && c.GoogleSearchEngineID != ""
}

// SlogLevel maps LogLevel to a slog level, defaulting to info
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
