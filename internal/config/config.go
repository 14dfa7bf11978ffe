// Package config loads console settings from an optional YAML file, a .env
// file and the process environment, in that order of precedence (lowest first).
package config

import (
	"errors"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/varsilias/ollama-studio/internal/apperr"
	"github.com/varsilias/ollama-studio/internal/models"
)

const (
	TransportNative = "native"
	TransportOpenAI = "openai"
	TransportEcho   = "echo"
)

type Server struct {
	Addr     string `yaml:"addr" env:"ADDR" env-default:"8080"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogJSON  bool   `yaml:"log_json" env:"LOG_JSON" env-default:"false"`
}

type Ollama struct {
	APIKey         string        `yaml:"api_key" env:"OLLAMA_API_KEY"`
	BaseURL        string        `yaml:"base_url" env:"OLLAMA_BASE_URL" env-default:"https://ollama.com"`
	Transport      string        `yaml:"transport" env:"OLLAMA_TRANSPORT" env-default:"native"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT" env-default:"5m"`
	Wait           bool          `yaml:"wait" env:"OLLAMA_WAIT" env-default:"false"`
	WaitTimeout    time.Duration `yaml:"wait_timeout" env:"OLLAMA_WAIT_TIMEOUT" env-default:"30s"`
	WaitInterval   time.Duration `yaml:"wait_interval" env:"OLLAMA_WAIT_INTERVAL" env-default:"2s"`
}

type Models struct {
	Article   []string `yaml:"article" env:"ARTICLE_MODELS" env-separator:","`
	Image     []string `yaml:"image" env:"IMAGE_MODELS" env-separator:","`
	Coding    []string `yaml:"coding" env:"CODING_MODELS" env-separator:","`
	Recommend []string `yaml:"recommend" env:"RECOMMEND_MODELS" env-separator:","`
	Verify    bool     `yaml:"verify" env:"VERIFY_MODELS" env-default:"false"`
}

type Sessions struct {
	IdleTimeout      time.Duration `yaml:"idle_timeout" env:"SESSION_IDLE_TIMEOUT" env-default:"2h"`
	MaxContextTokens int           `yaml:"max_context_tokens" env:"MAX_CONTEXT_TOKENS" env-default:"0"`
	ArtifactTTL      time.Duration `yaml:"artifact_ttl" env:"ARTIFACT_TTL" env-default:"30m"`
}

type Redis struct {
	Addr         string `yaml:"addr" env:"REDIS_ADDR"`
	Password     string `yaml:"password" env:"REDIS_PASSWORD"`
	DB           int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
	RateLimitQPS int    `yaml:"rate_limit_qps" env:"RATE_LIMIT_QPS" env-default:"0"`
}

type Config struct {
	Server   Server   `yaml:"server"`
	Ollama   Ollama   `yaml:"ollama"`
	Models   Models   `yaml:"models"`
	Sessions Sessions `yaml:"sessions"`
	Redis    Redis    `yaml:"redis"`
}

// Load reads cfgPath (optional), then .env, then the environment, and
// validates the result. Any problem is reported as a ConfigurationError.
func Load(cfgPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, &apperr.ConfigurationError{Key: ".env", Reason: err.Error()}
	}
	var cfg Config
	if cfgPath != "" {
		if err := cleanenv.ReadConfig(cfgPath, &cfg); err != nil {
			return nil, &apperr.ConfigurationError{Key: cfgPath, Reason: err.Error()}
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, &apperr.ConfigurationError{Key: "env", Reason: err.Error()}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	c.Ollama.APIKey = strings.TrimSpace(c.Ollama.APIKey)
	c.Ollama.Transport = strings.ToLower(strings.TrimSpace(c.Ollama.Transport))

	switch c.Ollama.Transport {
	case TransportNative, TransportOpenAI:
		if c.Ollama.APIKey == "" {
			return &apperr.ConfigurationError{Key: "OLLAMA_API_KEY", Reason: "not set"}
		}
	case TransportEcho:
	default:
		return &apperr.ConfigurationError{Key: "OLLAMA_TRANSPORT", Reason: "must be native, openai or echo"}
	}
	u, err := url.Parse(c.Ollama.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &apperr.ConfigurationError{Key: "OLLAMA_BASE_URL", Reason: "not an absolute URL"}
	}
	if c.Ollama.RequestTimeout < 0 {
		return &apperr.ConfigurationError{Key: "REQUEST_TIMEOUT", Reason: "must not be negative"}
	}
	if c.Sessions.MaxContextTokens < 0 {
		return &apperr.ConfigurationError{Key: "MAX_CONTEXT_TOKENS", Reason: "must not be negative"}
	}
	if c.Redis.RateLimitQPS < 0 {
		return &apperr.ConfigurationError{Key: "RATE_LIMIT_QPS", Reason: "must not be negative"}
	}
	return nil
}

// Catalog returns the model catalogue, falling back to the defaults for any
// feature left unset.
func (c *Config) Catalog() models.Catalog {
	cat := models.DefaultCatalog()
	for kind, items := range map[models.Kind][]string{
		models.KindArticle:   c.Models.Article,
		models.KindImage:     c.Models.Image,
		models.KindCoding:    c.Models.Coding,
		models.KindRecommend: c.Models.Recommend,
	} {
		if clean := compact(items); len(clean) > 0 {
			cat[kind] = clean
		}
	}
	return cat
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}
