package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/varsilias/ollama-studio/internal/apperr"
	"github.com/varsilias/ollama-studio/internal/models"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OLLAMA_API_KEY", " secret ")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Ollama.APIKey != "secret" {
		t.Fatalf("api key should be trimmed, got %q", cfg.Ollama.APIKey)
	}
	if cfg.Server.Addr != "8080" || cfg.Ollama.BaseURL != "https://ollama.com" || cfg.Ollama.Transport != TransportNative {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Ollama.RequestTimeout != 5*time.Minute || cfg.Sessions.IdleTimeout != 2*time.Hour || cfg.Sessions.ArtifactTTL != 30*time.Minute {
		t.Fatalf("unexpected durations %+v", cfg)
	}
	if cat := cfg.Catalog(); cat[models.KindImage][0] != "x/z-image-turbo" {
		t.Fatalf("unexpected default catalogue %v", cat)
	}
}

func TestLoadMissingKey(t *testing.T) {
	t.Setenv("OLLAMA_API_KEY", "   ")

	_, err := Load("")
	if !apperr.IsConfiguration(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestEchoTransportNeedsNoKey(t *testing.T) {
	t.Setenv("OLLAMA_API_KEY", "")
	t.Setenv("OLLAMA_TRANSPORT", "ECHO")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Ollama.Transport != TransportEcho {
		t.Fatalf("transport = %q", cfg.Ollama.Transport)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{Ollama: Ollama{APIKey: "k", BaseURL: "https://ollama.com", Transport: "native"}}
	}
	tests := []struct {
		name   string
		mutate func(*Config)
		key    string
	}{
		{"unknown transport", func(c *Config) { c.Ollama.Transport = "grpc" }, "OLLAMA_TRANSPORT"},
		{"relative url", func(c *Config) { c.Ollama.BaseURL = "ollama.com" }, "OLLAMA_BASE_URL"},
		{"negative timeout", func(c *Config) { c.Ollama.RequestTimeout = -time.Second }, "REQUEST_TIMEOUT"},
		{"negative budget", func(c *Config) { c.Sessions.MaxContextTokens = -1 }, "MAX_CONTEXT_TOKENS"},
		{"negative qps", func(c *Config) { c.Redis.RateLimitQPS = -5 }, "RATE_LIMIT_QPS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			ce, ok := err.(*apperr.ConfigurationError)
			if !ok || ce.Key != tt.key {
				t.Fatalf("expected configuration error for %s, got %v", tt.key, err)
			}
		})
	}
	cfg := base()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestCatalogOverrides(t *testing.T) {
	t.Setenv("OLLAMA_API_KEY", "k")
	t.Setenv("CODING_MODELS", "qwen3-coder, ,gpt-oss")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cat := cfg.Catalog()
	if got := cat[models.KindCoding]; len(got) != 2 || got[0] != "qwen3-coder" || got[1] != "gpt-oss" {
		t.Fatalf("unexpected coding models %v", got)
	}
	if len(cat[models.KindArticle]) != len(models.DefaultArticleModels) {
		t.Fatalf("article catalogue should keep defaults")
	}
}

func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		k := k
		if v, ok := os.LookupEnv(k); ok {
			os.Unsetenv(k)
			t.Cleanup(func() { os.Setenv(k, v) })
		}
	}
}

func TestLoadYAML(t *testing.T) {
	unsetEnv(t, "ADDR", "OLLAMA_API_KEY", "OLLAMA_TRANSPORT")
	path := filepath.Join(t.TempDir(), "config.yml")
	body := "server:\n  addr: \"9090\"\nollama:\n  api_key: from-file\n  transport: openai\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != "9090" || cfg.Ollama.APIKey != "from-file" || cfg.Ollama.Transport != TransportOpenAI {
		t.Fatalf("unexpected config %+v", cfg)
	}
}
