// Package config loads application configuration from environment variables.
// All variables use the COURSEFORGE_ prefix.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Env         string
	Server      ServerConfig
	Database    DatabaseConfig
	Cache       CacheConfig
	AI          AIConfig
	Telegram    TelegramConfig
	Quota       QuotaConfig
	Log         LogConfig
	PromptsPath string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int
	Host           string
	AllowedOrigins []string
	// TrustedProxies is the number of reverse proxies that append to
	// X-Forwarded-For. Zero keys quota by socket address.
	TrustedProxies int
}

// DatabaseConfig holds PostgreSQL connection settings. An empty URL selects
// the in-memory store.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// CacheConfig holds Dragonfly/Redis connection settings. An empty URL
// disables the shared quota and the response cache.
type CacheConfig struct {
	URL         string
	ResponseTTL time.Duration
}

// AIConfig holds configuration for all AI providers.
type AIConfig struct {
	OpenAI     OpenAIConfig
	Anthropic  AnthropicConfig
	DeepSeek   DeepSeekConfig
	OpenRouter OpenRouterConfig
}

// OpenAIConfig holds OpenAI provider settings.
type OpenAIConfig struct {
	APIKey string
	Model  string
}

// AnthropicConfig holds Anthropic provider settings.
type AnthropicConfig struct {
	APIKey string
	Model  string
}

// DeepSeekConfig holds DeepSeek provider settings (OpenAI-compatible).
type DeepSeekConfig struct {
	APIKey string
	Model  string
}

// OpenRouterConfig holds OpenRouter provider settings.
type OpenRouterConfig struct {
	APIKey  string
	Model   string
	SiteURL string
}

// TelegramConfig holds the bot used for lead notifications. Notifications are
// off unless both fields are set.
type TelegramConfig struct {
	BotToken string
	ChatID   string
}

// Enabled reports whether lead notifications are configured.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// QuotaConfig limits generations per client.
type QuotaConfig struct {
	Limit  int
	Window time.Duration
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level     string
	Format    string
	AddSource bool
}

// Load reads configuration from environment variables with COURSEFORGE_ prefix.
func Load() (*Config, error) {
	cfg := &Config{
		Env: envStr("COURSEFORGE_ENV", ""),
		Server: ServerConfig{
			Port:           envInt("COURSEFORGE_SERVER_PORT", 8080),
			Host:           envStr("COURSEFORGE_SERVER_HOST", "0.0.0.0"),
			AllowedOrigins: envList("COURSEFORGE_ALLOWED_ORIGINS"),
			TrustedProxies: envInt("COURSEFORGE_TRUSTED_PROXIES", 0),
		},
		Database: DatabaseConfig{
			URL:      envStr("COURSEFORGE_DATABASE_URL", ""),
			MaxConns: envInt("COURSEFORGE_DATABASE_MAX_CONNS", 10),
			MinConns: envInt("COURSEFORGE_DATABASE_MIN_CONNS", 1),
		},
		Cache: CacheConfig{
			URL:         envStr("COURSEFORGE_CACHE_URL", ""),
			ResponseTTL: envDuration("COURSEFORGE_CACHE_RESPONSE_TTL", 24*time.Hour),
		},
		AI: AIConfig{
			OpenAI: OpenAIConfig{
				APIKey: envStr("COURSEFORGE_AI_OPENAI_API_KEY", ""),
				Model:  envStr("COURSEFORGE_AI_OPENAI_MODEL", ""),
			},
			Anthropic: AnthropicConfig{
				APIKey: envStr("COURSEFORGE_AI_ANTHROPIC_API_KEY", ""),
				Model:  envStr("COURSEFORGE_AI_ANTHROPIC_MODEL", ""),
			},
			DeepSeek: DeepSeekConfig{
				APIKey: envStr("COURSEFORGE_AI_DEEPSEEK_API_KEY", ""),
				Model:  envStr("COURSEFORGE_AI_DEEPSEEK_MODEL", ""),
			},
			OpenRouter: OpenRouterConfig{
				APIKey:  envStr("COURSEFORGE_AI_OPENROUTER_API_KEY", ""),
				Model:   envStr("COURSEFORGE_AI_OPENROUTER_MODEL", ""),
				SiteURL: envStr("COURSEFORGE_AI_OPENROUTER_SITE_URL", ""),
			},
		},
		Telegram: TelegramConfig{
			BotToken: envStr("COURSEFORGE_TELEGRAM_BOT_TOKEN", ""),
			ChatID:   envStr("COURSEFORGE_TELEGRAM_CHAT_ID", ""),
		},
		Quota: QuotaConfig{
			Limit:  envInt("COURSEFORGE_QUOTA_LIMIT", 5),
			Window: envDuration("COURSEFORGE_QUOTA_WINDOW", 24*time.Hour),
		},
		Log: LogConfig{
			Level:     envStr("COURSEFORGE_LOG_LEVEL", "info"),
			Format:    envStr("COURSEFORGE_LOG_FORMAT", "json"),
			AddSource: envBool("COURSEFORGE_LOG_SOURCE", false),
		},
		PromptsPath: envStr("COURSEFORGE_PROMPTS_PATH", ""),
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if !c.HasAIProvider() {
		return fmt.Errorf("at least one AI provider must be configured")
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("COURSEFORGE_LOG_FORMAT must be 'json' or 'text', got %q", c.Log.Format)
	}

	if c.Server.TrustedProxies < 0 {
		return fmt.Errorf("COURSEFORGE_TRUSTED_PROXIES must not be negative, got %d", c.Server.TrustedProxies)
	}

	if c.Quota.Window <= 0 {
		return fmt.Errorf("COURSEFORGE_QUOTA_WINDOW must be positive, got %s", c.Quota.Window)
	}

	return nil
}

// HasAIProvider returns true if at least one AI provider is configured.
func (c *Config) HasAIProvider() bool {
	return c.AI.OpenAI.APIKey != "" ||
		c.AI.Anthropic.APIKey != "" ||
		c.AI.DeepSeek.APIKey != "" ||
		c.AI.OpenRouter.APIKey != ""
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
