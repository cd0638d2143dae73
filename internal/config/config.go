package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	BackendFlowise = "flowise"
	BackendOpenAI  = "openai"
)

type Config struct {
	TelegramToken   string
	TelegramAPIBase string
	SendTimeout     time.Duration

	BackendKind    string
	FlowiseURL     string
	FlowiseAPIKey  string
	RequestTimeout time.Duration

	OpenAIKey   string
	OpenAIModel string

	AllowedUserIDs []string
	MinInterval    time.Duration
	StaleAfter     time.Duration
	SweepInterval  time.Duration

	HistoryCap  int
	ContextSize int

	Bind string
	Port int
}

// SetDefaults registers every config key with its default so AutomaticEnv
// picks them up even when no config file is present.
func SetDefaults() {
	viper.SetDefault("telegram.api_base", "https://api.telegram.org")
	viper.SetDefault("telegram.send_timeout_seconds", 30)
	viper.SetDefault("backend.kind", BackendFlowise)
	viper.SetDefault("flowise.timeout_seconds", 60)
	viper.SetDefault("openai.model", "gpt-4o-mini")
	viper.SetDefault("rate.min_interval_ms", 1500)
	viper.SetDefault("rate.stale_after_minutes", 60)
	viper.SetDefault("rate.sweep_interval_minutes", 10)
	viper.SetDefault("history.cap", 16)
	viper.SetDefault("history.context", 8)
	viper.SetDefault("server.bind", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
}

// Load builds a Config from the current viper state and validates the parts
// the selected backend needs.
func Load() (Config, error) {
	cfg := Config{
		TelegramToken:   strings.TrimSpace(viper.GetString("telegram.token")),
		TelegramAPIBase: strings.TrimSpace(viper.GetString("telegram.api_base")),
		SendTimeout:     time.Duration(viper.GetInt("telegram.send_timeout_seconds")) * time.Second,
		BackendKind:     strings.ToLower(strings.TrimSpace(viper.GetString("backend.kind"))),
		FlowiseURL:      strings.TrimSpace(viper.GetString("flowise.url")),
		FlowiseAPIKey:   strings.TrimSpace(viper.GetString("flowise.api_key")),
		RequestTimeout:  time.Duration(viper.GetInt("flowise.timeout_seconds")) * time.Second,
		OpenAIKey:       strings.TrimSpace(viper.GetString("openai.api_key")),
		OpenAIModel:     strings.TrimSpace(viper.GetString("openai.model")),
		AllowedUserIDs:  splitList(viper.GetString("allowed_user_ids")),
		MinInterval:     time.Duration(viper.GetInt("rate.min_interval_ms")) * time.Millisecond,
		StaleAfter:      time.Duration(viper.GetInt("rate.stale_after_minutes")) * time.Minute,
		SweepInterval:   time.Duration(viper.GetInt("rate.sweep_interval_minutes")) * time.Minute,
		HistoryCap:      viper.GetInt("history.cap"),
		ContextSize:     viper.GetInt("history.context"),
		Bind:            strings.TrimSpace(viper.GetString("server.bind")),
		Port:            viper.GetInt("server.port"),
	}

	if cfg.TelegramToken == "" {
		return cfg, errors.New("telegram token is required (BRIDGE_TELEGRAM_TOKEN)")
	}

	switch cfg.BackendKind {
	case BackendFlowise:
		if cfg.FlowiseURL == "" {
			return cfg, errors.New("flowise url is required (BRIDGE_FLOWISE_URL)")
		}
	case BackendOpenAI:
		if cfg.OpenAIKey == "" {
			return cfg, errors.New("openai api key is required (BRIDGE_OPENAI_API_KEY)")
		}
	default:
		return cfg, errors.New("backend.kind must be flowise or openai")
	}

	return cfg, nil
}

func splitList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		ids = append(ids, p)
	}
	return ids
}
