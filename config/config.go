// Package config provides configuration management for the gateway.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingCredential is returned when the model backend API key is not set.
var ErrMissingCredential = errors.New("OPENROUTER_API_KEY not set")

// Config holds all application configuration. It is read once at startup.
type Config struct {
	APIKey         string `mapstructure:"openrouter_api_key"`
	ModelBaseURL   string `mapstructure:"openrouter_base_url"`
	Model          string `mapstructure:"model_name"`
	ModelReasoning bool   `mapstructure:"model_reasoning"`

	GatewayURL          string `mapstructure:"api_gateway_url"`
	GatewayToken        string `mapstructure:"gateway_token"`
	GatewayClientID     string `mapstructure:"gateway_client_id"`
	GatewayClientSecret string `mapstructure:"gateway_client_secret"`
	GatewayTokenURL     string `mapstructure:"gateway_token_url"`

	ListenAddr     string `mapstructure:"listen_addr"`
	MaxConnections int    `mapstructure:"max_connections"`
	LogLevel       string `mapstructure:"log_level"`

	TelegramToken string `mapstructure:"telegram_bot_token"`
}

var defaults = map[string]any{
	"openrouter_api_key":    "",
	"openrouter_base_url":   "https://openrouter.ai/api/v1",
	"model_name":            "openai/gpt-oss-120b:free",
	"model_reasoning":       true,
	"api_gateway_url":       "http://localhost:3001",
	"gateway_token":         "",
	"gateway_client_id":     "",
	"gateway_client_secret": "",
	"gateway_token_url":     "",
	"listen_addr":           ":8000",
	"max_connections":       256,
	"log_level":             "info",
	"telegram_bot_token":    "",
}

// Load reads configuration from an optional .env file and the environment.
// Variables already set in the environment win over the .env file.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

// Validate reports configuration that prevents startup.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingCredential
	}
	if c.GatewayURL == "" {
		return errors.New("API_GATEWAY_URL must not be empty")
	}
	if c.GatewayClientID != "" && c.GatewayTokenURL == "" {
		return errors.New("GATEWAY_TOKEN_URL is required when GATEWAY_CLIENT_ID is set")
	}
	if c.MaxConnections < 0 {
		return fmt.Errorf("MAX_CONNECTIONS must not be negative, got %d", c.MaxConnections)
	}
	return nil
}
