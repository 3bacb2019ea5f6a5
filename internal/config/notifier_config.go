package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type NotifierConfig struct {
	TelegramToken string `mapstructure:"telegram_token"`
	ChatID        int64  `mapstructure:"chat_id"`
}

func (config NotifierConfig) Enabled() bool {
	return config.TelegramToken != ""
}

func (config NotifierConfig) validate() error {
	if config.Enabled() && config.ChatID == 0 {
		return fmt.Errorf("missing variable: chat_id is required when telegram_token is set")
	}
	return nil
}

func (config NotifierConfig) bindEnvironmentVariables(v *viper.Viper) error {
	return bindEnv(v, map[string]string{
		"notifier.telegram_token": "TG_TOKEN",
		"notifier.chat_id":        "TG_CHAT_ID",
	})
}

type AIConfig struct {
	Key                  string  `mapstructure:"key"`
	Model                string  `mapstructure:"model"`
	MaxRequestsPerMinute float32 `mapstructure:"max_requests_per_minute"`
}

func (config AIConfig) Enabled() bool {
	return config.Key != ""
}

func (config AIConfig) validate() error {
	if config.Enabled() && config.MaxRequestsPerMinute <= 0 {
		return fmt.Errorf("max_requests_per_minute must be positive")
	}
	return nil
}

func (config AIConfig) bindEnvironmentVariables(v *viper.Viper) error {
	return bindEnv(v, map[string]string{
		"ai.key":   "AI_KEY",
		"ai.model": "AI_MODEL",
	})
}
