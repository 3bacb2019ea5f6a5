package config

import (
	"errors"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	Logger     LoggerConfig     `mapstructure:"logger"`
	DB         DBConfig         `mapstructure:"db"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Crawler    CrawlerConfig    `mapstructure:"crawler"`
	Normalizer NormalizerConfig `mapstructure:"normalizer"`
	Notifier   NotifierConfig   `mapstructure:"notifier"`
	AI         AIConfig         `mapstructure:"ai"`
}

type section interface {
	validate() error
	bindEnvironmentVariables(v *viper.Viper) error
}

var defaultConfigFile = "./configs/config.yaml"

func Get() *Config {

	configFile := defaultConfigFile
	if value, ok := os.LookupEnv("CONFIG_PATH"); ok && value != "" {
		configFile = value
	}

	config, err := loadConfig(configFile)
	if err != nil {
		log.Fatal(err)
	}

	return config
}

func loadConfig(file string) (*Config, error) {

	v := viper.New()
	v.SetConfigFile(file)
	v.AutomaticEnv()
	setDefaults(v)

	config := Config{}
	if err := config.bindEnvironmentVariables(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", file, err)
	}

	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.log_level", string(LevelInfo))
	v.SetDefault("logger.app_name", "saramin-crawler")
	v.SetDefault("logger.output_file", "./logs/crawler.log")
	v.SetDefault("metrics.port", 8080)
	v.SetDefault("ai.model", "gemini-1.5-flash")
	v.SetDefault("ai.max_requests_per_minute", 10)
	setCrawlerDefaults(v)
	setNormalizerDefaults(v)
}

func (config *Config) sections() []struct {
	name string
	section
} {
	return []struct {
		name string
		section
	}{
		{"LoggerConfig", &config.Logger},
		{"DBConfig", &config.DB},
		{"MetricsConfig", &config.Metrics},
		{"CrawlerConfig", &config.Crawler},
		{"NormalizerConfig", &config.Normalizer},
		{"NotifierConfig", &config.Notifier},
		{"AIConfig", &config.AI},
	}
}

func (config *Config) bindEnvironmentVariables(v *viper.Viper) error {
	var errs []error

	for _, s := range config.sections() {
		if err := s.bindEnvironmentVariables(v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}

	return nil
}

func (config *Config) validate() error {
	var errs []error

	for _, s := range config.sections() {
		if err := s.validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}

	return nil
}

func bindEnv(v *viper.Viper, bindings map[string]string) error {
	var errs []error
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
