package config

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

type CrawlerConfig struct {
	Keywords         []string      `mapstructure:"keywords" validate:"required,min=1,dive,required"`
	PagesPerKeyword  int           `mapstructure:"pages_per_keyword" validate:"gte=1,lte=100"`
	Schedule         string        `mapstructure:"schedule" validate:"required"`
	RunOnStart       bool          `mapstructure:"run_on_start"`
	KeywordDelay     time.Duration `mapstructure:"keyword_delay" validate:"gte=0"`
	BaseURL          string        `mapstructure:"base_url" validate:"required,url"`
	UserAgent        string        `mapstructure:"user_agent" validate:"required"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
	RetryLimit       int           `mapstructure:"retry_limit" validate:"gte=0,lte=10"`
	RetryDelay       time.Duration `mapstructure:"retry_delay" validate:"gte=0"`
	RetryMultiplier  float64       `mapstructure:"retry_multiplier" validate:"gte=1"`
	PacingDelay      time.Duration `mapstructure:"pacing_delay" validate:"gte=0"`
	DetailEnrichment bool          `mapstructure:"detail_enrichment"`
	DetailCacheTTL   time.Duration `mapstructure:"detail_cache_ttl" validate:"gte=0"`
	ExpiryDays       int           `mapstructure:"expiry_days" validate:"gte=1"`
	ExpirySchedule   string        `mapstructure:"expiry_schedule"`
	ResultsDir       string        `mapstructure:"results_dir"`
}

func setCrawlerDefaults(v *viper.Viper) {
	v.SetDefault("crawler.pages_per_keyword", 5)
	v.SetDefault("crawler.schedule", "0 2 * * *")
	v.SetDefault("crawler.run_on_start", false)
	v.SetDefault("crawler.keyword_delay", 5*time.Second)
	v.SetDefault("crawler.base_url", "https://www.saramin.co.kr")
	v.SetDefault("crawler.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 "+
		"(KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	v.SetDefault("crawler.request_timeout", 10*time.Second)
	v.SetDefault("crawler.retry_limit", 3)
	v.SetDefault("crawler.retry_delay", 2*time.Second)
	v.SetDefault("crawler.retry_multiplier", 2.0)
	v.SetDefault("crawler.pacing_delay", 500*time.Millisecond)
	v.SetDefault("crawler.detail_cache_ttl", 6*time.Hour)
	v.SetDefault("crawler.expiry_days", 30)
}

func (config CrawlerConfig) validate() error {
	if err := validator.New().Struct(config); err != nil {
		return err
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(config.Schedule); err != nil {
		return err
	}
	if config.ExpirySchedule != "" {
		if _, err := parser.Parse(config.ExpirySchedule); err != nil {
			return err
		}
	}
	return nil
}

func (config CrawlerConfig) bindEnvironmentVariables(v *viper.Viper) error {
	return bindEnv(v, map[string]string{
		"crawler.keywords":          "CRAWLER_KEYWORDS",
		"crawler.pages_per_keyword": "CRAWLER_PAGES_PER_KEYWORD",
		"crawler.schedule":          "CRAWLER_SCHEDULE",
		"crawler.run_on_start":      "CRAWLER_RUN_ON_START",
		"crawler.keyword_delay":     "CRAWLER_KEYWORD_DELAY",
		"crawler.detail_enrichment": "CRAWLER_DETAIL_ENRICHMENT",
		"crawler.expiry_days":       "JOB_EXPIRY_DAYS",
		"crawler.expiry_schedule":   "JOB_EXPIRY_SCHEDULE",
		"crawler.results_dir":       "CRAWLER_RESULTS_DIR",
	})
}

// TrimmedKeywords drops blanks left by a trailing comma in CRAWLER_KEYWORDS.
func (config CrawlerConfig) TrimmedKeywords() []string {
	keywords := make([]string, 0, len(config.Keywords))
	for _, keyword := range config.Keywords {
		if keyword = strings.TrimSpace(keyword); keyword != "" {
			keywords = append(keywords, keyword)
		}
	}
	return keywords
}

type NormalizerConfig struct {
	SalaryUnit           int64 `mapstructure:"salary_unit" validate:"gte=1"`
	LargeSalaryUnit      int64 `mapstructure:"large_salary_unit" validate:"gte=1"`
	AlwaysOpenMonths     int   `mapstructure:"always_open_months"`
	DeadlineYearRollover bool  `mapstructure:"deadline_year_rollover"`
}

func setNormalizerDefaults(v *viper.Viper) {
	v.SetDefault("normalizer.salary_unit", 10000)
	v.SetDefault("normalizer.large_salary_unit", 100000000)
	v.SetDefault("normalizer.always_open_months", 3)
	v.SetDefault("normalizer.deadline_year_rollover", false)
}

func (config NormalizerConfig) validate() error {
	return validator.New().Struct(config)
}

func (config NormalizerConfig) bindEnvironmentVariables(v *viper.Viper) error {
	return bindEnv(v, map[string]string{
		"normalizer.salary_unit":            "NORMALIZER_SALARY_UNIT",
		"normalizer.large_salary_unit":      "NORMALIZER_LARGE_SALARY_UNIT",
		"normalizer.deadline_year_rollover": "NORMALIZER_DEADLINE_YEAR_ROLLOVER",
	})
}
