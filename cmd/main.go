package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/saramin-crawler/internal/bot"
	"github.com/maxaizer/saramin-crawler/internal/clients/gemini"
	"github.com/maxaizer/saramin-crawler/internal/clients/saramin"
	"github.com/maxaizer/saramin-crawler/internal/config"
	"github.com/maxaizer/saramin-crawler/internal/logger"
	"github.com/maxaizer/saramin-crawler/internal/metrics"
	"github.com/maxaizer/saramin-crawler/internal/normalizer"
	"github.com/maxaizer/saramin-crawler/internal/repositories"
	"github.com/maxaizer/saramin-crawler/internal/services"
	log "github.com/sirupsen/logrus"
)

func newSaraminClient(cfg config.CrawlerConfig) *saramin.Client {
	client := saramin.NewClient()
	client.SetBaseURL(cfg.BaseURL)
	client.SetUserAgent(cfg.UserAgent)
	client.SetRequestTimeout(cfg.RequestTimeout)
	client.SetRetryPolicy(saramin.RetryPolicy{
		Limit:      cfg.RetryLimit,
		Delay:      cfg.RetryDelay,
		Multiplier: cfg.RetryMultiplier,
	})
	client.SetPacing(cfg.PacingDelay)
	return client
}

func newMerger(ctx context.Context, cfg *config.Config, bus EventBus.Bus, dbContext *repositories.DbContext) *services.IngestionMerger {

	companies := repositories.NewCachedCompanies(repositories.NewCompaniesRepository(dbContext.DB))
	jobs := repositories.NewJobsRepository(dbContext.DB)

	norm := normalizer.New(normalizer.Options{
		SalaryUnit:       cfg.Normalizer.SalaryUnit,
		LargeSalaryUnit:  cfg.Normalizer.LargeSalaryUnit,
		AlwaysOpenMonths: cfg.Normalizer.AlwaysOpenMonths,
		YearRollover:     cfg.Normalizer.DeadlineYearRollover,
	})

	merger := services.NewIngestionMerger(bus, companies, jobs, norm)

	if cfg.AI.Enabled() {
		aiClient, err := gemini.NewClient(ctx, cfg.AI.Key, gemini.Model(cfg.AI.Model))
		if err != nil {
			log.Fatalf("can't create AI client: %v", err)
		}
		aiClient.SetMinuteRateLimit(cfg.AI.MaxRequestsPerMinute)
		merger.SetIndustryClassifier(services.NewIndustryClassifier(aiClient))
		log.Infof("industry classification enabled with model %q", cfg.AI.Model)
	}

	return merger
}

func setupOutputs(cfg *config.Config, bus EventBus.Bus) {

	if cfg.Crawler.ResultsDir != "" {
		if _, err := services.NewSnapshotWriter(bus, cfg.Crawler.ResultsDir); err != nil {
			log.Fatalf("can't create snapshot writer: %v", err)
		}
	}

	if cfg.Notifier.Enabled() {
		if _, err := bot.NewNotifier(cfg.Notifier.TelegramToken, cfg.Notifier.ChatID, bus); err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeTgApi).Errorf("can't create notifier: %v", err)
		}
	}
}

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Get()

	logger.Setup(ctx, cfg.Logger)
	defer logger.Cleanup()

	metrics.StartMetricsServer(cfg.Metrics.Port)

	dbContext, err := repositories.NewDbContext(cfg.DB.ConnectionString)
	if err != nil {
		log.Fatalf("can't create db context: %v", err)
	}
	defer dbContext.Close()

	err = dbContext.Migrate()
	if err != nil {
		log.Fatalf("can't migrate db context: %v", err)
	}

	bus := EventBus.New()
	setupOutputs(cfg, bus)

	client := newSaraminClient(cfg.Crawler)
	extractor := saramin.NewExtractor(client.BaseURL())
	if cfg.Crawler.DetailEnrichment {
		extractor.EnableDetailEnrichment(client, cfg.Crawler.DetailCacheTTL)
	}

	sweeper, err := services.NewExpirySweeper(repositories.NewJobsRepository(dbContext.DB), cfg.Crawler.ExpiryDays)
	if err != nil {
		log.Fatalf("can't create expiry sweeper: %v", err)
	}
	if cfg.Crawler.ExpirySchedule != "" {
		if err = sweeper.Schedule(cfg.Crawler.ExpirySchedule); err != nil {
			log.Fatalf("can't schedule expiry sweeper: %v", err)
		}
	}
	defer sweeper.Stop()

	crawler := services.NewCrawler(bus, client, extractor, newMerger(ctx, cfg, bus, dbContext), sweeper)
	crawler.SetKeywordDelay(cfg.Crawler.KeywordDelay)

	scheduler := services.NewScheduler(ctx, crawler, cfg.Crawler.TrimmedKeywords(), cfg.Crawler.PagesPerKeyword)
	if err = scheduler.Start(cfg.Crawler.Schedule, cfg.Crawler.RunOnStart); err != nil {
		log.Fatalf("can't start scheduler: %v", err)
	}

	<-ctx.Done()

	log.Info("Shutting down services...")
	scheduler.Stop()
	log.Info("Services stopped.")
}
