package services

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/maxaizer/saramin-crawler/internal/domain/models"
	"github.com/maxaizer/saramin-crawler/internal/metrics"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

type crawlRunner interface {
	RunCrawl(ctx context.Context, keywords []string, pagesPerKeyword int) models.CrawlRunSummary
}

// Scheduler starts crawl runs from a cron schedule and allows at most one run at a time.
type Scheduler struct {
	ctx      context.Context
	runner   crawlRunner
	keywords []string
	pages    int
	cron     *cron.Cron
	running  atomic.Bool
	wg       sync.WaitGroup
}

// NewScheduler binds runs to ctx. Canceling it stops a run between pages.
func NewScheduler(ctx context.Context, runner crawlRunner, keywords []string, pagesPerKeyword int) *Scheduler {
	return &Scheduler{
		ctx:      ctx,
		runner:   runner,
		keywords: keywords,
		pages:    pagesPerKeyword,
		cron:     cron.New(),
	}
}

func (s *Scheduler) Start(schedule string, runOnStart bool) error {
	if _, err := s.cron.AddFunc(schedule, func() { s.TryRun() }); err != nil {
		return err
	}
	s.cron.Start()
	log.Infof("crawl scheduled at %q for keywords %v", schedule, s.keywords)

	if runOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.TryRun()
		}()
	}
	return nil
}

// TryRun executes one crawl synchronously. It returns false without running when a crawl is already in progress.
func (s *Scheduler) TryRun() (ran bool) {
	if !s.running.CompareAndSwap(false, true) {
		log.Warn("crawl trigger skipped: previous run is still in progress")
		metrics.SkippedRunsCounter.Inc()
		return false
	}
	defer s.running.Store(false)

	ran = true
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("crawl run panicked: %v", r)
		}
	}()

	s.runner.RunCrawl(s.ctx, s.keywords, s.pages)
	return ran
}

func (s *Scheduler) IsRunning() bool {
	return s.running.Load()
}

// Stop prevents new triggers and waits for the current run to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
}
