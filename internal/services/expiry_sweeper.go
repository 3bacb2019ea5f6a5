package services

import (
	"context"
	"time"

	"github.com/maxaizer/saramin-crawler/internal/logger"
	"github.com/maxaizer/saramin-crawler/internal/metrics"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

type staleJobRepository interface {
	CloseStale(ctx context.Context, before time.Time) (int64, error)
}

// ExpirySweeper closes ACTIVE jobs that were not seen within the expiry window.
type ExpirySweeper struct {
	jobs       staleJobRepository
	cron       *cron.Cron
	expiryDays int
	now        func() time.Time
}

func NewExpirySweeper(jobs staleJobRepository, expiryDays int) (*ExpirySweeper, error) {

	if expiryDays <= 0 {
		return nil, errors.New("expiry in days must be greater than zero")
	}

	return &ExpirySweeper{
		jobs:       jobs,
		expiryDays: expiryDays,
		now:        time.Now,
	}, nil
}

// Schedule runs the sweep on its own cron in addition to the sweep at the end of every crawl.
func (s *ExpirySweeper) Schedule(spec string) error {
	s.cron = cron.New()
	_, err := s.cron.AddFunc(spec, func() {
		_, _ = s.Sweep(context.Background())
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Infof("expiry sweeper scheduled at %q, expiry in days: %d", spec, s.expiryDays)
	return nil
}

func (s *ExpirySweeper) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

func (s *ExpirySweeper) Cutoff() time.Time {
	return s.now().AddDate(0, 0, -s.expiryDays)
}

func (s *ExpirySweeper) Sweep(ctx context.Context) (int64, error) {
	cutoff := s.Cutoff()
	closed, err := s.jobs.CloseStale(ctx, cutoff)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to close stale jobs: %v", err)
		return 0, err
	}

	metrics.ClosedJobsCounter.Add(float64(closed))
	log.Infof("stale jobs last seen before %v were closed, affected rows: %v", cutoff.Format(time.DateTime), closed)
	return closed, nil
}
