package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/saramin-crawler/internal/clients/saramin"
	"github.com/maxaizer/saramin-crawler/internal/domain/events"
	"github.com/maxaizer/saramin-crawler/internal/domain/models"
	"github.com/maxaizer/saramin-crawler/internal/logger"
	"github.com/maxaizer/saramin-crawler/internal/metrics"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

type searchFetcher interface {
	SearchURL(keyword string, page int) (string, error)
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type listingExtractor interface {
	Extract(ctx context.Context, raw []byte) (saramin.ExtractResult, error)
}

type listingMerger interface {
	Merge(ctx context.Context, keyword string, listing models.ScrapedListing) (MergeResult, error)
}

type staleJobsCloser interface {
	Sweep(ctx context.Context) (int64, error)
}

// Crawler drives fetch, extract and merge over every page of every keyword, one request at a time.
type Crawler struct {
	bus          EventBus.Bus
	fetcher      searchFetcher
	extractor    listingExtractor
	merger       listingMerger
	sweeper      staleJobsCloser
	keywordDelay time.Duration
	now          func() time.Time
}

func NewCrawler(bus EventBus.Bus, fetcher searchFetcher, extractor listingExtractor, merger listingMerger,
	sweeper staleJobsCloser) *Crawler {

	return &Crawler{
		bus:       bus,
		fetcher:   fetcher,
		extractor: extractor,
		merger:    merger,
		sweeper:   sweeper,
		now:       time.Now,
	}
}

func (c *Crawler) SetKeywordDelay(delay time.Duration) {
	c.keywordDelay = delay
}

// RunCrawl never fails as a whole. Failures are recorded in the returned summary.
func (c *Crawler) RunCrawl(ctx context.Context, keywords []string, pagesPerKeyword int) models.CrawlRunSummary {

	summary := models.CrawlRunSummary{StartedAt: c.now()}
	log.Infof("crawl started for %d keywords, %d pages each", len(keywords), pagesPerKeyword)

	for i, keyword := range keywords {
		if i > 0 && !c.wait(ctx, c.keywordDelay) {
			break
		}
		keywordSummary := c.crawlKeyword(ctx, keyword, pagesPerKeyword)
		summary.Keywords = append(summary.Keywords, keywordSummary)
		if ctx.Err() != nil {
			break
		}
	}

	summary.Canceled = ctx.Err() != nil
	if summary.Canceled {
		log.Warnf("crawl canceled, expiry sweep skipped")
	} else if c.sweeper != nil {
		closed, err := c.sweeper.Sweep(ctx)
		if err != nil {
			summary.Errors = append(summary.Errors, c.crawlError("", 0, "", "expiry sweep: "+err.Error()))
		}
		summary.ClosedJobs = closed
	}

	for _, keywordSummary := range summary.Keywords {
		summary.Totals.Merge(keywordSummary.Counts)
	}
	summary.Errors = append(lo.FlatMap(summary.Keywords, func(s models.KeywordSummary, _ int) []models.CrawlError {
		return s.Errors
	}), summary.Errors...)
	summary.FinishedAt = c.now()

	metrics.CrawlDuration.Observe(summary.Duration().Seconds())
	log.Infof("crawl finished after %v: seen %d, new %d, updated %d, unchanged %d, skipped %d, failed %d, closed %d, errors %d",
		summary.Duration(), summary.Totals.Seen, summary.Totals.Created, summary.Totals.Updated,
		summary.Totals.Unchanged, summary.Totals.Skipped, summary.Totals.Failed, summary.ClosedJobs, len(summary.Errors))

	c.bus.Publish(events.CrawlCompletedTopic, events.CrawlCompleted{Summary: summary})
	return summary
}

func (c *Crawler) crawlKeyword(ctx context.Context, keyword string, pages int) models.KeywordSummary {

	summary := models.KeywordSummary{Keyword: keyword, Errors: []models.CrawlError{}}
	seen := make(map[string]struct{})

	for page := 1; page <= pages; page++ {
		if ctx.Err() != nil {
			log.Infof("crawl canceled for keyword %q at page %d", keyword, page)
			return summary
		}

		url, err := c.fetcher.SearchURL(keyword, page)
		if err != nil {
			log.Errorf("skipping keyword %q: %v", keyword, err)
			summary.Errors = append(summary.Errors, c.crawlError(keyword, page, "", err.Error()))
			return summary
		}

		raw, err := c.fetcher.Fetch(ctx, url)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return summary
			}
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeFetch).
				Errorf("failed to fetch page %d for keyword %q: %v", page, keyword, err)
			summary.Errors = append(summary.Errors, c.crawlError(keyword, page, "", err.Error()))
			continue
		}

		result, err := c.extractor.Extract(ctx, raw)
		if err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeParse).
				Errorf("failed to extract page %d for keyword %q: %v", page, keyword, err)
			summary.Errors = append(summary.Errors, c.crawlError(keyword, page, "", err.Error()))
			continue
		}

		summary.Pages++
		summary.Counts.Skipped += result.Skipped
		if len(result.Listings) == 0 && result.Skipped == 0 {
			log.Infof("page %d for keyword %q has no listings, stopping keyword", page, keyword)
			break
		}

		c.mergeListings(ctx, keyword, page, result.Listings, seen, &summary)
	}

	log.Infof("keyword %q done: %d pages, %d seen, %d new, %d updated, %d unchanged",
		keyword, summary.Pages, summary.Counts.Seen, summary.Counts.Created, summary.Counts.Updated, summary.Counts.Unchanged)
	return summary
}

func (c *Crawler) mergeListings(ctx context.Context, keyword string, page int, listings []models.ScrapedListing,
	seen map[string]struct{}, summary *models.KeywordSummary) {

	for _, listing := range listings {
		if ctx.Err() != nil {
			return
		}

		key := strings.TrimSpace(listing.Link)
		if _, duplicate := seen[key]; duplicate {
			continue
		}
		seen[key] = struct{}{}

		summary.Counts.Seen++
		summary.Listings = append(summary.Listings, listing)

		result, err := c.merger.Merge(ctx, keyword, listing)
		if err != nil {
			summary.Counts.Failed++
			summary.Errors = append(summary.Errors, c.crawlError(keyword, page, key, err.Error()))
			continue
		}
		summary.Counts.Add(result.Change)
	}
}

func (c *Crawler) crawlError(keyword string, page int, listingURL, reason string) models.CrawlError {
	return models.CrawlError{
		Keyword:    keyword,
		Page:       page,
		ListingURL: listingURL,
		Reason:     reason,
		OccurredAt: c.now(),
	}
}

func (c *Crawler) wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
