package saramin

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/maxaizer/saramin-crawler/internal/domain/models"
	"github.com/maxaizer/saramin-crawler/internal/logger"
	"github.com/maxaizer/saramin-crawler/internal/metrics"
	gocache "github.com/patrickmn/go-cache"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

const (
	listingSelector   = ".item_recruit"
	companySelector   = ".corp_name a"
	titleSelector     = ".job_tit a"
	conditionSelector = ".job_condition span"
	deadlineSelector  = ".job_date .date"
	sectorSelector    = ".job_sector"
	skillSelector     = ".job_sector a"
	salarySelector    = ".area_badge .badge"

	DefaultMaxListingsPerPage = 100
)

type pageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// ExtractResult holds the listings read from one page and how many nodes had to be skipped.
type ExtractResult struct {
	Listings []models.ScrapedListing
	Skipped  int
}

type Extractor struct {
	baseURL     string
	maxListings int
	fetcher     pageFetcher
	detailCache *gocache.Cache
}

func NewExtractor(baseURL string) *Extractor {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Extractor{baseURL: baseURL, maxListings: DefaultMaxListingsPerPage}
}

// EnableDetailEnrichment makes Extract fetch each listing's detail page.
// Detail pages are cached so a posting found under several keywords is fetched once.
// A non-positive cacheTTL disables the cache.
func (e *Extractor) EnableDetailEnrichment(fetcher pageFetcher, cacheTTL time.Duration) {
	e.fetcher = fetcher
	e.detailCache = nil
	if cacheTTL > 0 {
		e.detailCache = gocache.New(cacheTTL, 2*cacheTTL)
	}
}

func (e *Extractor) SetMaxListings(n int) {
	if n > 0 {
		e.maxListings = n
	}
}

// Extract reads the listings of a search results page in document order.
// It fails only when the page can not be parsed at all.
func (e *Extractor) Extract(ctx context.Context, raw []byte) (ExtractResult, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return ExtractResult{}, fmt.Errorf("parse html: %w", err)
	}

	var result ExtractResult
	doc.Find(listingSelector).EachWithBreak(func(i int, node *goquery.Selection) bool {
		if len(result.Listings) >= e.maxListings {
			return false
		}
		listing, ok := e.parseListing(node)
		if !ok {
			result.Skipped++
			metrics.ExtractionSkippedCounter.Inc()
			return true
		}
		result.Listings = append(result.Listings, listing)
		return true
	})

	if e.fetcher != nil {
		for i := range result.Listings {
			if ctx.Err() != nil {
				break
			}
			e.enrich(ctx, &result.Listings[i])
		}
	}

	return result, nil
}

func (e *Extractor) parseListing(node *goquery.Selection) (listing models.ScrapedListing, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeParse).Errorf("failed to parse job listing: %v", r)
			ok = false
		}
	}()

	href, _ := node.Find(titleSelector).First().Attr("href")
	link := AbsoluteURL(e.baseURL, href)
	if link == "" {
		return models.ScrapedListing{}, false
	}

	conditions := node.Find(conditionSelector)
	condition := func(i int) string {
		return cleanText(conditions.Eq(i).Text())
	}

	sector := node.Find(sectorSelector).First().Clone()
	sector.Find(".job_day").Remove()

	skills := lo.Uniq(lo.Filter(node.Find(skillSelector).Map(func(_ int, s *goquery.Selection) string {
		return cleanText(s.Text())
	}), func(skill string, _ int) bool { return skill != "" }))

	return models.ScrapedListing{
		Company:        cleanText(node.Find(companySelector).First().Text()),
		Title:          cleanText(node.Find(titleSelector).First().Text()),
		Link:           link,
		Location:       condition(0),
		Experience:     condition(1),
		Education:      condition(2),
		EmploymentType: condition(3),
		Deadline:       cleanText(node.Find(deadlineSelector).First().Text()),
		Sector:         cleanText(sector.Text()),
		Salary:         cleanText(node.Find(salarySelector).First().Text()),
		Skills:         skills,
	}, true
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
