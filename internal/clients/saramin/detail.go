package saramin

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/maxaizer/saramin-crawler/internal/domain/models"
	"github.com/maxaizer/saramin-crawler/internal/logger"
	gocache "github.com/patrickmn/go-cache"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

const (
	descriptionSelector = ".user_content"
	requirementSelector = ".user_content li"
	detailSkillSelector = ".jv_summary .cont .col dd a, .tags .tag"
)

type Detail struct {
	Description  string
	Requirements []string
	Skills       []string
}

// enrich merges detail page fields into the listing; on failure the summary fields stay as they are.
func (e *Extractor) enrich(ctx context.Context, listing *models.ScrapedListing) {
	detail, err := e.detail(ctx, listing.Link)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeFetch).
			Warnf("failed to enrich listing %s, keeping summary fields: %v", listing.Link, err)
		return
	}

	listing.Description = detail.Description
	listing.Requirements = detail.Requirements
	listing.Skills = lo.Uniq(append(listing.Skills, detail.Skills...))
	listing.Enriched = true
}

func (e *Extractor) detail(ctx context.Context, url string) (Detail, error) {
	if e.detailCache != nil {
		if cached, found := e.detailCache.Get(url); found {
			return cached.(Detail), nil
		}
	}

	raw, err := e.fetcher.Fetch(ctx, url)
	if err != nil {
		return Detail{}, err
	}
	detail, err := ParseDetail(raw)
	if err != nil {
		return Detail{}, err
	}

	if e.detailCache != nil {
		e.detailCache.Set(url, detail, gocache.DefaultExpiration)
	}
	return detail, nil
}

// ParseDetail reads description, requirements and skills from a job detail page.
func ParseDetail(raw []byte) (Detail, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return Detail{}, err
	}

	var detail Detail

	content := doc.Find(descriptionSelector).First()
	if content.Length() > 0 {
		content.Find("script, style").Remove()
		detail.Description = strings.TrimSpace(content.Text())
	} else if desc, exists := doc.Find("meta[property='og:description']").Attr("content"); exists {
		detail.Description = strings.TrimSpace(desc)
	} else if desc, exists := doc.Find("meta[name='description']").Attr("content"); exists {
		detail.Description = strings.TrimSpace(desc)
	}

	doc.Find(requirementSelector).Each(func(_ int, s *goquery.Selection) {
		if text := cleanText(s.Text()); text != "" {
			detail.Requirements = append(detail.Requirements, text)
		}
	})

	doc.Find(detailSkillSelector).Each(func(_ int, s *goquery.Selection) {
		if text := cleanText(s.Text()); text != "" {
			detail.Skills = append(detail.Skills, text)
		}
	})
	detail.Skills = lo.Uniq(detail.Skills)

	return detail, nil
}
