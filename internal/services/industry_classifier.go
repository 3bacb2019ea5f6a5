package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/maxaizer/saramin-crawler/internal/domain/models"
	"github.com/maxaizer/saramin-crawler/internal/logger"
	gocache "github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
)

const maxIndustryLength = 30

type aiClient interface {
	GenerateResponse(ctx context.Context, request string) (string, error)
}

// IndustryClassifier asks the AI model for the industry of a company the listing gave no sector for.
type IndustryClassifier struct {
	aiClient aiClient
	cache    *gocache.Cache
}

func NewIndustryClassifier(aiClient aiClient) *IndustryClassifier {
	return &IndustryClassifier{
		aiClient: aiClient,
		cache:    gocache.New(24*time.Hour, time.Hour),
	}
}

// Classify never fails. Any problem with the model answer yields the unclassified sentinel.
func (c *IndustryClassifier) Classify(ctx context.Context, companyName, jobTitle string) string {
	if cached, found := c.cache.Get(companyName); found {
		return cached.(string)
	}

	response, err := c.aiClient.GenerateResponse(ctx, industryRequest(companyName, jobTitle))
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeAiApi).
				Errorf("failed to classify industry of %q: %v", companyName, err)
		}
		return models.IndustryUnclassified
	}

	industry := parseIndustry(response)
	if industry == "" {
		log.Warnf("unexpected industry response %q for company %q", response, companyName)
		return models.IndustryUnclassified
	}

	log.Debugf("company %q classified as %q", companyName, industry)
	c.cache.SetDefault(companyName, industry)
	return industry
}

func industryRequest(companyName, jobTitle string) string {
	request := "회사명: " + companyName
	if jobTitle != "" {
		request += " 채용 공고: " + jobTitle
	}
	request += " 이 회사의 업종을 한 단어로만 답해줘. 예: IT, 제조, 금융, 유통, 교육, 의료. 모르면 \"" +
		models.IndustryUnclassified + "\"라고 답해줘."
	return request
}

func parseIndustry(response string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(response), "\n")
	line = strings.Trim(strings.ReplaceAll(line, "*", ""), " .\"'")
	if line == "" || utf8.RuneCountInString(line) > maxIndustryLength {
		return ""
	}
	return line
}
