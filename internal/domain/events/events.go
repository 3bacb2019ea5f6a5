package events

import (
	"github.com/maxaizer/saramin-crawler/internal/domain/models"
)

var (
	CrawlCompletedTopic = "CrawlCompletedEvent"
	JobCreatedTopic     = "JobCreatedEvent"
)

type CrawlCompleted struct {
	Summary models.CrawlRunSummary
}

type JobCreated struct {
	Keyword string
	Job     models.Job
}
