package models

import "time"

type ChangeKind string

const (
	ChangeNew       ChangeKind = "NEW"
	ChangeUpdated   ChangeKind = "UPDATED"
	ChangeUnchanged ChangeKind = "UNCHANGED"
)

// CrawlError records a failure against the keyword, page or listing that caused it.
type CrawlError struct {
	Keyword    string    `json:"keyword,omitempty"`
	Page       int       `json:"page,omitempty"`
	ListingURL string    `json:"listingUrl,omitempty"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurredAt"`
}

type CrawlCounts struct {
	Seen      int `json:"seen"`
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

func (c *CrawlCounts) Add(kind ChangeKind) {
	switch kind {
	case ChangeNew:
		c.Created++
	case ChangeUpdated:
		c.Updated++
	case ChangeUnchanged:
		c.Unchanged++
	}
}

func (c *CrawlCounts) Merge(other CrawlCounts) {
	c.Seen += other.Seen
	c.Created += other.Created
	c.Updated += other.Updated
	c.Unchanged += other.Unchanged
	c.Skipped += other.Skipped
	c.Failed += other.Failed
}

type KeywordSummary struct {
	Keyword  string           `json:"keyword"`
	Pages    int              `json:"pages"`
	Counts   CrawlCounts      `json:"counts"`
	Errors   []CrawlError     `json:"errors"`
	Listings []ScrapedListing `json:"listings,omitempty"`
}

type CrawlRunSummary struct {
	StartedAt  time.Time        `json:"startedAt"`
	FinishedAt time.Time        `json:"finishedAt"`
	Keywords   []KeywordSummary `json:"keywords"`
	Totals     CrawlCounts      `json:"totals"`
	Errors     []CrawlError     `json:"errors"`
	ClosedJobs int64            `json:"closedJobs"`
	Canceled   bool             `json:"canceled"`
}

func (s CrawlRunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
