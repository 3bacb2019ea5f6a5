package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/saramin-crawler/internal/domain/events"
	"github.com/maxaizer/saramin-crawler/internal/domain/models"
	"github.com/maxaizer/saramin-crawler/internal/logger"
	"github.com/maxaizer/saramin-crawler/internal/metrics"
	"github.com/maxaizer/saramin-crawler/internal/normalizer"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

var (
	ErrMissingCompanyName = errors.New("listing has no company name")
	ErrMissingPostingURL  = errors.New("listing has no posting url")
)

// MergeError is returned for a single listing that could not be merged.
type MergeError struct {
	ListingURL string
	Err        error
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("merge listing %q: %v", e.ListingURL, e.Err)
}

func (e *MergeError) Unwrap() error {
	return e.Err
}

type companyStore interface {
	FindByName(ctx context.Context, name string) (*models.Company, error)
	Upsert(ctx context.Context, company models.Company) (*models.Company, error)
}

type jobStore interface {
	FindByURL(ctx context.Context, url string) (*models.Job, error)
	Upsert(ctx context.Context, job models.Job) (*models.Job, error)
	Touch(ctx context.Context, id uint, seenAt time.Time) error
}

type industryClassifier interface {
	Classify(ctx context.Context, companyName, jobTitle string) string
}

type MergeResult struct {
	Job    *models.Job
	Change models.ChangeKind
}

type IngestionMerger struct {
	bus        EventBus.Bus
	companies  companyStore
	jobs       jobStore
	normalizer *normalizer.Normalizer
	classifier industryClassifier
	now        func() time.Time
}

func NewIngestionMerger(bus EventBus.Bus, companies companyStore, jobs jobStore,
	norm *normalizer.Normalizer) *IngestionMerger {

	return &IngestionMerger{
		bus:        bus,
		companies:  companies,
		jobs:       jobs,
		normalizer: norm,
		now:        time.Now,
	}
}

// SetIndustryClassifier is consulted only for companies with no sector on the listing and no stored industry.
func (m *IngestionMerger) SetIndustryClassifier(classifier industryClassifier) {
	m.classifier = classifier
}

func (m *IngestionMerger) Merge(ctx context.Context, keyword string, listing models.ScrapedListing) (MergeResult, error) {

	url := strings.TrimSpace(listing.Link)
	if url == "" {
		return MergeResult{}, &MergeError{ListingURL: url, Err: ErrMissingPostingURL}
	}
	if strings.TrimSpace(listing.Company) == "" {
		return MergeResult{}, &MergeError{ListingURL: url, Err: ErrMissingCompanyName}
	}

	company, err := m.upsertCompany(ctx, listing)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("failed to upsert company %q for %v: %v", listing.Company, url, err)
		return MergeResult{}, &MergeError{ListingURL: url, Err: err}
	}

	existing, err := m.jobs.FindByURL(ctx, url)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to find job %v: %v", url, err)
		return MergeResult{}, &MergeError{ListingURL: url, Err: err}
	}

	now := m.now()
	candidate := m.buildJob(listing, company.ID, url, now)

	if existing == nil {
		created, err := m.jobs.Upsert(ctx, candidate)
		if err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to create job %v: %v", url, err)
			return MergeResult{}, &MergeError{ListingURL: url, Err: err}
		}
		m.bus.Publish(events.JobCreatedTopic, events.JobCreated{Keyword: keyword, Job: *created})
		return m.result(created, models.ChangeNew), nil
	}

	carryStoredState(existing, &candidate, listing.Enriched)

	if jobsEqual(*existing, candidate) {
		if err = m.jobs.Touch(ctx, existing.ID, now); err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to touch job %v: %v", url, err)
			return MergeResult{}, &MergeError{ListingURL: url, Err: err}
		}
		existing.LastSeenAt = now
		return m.result(existing, models.ChangeUnchanged), nil
	}

	updated, err := m.jobs.Upsert(ctx, candidate)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to update job %v: %v", url, err)
		return MergeResult{}, &MergeError{ListingURL: url, Err: err}
	}
	return m.result(updated, models.ChangeUpdated), nil
}

func (m *IngestionMerger) result(job *models.Job, change models.ChangeKind) MergeResult {
	metrics.ListingsCounter.WithLabelValues(string(change)).Inc()
	return MergeResult{Job: job, Change: change}
}

func (m *IngestionMerger) upsertCompany(ctx context.Context, listing models.ScrapedListing) (*models.Company, error) {

	name := strings.TrimSpace(listing.Company)
	existing, err := m.companies.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}

	company := models.Company{
		Name:     name,
		Industry: m.industry(ctx, listing, existing),
		Location: models.NewLocation(listing.Location),
	}
	if company.Location.Address == "" && existing != nil {
		company.Location = models.NewLocation(existing.Location.Address)
	}

	return m.companies.Upsert(ctx, company)
}

func (m *IngestionMerger) industry(ctx context.Context, listing models.ScrapedListing, existing *models.Company) string {
	if sector := strings.TrimSpace(listing.Sector); sector != "" {
		return sector
	}
	if existing != nil && existing.Industry != "" && existing.Industry != models.IndustryUnclassified {
		return existing.Industry
	}
	if m.classifier != nil {
		return m.classifier.Classify(ctx, strings.TrimSpace(listing.Company), listing.Title)
	}
	return models.IndustryUnclassified
}

func (m *IngestionMerger) buildJob(listing models.ScrapedListing, companyID uint, url string, now time.Time) models.Job {

	deadline := m.normalizer.Deadline(listing.Deadline, now)

	return models.Job{
		CompanyID:          companyID,
		Title:              strings.TrimSpace(listing.Title),
		Description:        strings.TrimSpace(listing.Description),
		Location:           models.NewLocation(listing.Location),
		ExperienceLevel:    m.normalizer.Experience(listing.Experience),
		JobType:            m.normalizer.EmploymentType(listing.EmploymentType),
		Skills:             cleanStrings(listing.Skills),
		Requirements:       cleanStrings(listing.Requirements),
		Salary:             m.normalizer.Salary(listing.Salary),
		Deadline:           deadline.Date,
		DeadlineAlwaysOpen: deadline.AlwaysOpen,
		OriginalPostingURL: url,
		Status:             models.JobStatusActive,
		LastSeenAt:         now,
	}
}

// carryStoredState copies onto the candidate the stored fields a summary-only sighting must not overwrite.
// Summary cards carry only a few skill tags, so their skills are added to the stored ones.
func carryStoredState(stored *models.Job, candidate *models.Job, enriched bool) {
	if stored.Status == models.JobStatusClosed {
		candidate.Status = models.JobStatusClosed
	}
	if !enriched {
		candidate.Description = stored.Description
		candidate.Requirements = stored.Requirements
		candidate.Skills = cleanStrings(append(slices.Clone(stored.Skills), candidate.Skills...))
	}
	if candidate.DeadlineAlwaysOpen && stored.DeadlineAlwaysOpen {
		candidate.Deadline = stored.Deadline
	}
}

func jobsEqual(a, b models.Job) bool {
	return a.CompanyID == b.CompanyID &&
		a.Title == b.Title &&
		a.Description == b.Description &&
		a.Location == b.Location &&
		a.ExperienceLevel == b.ExperienceLevel &&
		a.JobType == b.JobType &&
		sameStrings(a.Skills, b.Skills) &&
		sameStrings(a.Requirements, b.Requirements) &&
		a.Salary.Equal(b.Salary) &&
		sameDeadline(a.Deadline, b.Deadline) &&
		a.DeadlineAlwaysOpen == b.DeadlineAlwaysOpen &&
		a.Status == b.Status
}

func sameDeadline(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// sameStrings ignores order, duplicates, surrounding whitespace and repeated inner spaces.
func sameStrings(a, b []string) bool {
	return slices.Equal(canonicalSet(a), canonicalSet(b))
}

func canonicalSet(values []string) []string {
	set := cleanStrings(values)
	slices.Sort(set)
	return set
}

func cleanStrings(values []string) []string {
	cleaned := lo.FilterMap(values, func(value string, _ int) (string, bool) {
		value = strings.Join(strings.Fields(value), " ")
		return value, value != ""
	})
	return lo.Uniq(cleaned)
}
