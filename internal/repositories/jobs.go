package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/maxaizer/saramin-crawler/internal/domain/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Jobs struct {
	db *gorm.DB
}

func NewJobsRepository(db *gorm.DB) *Jobs {
	return &Jobs{db: db}
}

func (repo *Jobs) FindByURL(ctx context.Context, url string) (*models.Job, error) {
	var job models.Job
	err := repo.db.WithContext(ctx).First(&job, "original_posting_url = ?", url).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// Upsert creates the job or overwrites every crawled field, keyed by the posting URL.
func (repo *Jobs) Upsert(ctx context.Context, job models.Job) (*models.Job, error) {
	job.ID = 0
	job.LastSeenAt = job.LastSeenAt.UTC()

	err := repo.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "original_posting_url"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"company_id", "title", "description",
			"location_address", "location_city", "location_country",
			"experience_level", "job_type", "skills", "requirements",
			"salary_min", "salary_max", "salary_currency", "salary_is_negotiable",
			"deadline", "deadline_always_open", "status", "last_seen_at", "updated_at",
		}),
	}).Create(&job).Error
	if err != nil {
		return nil, err
	}

	return repo.FindByURL(ctx, job.OriginalPostingURL)
}

// Touch records that an unchanged job was seen again.
func (repo *Jobs) Touch(ctx context.Context, id uint, seenAt time.Time) error {
	return repo.db.WithContext(ctx).Model(&models.Job{}).Where("id = ?", id).
		UpdateColumn("last_seen_at", seenAt.UTC()).Error
}

// CloseStale marks ACTIVE jobs last seen strictly before the cutoff as CLOSED.
func (repo *Jobs) CloseStale(ctx context.Context, before time.Time) (int64, error) {
	res := repo.db.WithContext(ctx).Model(&models.Job{}).
		Where("status = ? AND last_seen_at < ?", models.JobStatusActive, before.UTC()).
		Update("status", models.JobStatusClosed)
	return res.RowsAffected, res.Error
}
