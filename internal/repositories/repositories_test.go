package repositories

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/maxaizer/saramin-crawler/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newTestDb(t *testing.T) *DbContext {
	dbCtx, err := NewDbContext(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("could not create db context: %v", err)
	}
	if err = dbCtx.Migrate(); err != nil {
		t.Fatalf("could not migrate db: %v", err)
	}
	t.Cleanup(func() { _ = dbCtx.Close() })
	return dbCtx
}

func int64Ptr(v int64) *int64 {
	return &v
}

func Test_Companies_UpsertCreatesThenUpdates(t *testing.T) {
	ctx := context.Background()
	companies := NewCompaniesRepository(newTestDb(t).DB)

	missing, err := companies.FindByName(ctx, "네오테크")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	created, err := companies.Upsert(ctx, models.Company{
		Name:     " 네오테크 ",
		Industry: "IT",
		Location: models.NewLocation("서울 강남구"),
	})
	assert.NoError(t, err)
	assert.Equal(t, "네오테크", created.Name)
	assert.Equal(t, "서울", created.Location.City)

	updated, err := companies.Upsert(ctx, models.Company{
		Name:     "네오테크",
		Industry: models.IndustryUnclassified,
		Location: models.NewLocation("부산 해운대구"),
	})
	assert.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "부산", updated.Location.City)
	assert.Equal(t, models.IndustryUnclassified, updated.Industry)

	var count int64
	companies.db.Model(&models.Company{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func Test_Jobs_UpsertKeepsOneRecordPerURL(t *testing.T) {
	ctx := context.Background()
	jobs := NewJobsRepository(newTestDb(t).DB)

	deadline := time.Date(2024, time.March, 15, 23, 59, 59, 0, time.UTC)
	job := models.Job{
		CompanyID:          1,
		Title:              "백엔드 개발자",
		Location:           models.NewLocation("서울 강남구"),
		ExperienceLevel:    models.ExperienceIntermediate,
		JobType:            models.EmploymentFullTime,
		Skills:             []string{"Go", "SQL"},
		Requirements:       []string{"3년 이상"},
		Salary:             models.Salary{Min: int64Ptr(50_000_000), Max: int64Ptr(70_000_000), Currency: "KRW"},
		Deadline:           &deadline,
		OriginalPostingURL: "https://www.saramin.co.kr/jobs/1",
		Status:             models.JobStatusActive,
		LastSeenAt:         time.Now(),
	}

	created, err := jobs.Upsert(ctx, job)
	assert.NoError(t, err)
	assert.Equal(t, []string{"Go", "SQL"}, created.Skills)
	assert.Equal(t, int64(50_000_000), *created.Salary.Min)
	assert.True(t, deadline.Equal(*created.Deadline))

	job.Title = "시니어 백엔드 개발자"
	job.Salary = models.Salary{Currency: "KRW", IsNegotiable: true}
	updated, err := jobs.Upsert(ctx, job)
	assert.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "시니어 백엔드 개발자", updated.Title)
	assert.Nil(t, updated.Salary.Min)
	assert.True(t, updated.Salary.IsNegotiable)

	found, err := jobs.FindByURL(ctx, job.OriginalPostingURL)
	assert.NoError(t, err)
	assert.Equal(t, updated.ID, found.ID)

	missing, err := jobs.FindByURL(ctx, "https://www.saramin.co.kr/jobs/404")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func Test_Jobs_CloseStale_Boundary(t *testing.T) {
	ctx := context.Background()
	jobs := NewJobsRepository(newTestDb(t).DB)

	cutoff := time.Date(2024, time.March, 1, 2, 0, 0, 0, time.UTC)
	insert := func(url string, seenAt time.Time, status models.JobStatus) *models.Job {
		job, err := jobs.Upsert(ctx, models.Job{
			OriginalPostingURL: url,
			Status:             status,
			LastSeenAt:         seenAt,
		})
		assert.NoError(t, err)
		return job
	}

	atCutoff := insert("https://www.saramin.co.kr/jobs/at", cutoff, models.JobStatusActive)
	older := insert("https://www.saramin.co.kr/jobs/older", cutoff.Add(-time.Second), models.JobStatusActive)
	fresh := insert("https://www.saramin.co.kr/jobs/fresh", cutoff.Add(time.Hour), models.JobStatusActive)
	closed := insert("https://www.saramin.co.kr/jobs/closed", cutoff.Add(-48*time.Hour), models.JobStatusClosed)

	affected, err := jobs.CloseStale(ctx, cutoff)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	status := func(job *models.Job) models.JobStatus {
		stored, err := jobs.FindByURL(ctx, job.OriginalPostingURL)
		assert.NoError(t, err)
		return stored.Status
	}
	assert.Equal(t, models.JobStatusActive, status(atCutoff))
	assert.Equal(t, models.JobStatusClosed, status(older))
	assert.Equal(t, models.JobStatusActive, status(fresh))
	assert.Equal(t, models.JobStatusClosed, status(closed))

	closedBefore, _ := jobs.FindByURL(ctx, closed.OriginalPostingURL)
	affected, err = jobs.CloseStale(ctx, cutoff)
	assert.NoError(t, err)
	assert.Zero(t, affected)
	closedAfter, _ := jobs.FindByURL(ctx, closed.OriginalPostingURL)
	assert.True(t, closedBefore.UpdatedAt.Equal(closedAfter.UpdatedAt))
}

func Test_Jobs_TouchMovesLastSeenOnly(t *testing.T) {
	ctx := context.Background()
	jobs := NewJobsRepository(newTestDb(t).DB)

	seen := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	job, err := jobs.Upsert(ctx, models.Job{OriginalPostingURL: "https://www.saramin.co.kr/jobs/1", LastSeenAt: seen})
	assert.NoError(t, err)

	later := seen.Add(24 * time.Hour)
	assert.NoError(t, jobs.Touch(ctx, job.ID, later))

	touched, err := jobs.FindByURL(ctx, job.OriginalPostingURL)
	assert.NoError(t, err)
	assert.True(t, later.Equal(touched.LastSeenAt))
	assert.True(t, job.UpdatedAt.Equal(touched.UpdatedAt))
}

type mockCompanies struct {
	mock.Mock
}

func (m *mockCompanies) FindByName(ctx context.Context, name string) (*models.Company, error) {
	args := m.Called(ctx, name)
	company, _ := args.Get(0).(*models.Company)
	return company, args.Error(1)
}

func (m *mockCompanies) Upsert(ctx context.Context, company models.Company) (*models.Company, error) {
	args := m.Called(ctx, company)
	stored := company
	stored.ID = 7
	return &stored, args.Error(0)
}

func Test_CachedCompanies_SkipsIdenticalUpsert(t *testing.T) {
	repo := &mockCompanies{}
	repo.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	cached := NewCachedCompanies(repo)
	company := models.Company{Name: "네오테크", Industry: "IT", Location: models.NewLocation("서울 강남구")}

	first, err := cached.Upsert(context.Background(), company)
	assert.NoError(t, err)
	second, err := cached.Upsert(context.Background(), company)
	assert.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	repo.AssertNumberOfCalls(t, "Upsert", 1)

	company.Industry = "제조"
	_, err = cached.Upsert(context.Background(), company)
	assert.NoError(t, err)
	repo.AssertNumberOfCalls(t, "Upsert", 2)

	found, err := cached.FindByName(context.Background(), "네오테크")
	assert.NoError(t, err)
	assert.Equal(t, "제조", found.Industry)
	repo.AssertNotCalled(t, "FindByName", mock.Anything, mock.Anything)
}
