package repositories

import (
	"context"
	"time"

	"github.com/maxaizer/saramin-crawler/internal/domain/models"
	gocache "github.com/patrickmn/go-cache"
)

type companyRepository interface {
	FindByName(ctx context.Context, name string) (*models.Company, error)
	Upsert(ctx context.Context, company models.Company) (*models.Company, error)
}

// CachedCompanies skips the write when the company was upserted with identical fields recently.
type CachedCompanies struct {
	repo  companyRepository
	cache *gocache.Cache
}

func NewCachedCompanies(repo companyRepository) *CachedCompanies {
	return &CachedCompanies{repo: repo, cache: gocache.New(10*time.Minute, 20*time.Minute)}
}

func (c *CachedCompanies) FindByName(ctx context.Context, name string) (*models.Company, error) {
	if value, found := c.cache.Get(name); found {
		company := value.(models.Company)
		return &company, nil
	}

	company, err := c.repo.FindByName(ctx, name)
	if err != nil || company == nil {
		return company, err
	}
	c.cache.SetDefault(company.Name, *company)
	return company, nil
}

func (c *CachedCompanies) Upsert(ctx context.Context, company models.Company) (*models.Company, error) {
	if value, found := c.cache.Get(company.Name); found {
		cached := value.(models.Company)
		if cached.Industry == company.Industry && cached.Location == company.Location {
			return &cached, nil
		}
	}

	stored, err := c.repo.Upsert(ctx, company)
	if err != nil {
		c.cache.Delete(company.Name)
		return nil, err
	}
	if stored != nil {
		c.cache.SetDefault(stored.Name, *stored)
	}
	return stored, nil
}
