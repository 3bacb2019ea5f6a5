package repositories

import (
	"context"
	"errors"
	"strings"

	"github.com/maxaizer/saramin-crawler/internal/domain/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Companies struct {
	db *gorm.DB
}

func NewCompaniesRepository(db *gorm.DB) *Companies {
	return &Companies{db: db}
}

// FindByName returns nil without error when no company has that exact trimmed name.
func (repo *Companies) FindByName(ctx context.Context, name string) (*models.Company, error) {
	var company models.Company
	err := repo.db.WithContext(ctx).First(&company, "name = ?", strings.TrimSpace(name)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &company, nil
}

// Upsert creates the company or overwrites its mutable fields, keyed by name.
func (repo *Companies) Upsert(ctx context.Context, company models.Company) (*models.Company, error) {
	company.ID = 0
	company.Name = strings.TrimSpace(company.Name)

	err := repo.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"industry", "location_address", "location_city", "location_country", "updated_at",
		}),
	}).Create(&company).Error
	if err != nil {
		return nil, err
	}

	return repo.FindByName(ctx, company.Name)
}
