package models

import (
	"time"
)

type ExperienceLevel string

const (
	ExperienceEntry        ExperienceLevel = "ENTRY"
	ExperienceIntermediate ExperienceLevel = "INTERMEDIATE"
	ExperienceSenior       ExperienceLevel = "SENIOR"
	ExperienceExecutive    ExperienceLevel = "EXECUTIVE"
)

type EmploymentType string

const (
	EmploymentFullTime EmploymentType = "FULL_TIME"
	EmploymentPartTime EmploymentType = "PART_TIME"
	EmploymentContract EmploymentType = "CONTRACT"
	EmploymentIntern   EmploymentType = "INTERN"
)

type JobStatus string

const (
	JobStatusActive JobStatus = "ACTIVE"
	JobStatusClosed JobStatus = "CLOSED"
)

type Salary struct {
	Min          *int64
	Max          *int64
	Currency     string
	IsNegotiable bool
}

func (s Salary) Equal(other Salary) bool {
	return equalAmount(s.Min, other.Min) && equalAmount(s.Max, other.Max) &&
		s.Currency == other.Currency && s.IsNegotiable == other.IsNegotiable
}

func equalAmount(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

type Job struct {
	ID                 uint `gorm:"primaryKey"`
	CompanyID          uint `gorm:"index"`
	Title              string
	Description        string
	Location           Location `gorm:"embedded;embeddedPrefix:location_"`
	ExperienceLevel    ExperienceLevel
	JobType            EmploymentType
	Skills             []string `gorm:"serializer:json"`
	Requirements       []string `gorm:"serializer:json"`
	Salary             Salary   `gorm:"embedded;embeddedPrefix:salary_"`
	Deadline           *time.Time
	DeadlineAlwaysOpen bool
	OriginalPostingURL string    `gorm:"uniqueIndex;not null"`
	Status             JobStatus `gorm:"index;default:ACTIVE"`
	LastSeenAt         time.Time `gorm:"index"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
