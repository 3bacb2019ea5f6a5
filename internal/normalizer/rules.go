package normalizer

import (
	"strings"

	"github.com/maxaizer/saramin-crawler/internal/domain/models"
)

type rule[T any] struct {
	token string
	value T
}

// experienceRules are checked in order; the first token found wins.
var experienceRules = []rule[models.ExperienceLevel]{
	{"신입", models.ExperienceEntry},
	{"경력", models.ExperienceIntermediate},
	{"시니어", models.ExperienceSenior},
	{"임원", models.ExperienceExecutive},
}

var employmentRules = []rule[models.EmploymentType]{
	{"정규", models.EmploymentFullTime},
	{"계약", models.EmploymentContract},
	{"인턴", models.EmploymentIntern},
	{"파트", models.EmploymentPartTime},
	{"아르바이트", models.EmploymentPartTime},
}

func match[T any](text string, rules []rule[T], fallback T) T {
	text = strings.TrimSpace(text)
	if text == "" {
		return fallback
	}
	for _, r := range rules {
		if strings.Contains(text, r.token) {
			return r.value
		}
	}
	return fallback
}

// Experience maps free text like "경력 3년↑" to a level, ENTRY when nothing matches.
func Experience(text string) models.ExperienceLevel {
	return match(text, experienceRules, models.ExperienceEntry)
}

// EmploymentType maps free text like "계약직" to a type, FULL_TIME when nothing matches.
func EmploymentType(text string) models.EmploymentType {
	return match(text, employmentRules, models.EmploymentFullTime)
}
