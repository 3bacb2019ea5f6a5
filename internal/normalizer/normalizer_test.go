package normalizer

import (
	"testing"
	"time"

	"github.com/maxaizer/saramin-crawler/internal/domain/models"
	"github.com/stretchr/testify/assert"
)

var now = time.Date(2024, time.March, 10, 15, 30, 0, 0, time.UTC)

func Test_Experience_MatchesTokensInOrder(t *testing.T) {
	cases := map[string]models.ExperienceLevel{
		"":             models.ExperienceEntry,
		"   ":          models.ExperienceEntry,
		"신입":           models.ExperienceEntry,
		"신입·경력":        models.ExperienceEntry,
		"경력 3년↑":       models.ExperienceIntermediate,
		"시니어 개발자":      models.ExperienceSenior,
		"임원급":          models.ExperienceExecutive,
		"경력무관":         models.ExperienceIntermediate,
		"unknown text": models.ExperienceEntry,
	}
	for text, expected := range cases {
		assert.Equal(t, expected, Experience(text), text)
	}
}

func Test_EmploymentType_DefaultsToFullTime(t *testing.T) {
	cases := map[string]models.EmploymentType{
		"":          models.EmploymentFullTime,
		"정규직":       models.EmploymentFullTime,
		"계약직":       models.EmploymentContract,
		"인턴직":       models.EmploymentIntern,
		"파트타임":      models.EmploymentPartTime,
		"아르바이트":     models.EmploymentPartTime,
		"freelance": models.EmploymentFullTime,
	}
	for text, expected := range cases {
		assert.Equal(t, expected, EmploymentType(text), text)
	}
}

func Test_Deadline_PartialDates(t *testing.T) {
	n := New(Options{})

	for _, text := range []string{"~ 03/15(금)", "~03.15", "03/15", "~ 3.15(금)"} {
		deadline := n.Deadline(text, now)
		if assert.NotNil(t, deadline.Date, text) {
			assert.Equal(t, 2024, deadline.Date.Year())
			assert.Equal(t, time.March, deadline.Date.Month())
			assert.Equal(t, 15, deadline.Date.Day())
		}
		assert.False(t, deadline.AlwaysOpen)
	}
}

func Test_Deadline_AlwaysOpenIsThreeMonthsAhead(t *testing.T) {
	deadline := New(Options{}).Deadline("상시채용", now)

	assert.True(t, deadline.AlwaysOpen)
	if assert.NotNil(t, deadline.Date) {
		assert.Equal(t, time.June, deadline.Date.Month())
		assert.Equal(t, 10, deadline.Date.Day())
	}
}

func Test_Deadline_TodayAndTomorrow(t *testing.T) {
	n := New(Options{})

	today := n.Deadline("오늘마감", now)
	tomorrow := n.Deadline("내일마감", now)

	assert.Equal(t, 10, today.Date.Day())
	assert.Equal(t, 11, tomorrow.Date.Day())
}

func Test_Deadline_UnparseableReturnsNil(t *testing.T) {
	n := New(Options{})

	for _, text := range []string{"", "채용 시 마감 예정", "13/45", "02/30", "abc"} {
		deadline := n.Deadline(text, now)
		assert.Nil(t, deadline.Date, text)
	}
}

func Test_Deadline_FullDate(t *testing.T) {
	deadline := New(Options{}).Deadline("~2025.01.05", now)

	if assert.NotNil(t, deadline.Date) {
		assert.Equal(t, 2025, deadline.Date.Year())
		assert.Equal(t, time.January, deadline.Date.Month())
	}
}

func Test_Deadline_YearRollover(t *testing.T) {
	december := time.Date(2024, time.December, 20, 9, 0, 0, 0, time.UTC)

	plain := New(Options{}).Deadline("~01/05", december)
	rolled := New(Options{YearRollover: true}).Deadline("~01/05", december)

	assert.Equal(t, 2024, plain.Date.Year())
	assert.Equal(t, 2025, rolled.Date.Year())

	sameDay := New(Options{YearRollover: true}).Deadline("12/20", december)
	assert.Equal(t, 2024, sameDay.Date.Year())
}

func Test_Salary_Negotiable(t *testing.T) {
	n := New(Options{})

	for _, text := range []string{"", "회사내규에 따름", "면접 후 결정", "급여 협의", "no digits"} {
		salary := n.Salary(text)
		assert.True(t, salary.IsNegotiable, text)
		assert.Nil(t, salary.Min, text)
		assert.Nil(t, salary.Max, text)
		assert.Equal(t, DefaultCurrency, salary.Currency)
	}
}

func Test_Salary_Range(t *testing.T) {
	salary := New(Options{}).Salary("연봉 3,000~4,000만원")

	assert.False(t, salary.IsNegotiable)
	assert.Equal(t, int64(30_000_000), *salary.Min)
	assert.Equal(t, int64(40_000_000), *salary.Max)
}

func Test_Salary_SingleAmount(t *testing.T) {
	salary := New(Options{}).Salary("연봉 4500만원 이상")

	assert.Equal(t, int64(45_000_000), *salary.Min)
	assert.Equal(t, int64(45_000_000), *salary.Max)
}

func Test_Salary_UnitIsConfigurable(t *testing.T) {
	withUnit := New(Options{SalaryUnit: 1000}).Salary("월 300만원")
	withoutUnit := New(Options{}).Salary("시급 12000원")

	assert.Equal(t, int64(300_000), *withUnit.Min)
	assert.Equal(t, int64(12000), *withoutUnit.Min)
}

func Test_Salary_LargeUnit(t *testing.T) {
	n := New(Options{})

	single := n.Salary("연봉 1억원 이상")
	assert.False(t, single.IsNegotiable)
	assert.Equal(t, int64(100_000_000), *single.Min)
	assert.Equal(t, int64(100_000_000), *single.Max)

	combined := n.Salary("연봉 1억 2,000만원")
	assert.Equal(t, int64(120_000_000), *combined.Min)
	assert.Equal(t, int64(120_000_000), *combined.Max)

	mixedRange := n.Salary("연봉 8,000만~1억 2,000만원")
	assert.Equal(t, int64(80_000_000), *mixedRange.Min)
	assert.Equal(t, int64(120_000_000), *mixedRange.Max)

	largeRange := n.Salary("연봉 1억~1억 5,000만원")
	assert.Equal(t, int64(100_000_000), *largeRange.Min)
	assert.Equal(t, int64(150_000_000), *largeRange.Max)
}

func Test_Salary_LargeUnitIsConfigurable(t *testing.T) {
	salary := New(Options{SalaryUnit: 10, LargeSalaryUnit: 1000}).Salary("연봉 2억 30만원")

	assert.Equal(t, int64(2300), *salary.Min)
}

func Test_Salary_OverflowIsNegotiable(t *testing.T) {
	n := New(Options{})

	for _, text := range []string{"9999999999999999만원", "연봉 99999999999억원", "99999999999999999999원", "연봉 92233720368억 9999만원"} {
		salary := n.Salary(text)
		assert.True(t, salary.IsNegotiable, text)
		assert.Nil(t, salary.Min, text)
		assert.Nil(t, salary.Max, text)
	}
}
