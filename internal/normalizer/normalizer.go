package normalizer

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/maxaizer/saramin-crawler/internal/domain/models"
)

const (
	DefaultSalaryUnit       int64 = 10_000
	DefaultLargeSalaryUnit  int64 = 100_000_000
	DefaultAlwaysOpenMonths       = 3
	DefaultCurrency               = "KRW"
)

var (
	alwaysOpenTokens  = []string{"상시", "채용시"}
	todayTokens       = []string{"오늘마감"}
	tomorrowTokens    = []string{"내일마감"}
	negotiableTokens  = []string{"협의", "회사내규", "면접", "결정"}
	salaryUnitToken   = "만"
	largeUnitToken    = "억"
	salaryRangeTokens = []string{"~", "-", "～"}

	fullDateRe    = regexp.MustCompile(`(\d{4})\s*[/.-]\s*(\d{1,2})\s*[/.-]\s*(\d{1,2})`)
	partialDateRe = regexp.MustCompile(`(\d{1,2})\s*[/.]\s*(\d{1,2})`)
	amountRe      = regexp.MustCompile(`(\d[\d,]*)\s*(억|만)?`)
)

type Options struct {
	// SalaryUnit multiplies amounts written with the 만 unit.
	SalaryUnit int64
	// LargeSalaryUnit multiplies amounts written with the 억 unit.
	LargeSalaryUnit  int64
	AlwaysOpenMonths int
	// YearRollover moves a partial date that already passed into next year.
	YearRollover bool
}

type Normalizer struct {
	opts Options
}

func New(opts Options) *Normalizer {
	if opts.SalaryUnit <= 0 {
		opts.SalaryUnit = DefaultSalaryUnit
	}
	if opts.LargeSalaryUnit <= 0 {
		opts.LargeSalaryUnit = DefaultLargeSalaryUnit
	}
	if opts.AlwaysOpenMonths <= 0 {
		opts.AlwaysOpenMonths = DefaultAlwaysOpenMonths
	}
	return &Normalizer{opts: opts}
}

func (n *Normalizer) Experience(text string) models.ExperienceLevel {
	return Experience(text)
}

func (n *Normalizer) EmploymentType(text string) models.EmploymentType {
	return EmploymentType(text)
}

type Deadline struct {
	Date       *time.Time
	AlwaysOpen bool
}

// Deadline parses texts like "~ 03/15(금)", "~03.15" or "상시채용".
// A nil Date means the posting is open-ended or the text could not be read.
func (n *Normalizer) Deadline(text string, now time.Time) Deadline {
	text = strings.TrimSpace(text)
	if text == "" {
		return Deadline{}
	}

	if containsAny(text, alwaysOpenTokens) {
		date := endOfDay(now.AddDate(0, n.opts.AlwaysOpenMonths, 0))
		return Deadline{Date: &date, AlwaysOpen: true}
	}
	if containsAny(text, todayTokens) {
		date := endOfDay(now)
		return Deadline{Date: &date}
	}
	if containsAny(text, tomorrowTokens) {
		date := endOfDay(now.AddDate(0, 0, 1))
		return Deadline{Date: &date}
	}

	if parts := fullDateRe.FindStringSubmatch(text); parts != nil {
		year, _ := strconv.Atoi(parts[1])
		month, _ := strconv.Atoi(parts[2])
		day, _ := strconv.Atoi(parts[3])
		if date, ok := dateInYear(year, month, day, now.Location()); ok {
			return Deadline{Date: &date}
		}
		return Deadline{}
	}

	parts := partialDateRe.FindStringSubmatch(text)
	if parts == nil {
		return Deadline{}
	}
	month, _ := strconv.Atoi(parts[1])
	day, _ := strconv.Atoi(parts[2])

	date, ok := dateInYear(now.Year(), month, day, now.Location())
	if !ok {
		return Deadline{}
	}
	if n.opts.YearRollover && date.Before(startOfDay(now)) {
		if next, ok := dateInYear(now.Year()+1, month, day, now.Location()); ok {
			date = next
		}
	}
	return Deadline{Date: &date}
}

// Salary parses badges like "연봉 3,000~4,000만원", "연봉 1억 2,000만원" or "회사내규에 따름".
// Amounts that do not fit into int64 make the salary negotiable.
func (n *Normalizer) Salary(text string) models.Salary {
	negotiable := models.Salary{Currency: DefaultCurrency, IsNegotiable: true}

	text = strings.TrimSpace(text)
	if text == "" || containsAny(text, negotiableTokens) {
		return negotiable
	}

	amounts, ok := n.salaryAmounts(text)
	if !ok || len(amounts) == 0 {
		return negotiable
	}

	minAmount, maxAmount := amounts[0], amounts[0]
	if len(amounts) > 1 && containsAny(text, salaryRangeTokens) {
		maxAmount = amounts[1]
		if maxAmount < minAmount {
			minAmount, maxAmount = maxAmount, minAmount
		}
	}
	return models.Salary{Min: &minAmount, Max: &maxAmount, Currency: DefaultCurrency}
}

// salaryAmounts joins a 억 part with the 만 part right after it, so "1억 2,000만" is one amount.
func (n *Normalizer) salaryAmounts(text string) ([]int64, bool) {

	bareFactor := int64(1)
	if strings.Contains(text, salaryUnitToken) {
		bareFactor = n.opts.SalaryUnit
	}

	amounts := make([]int64, 0, 2)
	prevLargeEnd := -1
	for _, match := range amountRe.FindAllStringSubmatchIndex(text, -1) {
		value, err := strconv.ParseInt(strings.ReplaceAll(text[match[2]:match[3]], ",", ""), 10, 64)
		if err != nil {
			return nil, false
		}

		unit := ""
		if match[4] >= 0 {
			unit = text[match[4]:match[5]]
		}
		factor := bareFactor
		switch unit {
		case largeUnitToken:
			factor = n.opts.LargeSalaryUnit
		case salaryUnitToken:
			factor = n.opts.SalaryUnit
		}

		amount, ok := multiply(value, factor)
		if !ok {
			return nil, false
		}

		joined := unit == salaryUnitToken && prevLargeEnd >= 0 &&
			strings.TrimSpace(text[prevLargeEnd:match[0]]) == ""
		prevLargeEnd = -1

		if joined {
			last := len(amounts) - 1
			if amounts[last] > math.MaxInt64-amount {
				return nil, false
			}
			amounts[last] += amount
			continue
		}
		if amount == 0 {
			continue
		}
		amounts = append(amounts, amount)
		if unit == largeUnitToken {
			prevLargeEnd = match[1]
		}
	}
	return amounts, true
}

func multiply(value, factor int64) (int64, bool) {
	if value != 0 && factor > math.MaxInt64/value {
		return 0, false
	}
	return value * factor, true
}

func dateInYear(year, month, day int, loc *time.Location) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	date := time.Date(year, time.Month(month), day, 23, 59, 59, 0, loc)
	if date.Month() != time.Month(month) || date.Day() != day {
		return time.Time{}, false
	}
	return date, true
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

func containsAny(text string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(text, token) {
			return true
		}
	}
	return false
}
