package progress

import (
	"math"
	"strings"
	"time"
)

// MonthBucket is one entry of the trailing-six-months usage series.
// Cigarettes counts the baseline consumption for the days of that month
// that fall strictly before the quit date; days on or after count zero.
type MonthBucket struct {
	Month      string  `json:"month"`
	Cigarettes int     `json:"cigarettes"`
	Expenses   float64 `json:"expenses"`
}

// SmokeFreeStats summarize the cessation run itself.
type SmokeFreeStats struct {
	Days          int     `json:"days"`
	LongestStreak int     `json:"longest_streak"`
	AveragePerDay int     `json:"average_per_day"`
	TotalSavings  float64 `json:"total_savings"`
}

// WellbeingMetric is a coarse 50-to-max indicator ramping over the first 90
// smoke-free days.
type WellbeingMetric struct {
	Name     string `json:"name"`
	Value    int    `json:"value"`
	MaxValue int    `json:"max_value"`
}

// Statistics is the full statistics-page payload.
type Statistics struct {
	SmokeFree    SmokeFreeStats    `json:"smoke_free_stats"`
	Monthly      []MonthBucket     `json:"monthly_stats"`
	Wellbeing    []WellbeingMetric `json:"health_metrics"`
	SuccessRates map[string]int    `json:"success_rates"`
}

// MonthlySeries builds the trailing six calendar months including the
// current one, oldest first. Expenses use the per-user pack pricing, so a
// positive pack size is required.
func MonthlySeries(p Profile, ref time.Time) ([]MonthBucket, error) {
	if p.QuitDate == nil {
		return []MonthBucket{}, nil
	}
	if p.CigarettesPerPack <= 0 {
		return nil, ErrPackSizeRequired
	}
	perCigarette := p.PricePerPack / float64(p.CigarettesPerPack)
	quitDay := dateOf(p.QuitDate.UTC())

	out := make([]MonthBucket, 0, 6)
	for i := 5; i >= 0; i-- {
		first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -i, 0)
		daysInMonth := first.AddDate(0, 1, -1).Day()

		// Whole days of this month strictly before the quit date still
		// count at the smoking baseline.
		smokedDays := int(quitDay.Sub(first).Hours() / 24)
		if smokedDays < 0 {
			smokedDays = 0
		}
		if smokedDays > daysInMonth {
			smokedDays = daysInMonth
		}

		cigarettes := smokedDays * p.CigarettesPerDay
		out = append(out, MonthBucket{
			Month:      strings.ToUpper(first.Format("Jan")),
			Cigarettes: cigarettes,
			Expenses:   roundCents(float64(cigarettes) * perCigarette),
		})
	}
	return out, nil
}

// Wellbeing returns the lung-function / energy / stress-resilience trio.
// Each starts at a base of 50 and ramps linearly to its maximum over the
// first 90 smoke-free days.
func Wellbeing(quit, ref time.Time) []WellbeingMetric {
	days := DaysSinceQuit(quit, ref)
	return []WellbeingMetric{
		{Name: "Lung function", Value: rampedValue(days, 90), MaxValue: 100},
		{Name: "Energy level", Value: rampedValue(days, 75), MaxValue: 100},
		{Name: "Stress resilience", Value: rampedValue(days, 70), MaxValue: 100},
	}
}

// SuccessRates reports craving-resistance rates by time of day. The values
// are population-level defaults until per-user craving tracking lands.
func SuccessRates() map[string]int {
	return map[string]int{
		"morning": 85,
		"midday":  75,
		"evening": 90,
		"night":   95,
	}
}

// Compute assembles the statistics payload. Without a quit date it returns
// the well-formed empty shape rather than failing.
func Compute(p Profile, ref time.Time) (Statistics, error) {
	if p.QuitDate == nil {
		return Statistics{
			Monthly:      []MonthBucket{},
			Wellbeing:    []WellbeingMetric{},
			SuccessRates: SuccessRates(),
		}, nil
	}
	monthly, err := MonthlySeries(p, ref)
	if err != nil {
		return Statistics{}, err
	}
	days := DaysSinceQuit(*p.QuitDate, ref)
	perDay := float64(p.CigarettesPerDay) * p.PricePerPack / float64(p.CigarettesPerPack)
	return Statistics{
		SmokeFree: SmokeFreeStats{
			Days:          days,
			LongestStreak: days, // relapse tracking not modeled; streak == run
			AveragePerDay: p.CigarettesPerDay,
			TotalSavings:  roundCents(float64(days) * perDay),
		},
		Monthly:      monthly,
		Wellbeing:    Wellbeing(*p.QuitDate, ref),
		SuccessRates: SuccessRates(),
	}, nil
}

func rampedValue(days, max int) int {
	base := 50
	improvement := int(math.Min(float64(max-base), float64(days*(max-base))/90.0))
	return base + improvement
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
