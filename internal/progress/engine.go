// Package progress derives smoking-cessation metrics from a user's quit
// date and smoking profile. Every function is pure: the reference time is a
// parameter, nothing reads the system clock, nothing mutates its inputs and
// nothing touches I/O.
package progress

import (
	"errors"
	"math"
	"time"
)

// Errors for domain preconditions. They are returned instead of letting a
// zero divisor or a missing quit date surface as Inf, NaN or a negative
// duration.
var (
	ErrQuitDateNotSet   = errors.New("progress: quit date not set")
	ErrPackSizeRequired = errors.New("progress: cigarettes per pack must be positive")
)

// Profile is the slice of the user record the engine needs.
type Profile struct {
	QuitDate          *time.Time
	CigarettesPerDay  int
	PricePerPack      float64
	CigarettesPerPack int
	SmokingYears      int
}

// Metric is one progress indicator. CurrentValue is a clamped
// percent-of-milestone-reached, not a raw physiological value.
type Metric struct {
	Name            string  `json:"metric_name"`
	CurrentValue    float64 `json:"current_value"`
	MaxValue        float64 `json:"max_value"`
	Unit            string  `json:"unit"`
	Description     string  `json:"description"`
	PermanentDamage bool    `json:"is_permanent_damage"`
	// ExpectedRecovery is the milestone label ("72 hours"); empty for
	// permanent-damage metrics, where recovery is not modeled.
	ExpectedRecovery string `json:"expected_recovery,omitempty"`
}

// Report groups the three health-metric families.
type Report struct {
	ShortTerm       []Metric `json:"short_term"`
	LongTerm        []Metric `json:"long_term"`
	PermanentDamage []Metric `json:"permanent_damage"`
}

// DashboardStats are the aggregate savings figures.
type DashboardStats struct {
	Days              int     `json:"days_smoke_free"`
	MoneySaved        float64 `json:"money_saved"`
	CigarettesAvoided int     `json:"cigarettes_avoided"`
}

// DaysSinceQuit returns the whole days elapsed between quit and ref,
// clamped at zero for a quit date in the future.
func DaysSinceQuit(quit, ref time.Time) int {
	d := int(math.Floor(ref.Sub(quit).Hours() / 24))
	if d < 0 {
		return 0
	}
	return d
}

// HealthReport computes all three metric families. Without a quit date it
// returns empty lists for all of them, permanent damage included, matching
// the "has not started cessation" presentation.
func HealthReport(p Profile, ref time.Time) Report {
	if p.QuitDate == nil {
		return Report{
			ShortTerm:       []Metric{},
			LongTerm:        []Metric{},
			PermanentDamage: []Metric{},
		}
	}
	return Report{
		ShortTerm:       ShortTerm(*p.QuitDate, ref),
		LongTerm:        LongTerm(*p.QuitDate, ref),
		PermanentDamage: PermanentDamage(p.SmokingYears),
	}
}

// ShortTerm covers the first three days after quitting.
func ShortTerm(quit, ref time.Time) []Metric {
	elapsed := ref.Sub(quit)
	if elapsed < 0 {
		elapsed = 0
	}
	return []Metric{
		metric("Heart rate", milestonePct(elapsed.Minutes(), 20), "BPM",
			"Your heart rate returns to normal", "20 minutes"),
		metric("Carbon monoxide clearance", milestonePct(elapsed.Hours(), 24), "%",
			"Carbon monoxide is cleared from your body", "24 hours"),
		metric("Taste and smell", milestonePct(elapsed.Hours(), 72), "%",
			"Your senses of taste and smell improve", "72 hours"),
	}
}

// LongTerm covers the weeks-to-a-year recovery window.
func LongTerm(quit, ref time.Time) []Metric {
	days := ref.Sub(quit).Hours() / 24
	if days < 0 {
		days = 0
	}
	return []Metric{
		metric("Circulation", milestonePct(days, 84), "%",
			"Your circulation improves", "12 weeks"),
		metric("Lung capacity", milestonePct(days, 270), "%",
			"Your lung capacity increases", "9 months"),
		metric("Heart attack risk reduction", milestonePct(days, 365), "%",
			"Your risk of a heart attack drops", "1 year"),
	}
}

// PermanentDamage depends only on cumulative smoking years, not on the quit
// date. Below five years no permanent damage is modeled.
func PermanentDamage(smokingYears int) []Metric {
	if smokingYears < 5 {
		return []Metric{}
	}
	metrics := []Metric{{
		Name:            "Lung tissue",
		CurrentValue:    math.Min(100, float64(smokingYears)*2),
		MaxValue:        100,
		Unit:            "%",
		Description:     "Potential permanent damage to lung tissue",
		PermanentDamage: true,
	}}
	if smokingYears >= 10 {
		metrics = append(metrics, Metric{
			Name:            "COPD risk",
			CurrentValue:    math.Min(100, float64(smokingYears)*3),
			MaxValue:        100,
			Unit:            "%",
			Description:     "Elevated risk of chronic obstructive pulmonary disease (COPD)",
			PermanentDamage: true,
		})
	}
	return metrics
}

// Dashboard computes the aggregate savings figures. It refuses to run
// without a quit date or a positive pack size.
func Dashboard(p Profile, ref time.Time) (DashboardStats, error) {
	if p.QuitDate == nil {
		return DashboardStats{}, ErrQuitDateNotSet
	}
	if p.CigarettesPerPack <= 0 {
		return DashboardStats{}, ErrPackSizeRequired
	}
	days := DaysSinceQuit(*p.QuitDate, ref)
	perDay := float64(p.CigarettesPerDay) * p.PricePerPack / float64(p.CigarettesPerPack)
	return DashboardStats{
		Days:              days,
		MoneySaved:        roundCents(float64(days) * perDay),
		CigarettesAvoided: days * p.CigarettesPerDay,
	}, nil
}

func metric(name string, pct float64, unit, description, expectedRecovery string) Metric {
	return Metric{
		Name:             name,
		CurrentValue:     pct,
		MaxValue:         100,
		Unit:             unit,
		Description:      description,
		ExpectedRecovery: expectedRecovery,
	}
}

// milestonePct converts elapsed-over-threshold into a percentage clamped to
// [0, 100].
func milestonePct(elapsed, threshold float64) float64 {
	pct := elapsed / threshold * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// roundCents rounds half-up on the cent value.
func roundCents(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
