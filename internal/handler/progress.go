package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/lmeyer/smokefree/internal/model"
	"github.com/lmeyer/smokefree/internal/progress"
)

// ProgressHandler serves the derived-metrics endpoints. All computation is
// delegated to the progress package with an injected reference time; the
// handler only resolves the caller, shapes the response and snapshots
// health milestones.
type ProgressHandler struct {
	Resolver   IdentityResolver
	Milestones MilestoneStore // nil disables snapshotting
	Log        *logrus.Logger
	Now        func() time.Time
}

func NewProgressHandler(resolver IdentityResolver, milestones MilestoneStore, log *logrus.Logger) *ProgressHandler {
	return &ProgressHandler{Resolver: resolver, Milestones: milestones, Log: log, Now: time.Now}
}

// userHealthStats are the static profile figures returned alongside the
// computed metrics.
type userHealthStats struct {
	Age           *int     `json:"age,omitempty"`
	SmokingYears  int      `json:"smoking_years"`
	Preexisting   *string  `json:"preexisting_conditions,omitempty"`
	BodyWeight    *float64 `json:"body_weight,omitempty"`
	SportActivity *string  `json:"sport_activity,omitempty"`
}

type healthProgressResp struct {
	ShortTerm       []progress.Metric `json:"short_term"`
	LongTerm        []progress.Metric `json:"long_term"`
	PermanentDamage []progress.Metric `json:"permanent_damage"`
	UserStats       userHealthStats   `json:"user_stats"`
}

// Dashboard returns days smoke-free, money saved and cigarettes avoided.
func (h *ProgressHandler) Dashboard(c echo.Context) error {
	u, err := resolveCaller(c, h.Resolver)
	if err != nil {
		return respondResolveError(c, h.Log, err)
	}

	stats, err := progress.Dashboard(profileOf(u), h.Now().UTC())
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// HealthProgress returns the three metric families plus static user stats.
// Without a quit date all lists come back empty; this is not an error. The
// computed metrics are also snapshotted to the milestone store, best-effort.
func (h *ProgressHandler) HealthProgress(c echo.Context) error {
	u, err := resolveCaller(c, h.Resolver)
	if err != nil {
		return respondResolveError(c, h.Log, err)
	}

	now := h.Now().UTC()
	report := progress.HealthReport(profileOf(u), now)
	h.snapshot(c, u, report, now)

	return c.JSON(http.StatusOK, healthProgressResp{
		ShortTerm:       report.ShortTerm,
		LongTerm:        report.LongTerm,
		PermanentDamage: report.PermanentDamage,
		UserStats: userHealthStats{
			Age:           u.Age,
			SmokingYears:  u.SmokingYears,
			Preexisting:   u.Preexisting,
			BodyWeight:    u.BodyWeight,
			SportActivity: u.SportActivity,
		},
	})
}

// Statistics returns the smoke-free stats, the monthly series, the
// wellbeing trio and the success rates.
func (h *ProgressHandler) Statistics(c echo.Context) error {
	u, err := resolveCaller(c, h.Resolver)
	if err != nil {
		return respondResolveError(c, h.Log, err)
	}

	stats, err := progress.Compute(profileOf(u), h.Now().UTC())
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// snapshot persists the report as milestone rows. Failures are logged and
// swallowed: the table is a cache, not the source of truth.
func (h *ProgressHandler) snapshot(c echo.Context, u model.User, r progress.Report, now time.Time) {
	if h.Milestones == nil {
		return
	}
	all := make([]model.HealthMilestone, 0, len(r.ShortTerm)+len(r.LongTerm)+len(r.PermanentDamage))
	for _, m := range r.ShortTerm {
		all = append(all, milestoneOf(u, m))
	}
	for _, m := range r.LongTerm {
		all = append(all, milestoneOf(u, m))
	}
	for _, m := range r.PermanentDamage {
		all = append(all, milestoneOf(u, m))
	}
	if len(all) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Milestones.UpsertAll(ctx, u.ID, all, now); err != nil {
		h.Log.WithError(err).Warn("milestone snapshot failed")
	}
}

func milestoneOf(u model.User, m progress.Metric) model.HealthMilestone {
	ms := model.HealthMilestone{
		UserID:           u.ID,
		MetricName:       m.Name,
		CurrentValue:     m.CurrentValue,
		MaxValue:         m.MaxValue,
		Unit:             m.Unit,
		Description:      m.Description,
		PermanentDamage:  m.PermanentDamage,
		ExpectedRecovery: m.ExpectedRecovery,
	}
	if !m.PermanentDamage {
		ms.RecoveryStart = u.QuitDate
	}
	return ms
}

func profileOf(u model.User) progress.Profile {
	return progress.Profile{
		QuitDate:          u.QuitDate,
		CigarettesPerDay:  u.CigarettesPerDay,
		PricePerPack:      u.PricePerPack,
		CigarettesPerPack: u.CigarettesPerPack,
		SmokingYears:      u.SmokingYears,
	}
}

// respondDomainError maps engine precondition failures onto 400s with a
// stable error code, keeping arithmetic faults out of responses entirely.
func respondDomainError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, progress.ErrQuitDateNotSet):
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":      "quit date not set",
			"error_code": "QUIT_DATE_NOT_SET",
		})
	case errors.Is(err, progress.ErrPackSizeRequired):
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":      "cigarettes per pack must be set",
			"error_code": "PACK_SIZE_REQUIRED",
		})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "computation failed"})
	}
}
