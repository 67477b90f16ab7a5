package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/lmeyer/smokefree/internal/model"
	"github.com/lmeyer/smokefree/internal/repository"
)

// ProfileHandler serves profile reads for the authenticated caller and
// profile updates addressed by username.
type ProfileHandler struct {
	Users    UserStore
	Resolver IdentityResolver
	Log      *logrus.Logger
	Now      func() time.Time
}

func NewProfileHandler(users UserStore, resolver IdentityResolver, log *logrus.Logger) *ProfileHandler {
	return &ProfileHandler{Users: users, Resolver: resolver, Log: log, Now: time.Now}
}

type profileUpdateReq struct {
	Username          string     `json:"username"`
	ProfileImage      *string    `json:"profile_image"`
	QuitDate          *time.Time `json:"quit_date"`
	CigarettesPerDay  *int       `json:"cigarettes_per_day"`
	PricePerPack      *float64   `json:"price_per_pack"`
	CigarettesPerPack *int       `json:"cigarettes_per_pack"`
	Age               *int       `json:"age"`
	SmokingYears      *int       `json:"smoking_years"`
	Preexisting       *string    `json:"preexisting_conditions"`
	BodyWeight        *float64   `json:"body_weight"`
	SportActivity     *string    `json:"sport_activity"`
}

func (r profileUpdateReq) validate(now time.Time) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.QuitDate, validation.By(notInFuture(now))),
		validation.Field(&r.CigarettesPerDay, validation.Min(0)),
		validation.Field(&r.PricePerPack, validation.Min(0.0)),
		validation.Field(&r.CigarettesPerPack, validation.Min(1)),
		validation.Field(&r.Age, validation.Min(0), validation.Max(150)),
		validation.Field(&r.SmokingYears, validation.Min(0)),
		validation.Field(&r.BodyWeight, validation.Min(0.0)),
	)
}

// Get returns the stored profile of the authenticated caller. The password
// hash never serializes (json:"-" on the model).
func (h *ProfileHandler) Get(c echo.Context) error {
	u, err := resolveCaller(c, h.Resolver)
	if err != nil {
		return respondResolveError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, u)
}

// Update overwrites the profile field set of the user addressed by
// username. The whole set is written in one statement, so concurrent
// updates are last-write-wins.
func (h *ProfileHandler) Update(c echo.Context) error {
	var req profileUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)

	now := h.Now().UTC()
	if err := req.validate(now); err != nil {
		return c.JSON(http.StatusBadRequest, validationError(err, now))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	updated, err := h.Users.UpdateProfile(ctx, req.Username, model.ProfileUpdate{
		ProfileImage:      req.ProfileImage,
		QuitDate:          req.QuitDate,
		CigarettesPerDay:  intOrZero(req.CigarettesPerDay),
		PricePerPack:      floatOrZero(req.PricePerPack),
		CigarettesPerPack: intOrZero(req.CigarettesPerPack),
		Age:               req.Age,
		SmokingYears:      intOrZero(req.SmokingYears),
		Preexisting:       req.Preexisting,
		BodyWeight:        req.BodyWeight,
		SportActivity:     req.SportActivity,
	})
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		h.Log.WithError(err).Error("profile update failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, updated)
}
