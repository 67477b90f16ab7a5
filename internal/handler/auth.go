package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/lmeyer/smokefree/internal/auth"
	"github.com/lmeyer/smokefree/internal/config"
	"github.com/lmeyer/smokefree/internal/model"
	"github.com/lmeyer/smokefree/internal/queue"
	"github.com/lmeyer/smokefree/internal/repository"
)

// AuthHandler bundles dependencies for the register/login endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  UserStore
	Tokens *auth.Provider
	Log    *logrus.Logger
	// Publish sends the registration event to the broker; nil disables
	// publishing. Failures are logged, never surfaced to the client.
	Publish func(ctx context.Context, ev queue.UserRegisteredEvent) error
	// Now is the clock used for validation and response timestamps.
	Now func() time.Time
}

func NewAuthHandler(cfg config.Config, users UserStore, tokens *auth.Provider, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Tokens: tokens, Log: log, Now: time.Now}
}

// ----- DTOs -----

type registerReq struct {
	Email             string     `json:"email"`
	Password          string     `json:"password"`
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

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResp struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

func (r registerReq) validate(now time.Time) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 72)),
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

// notInFuture rejects quit dates after the reference time: a future quit
// date would mean negative elapsed days downstream.
func notInFuture(now time.Time) validation.RuleFunc {
	return func(value interface{}) error {
		var t time.Time
		switch v := value.(type) {
		case *time.Time:
			if v == nil {
				return nil
			}
			t = *v
		case time.Time:
			t = v
		default:
			return nil
		}
		if !t.IsZero() && t.After(now) {
			return errors.New("must not be in the future")
		}
		return nil
	}
}

// Register creates the user and returns a token immediately. The store's
// unique email index is the authoritative duplicate guard; the ExistsByEmail
// probe only rejects the common case before paying for a bcrypt hash.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)

	now := h.Now().UTC()
	if err := req.validate(now); err != nil {
		return c.JSON(http.StatusBadRequest, validationError(err, now))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if exists, err := h.Users.ExistsByEmail(ctx, req.Email); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	} else if exists {
		return c.JSON(http.StatusConflict, conflictError("email", "this email address is already in use", now))
	}

	u := model.User{
		Email:             req.Email,
		Username:          req.Username,
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
	}
	uid, err := h.Users.Create(ctx, &u, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			// Lost the race against a concurrent registration.
			return c.JSON(http.StatusConflict, conflictError("email", "this email address is already in use", now))
		}
		h.Log.WithError(err).Error("create user failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	token, _, err := h.Tokens.Issue(req.Email)
	if err != nil {
		h.Log.WithError(err).Error("issue token failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}

	if h.Publish != nil {
		ev := queue.UserRegisteredEvent{
			UserID:       uid,
			Email:        req.Email,
			Username:     req.Username,
			RegisteredAt: now.Format(time.RFC3339),
		}
		if err := h.Publish(ctx, ev); err != nil {
			h.Log.WithError(err).Warn("publish registration event failed")
		}
	}

	h.Log.WithField("email", req.Email).Info("user registered")
	return c.JSON(http.StatusCreated, authResp{Token: token, Username: req.Username})
}

// Login verifies credentials and returns a fresh token. Unknown email and
// wrong password produce the same response so callers cannot enumerate
// accounts.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		h.Log.WithError(err).Error("login query failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	token, _, err := h.Tokens.Issue(u.Email)
	if err != nil {
		h.Log.WithError(err).Error("issue token failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}

	h.Log.WithField("email", u.Email).Info("user logged in")
	return c.JSON(http.StatusOK, authResp{Token: token, Username: u.Username})
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func floatOrZero(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
