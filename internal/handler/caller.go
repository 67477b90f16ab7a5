package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/lmeyer/smokefree/internal/middleware"
	"github.com/lmeyer/smokefree/internal/model"
	"github.com/lmeyer/smokefree/internal/repository"
)

var errAnonymous = errors.New("no identity bound")

// resolveCaller loads the full user record behind the identity bound by the
// authentication gate.
func resolveCaller(c echo.Context, r IdentityResolver) (model.User, error) {
	email, ok := middleware.CurrentEmail(c)
	if !ok {
		return model.User{}, errAnonymous
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	return r.Resolve(ctx, email)
}

// respondResolveError maps resolveCaller failures onto HTTP responses: an
// anonymous caller gets the uniform 401, a token whose subject no longer
// resolves gets 404, anything else is a server fault.
func respondResolveError(c echo.Context, log *logrus.Logger, err error) error {
	switch {
	case errors.Is(err, errAnonymous):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	case errors.Is(err, repository.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	default:
		log.WithError(err).Error("resolve caller failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
}
