// Package middleware provides shared request processing: the per-request
// authentication gate, the authenticated-only guard, and the Redis-backed
// response cache and rate limiter.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/lmeyer/smokefree/internal/auth"
)

// identityKey is the context key under which the gate binds the
// authenticated email. The binding lives in the per-request echo.Context,
// so it can never leak across concurrent requests.
const identityKey = "identity_email"

const bearerPrefix = "Bearer "

// Identity is the authentication gate. It runs once per request, before any
// route handler, and either binds the token's subject email into the
// request context or leaves the request anonymous. It NEVER fails the
// request: a missing header, a wrong prefix, an invalid token or an
// unexpected internal fault all downgrade to "no identity" (fail open to
// anonymous, not to authenticated), and only the last case is logged above
// debug level. Rejecting anonymous callers is the job of RequireAuth on the
// protected routes.
func Identity(provider *auth.Provider, log *logrus.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			// Only the exact "Bearer " prefix (case-sensitive, one space)
			// counts as a token being present.
			if strings.HasPrefix(header, bearerPrefix) {
				raw := strings.TrimPrefix(header, bearerPrefix)
				email, err := safeValidate(provider, raw, log)
				if err != nil {
					log.WithError(err).Debug("discarding unverifiable bearer token")
				} else {
					SetIdentity(c, email)
				}
			}
			return next(c)
		}
	}
}

// safeValidate wraps token validation so that even a panic inside the
// parser downgrades to an anonymous request instead of aborting the
// pipeline.
func safeValidate(provider *auth.Provider, raw string, log *logrus.Logger) (email string, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("token validation panicked; treating request as anonymous")
			email, err = "", auth.ErrMalformed
		}
	}()
	return provider.Validate(raw)
}

// SetIdentity binds an authenticated email to the request context. Only the
// gate (and test setups standing in for it) should call this.
func SetIdentity(c echo.Context, email string) {
	c.Set(identityKey, email)
}

// CurrentEmail returns the identity bound by the gate, if any.
func CurrentEmail(c echo.Context) (string, bool) {
	email, ok := c.Get(identityKey).(string)
	return email, ok && email != ""
}

// RequireAuth rejects requests with no bound identity. The response is
// deliberately uniform: callers cannot tell a missing token from an expired
// or forged one.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := CurrentEmail(c); !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			}
			return next(c)
		}
	}
}
