package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmeyer/smokefree/internal/auth"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// run sends a request through Identity followed by a probe handler that
// reports what identity, if any, was bound.
func run(t *testing.T, provider *auth.Provider, header string) (bound string, ok bool, status int) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := Identity(provider, quietLogger())(func(c echo.Context) error {
		bound, ok = CurrentEmail(c)
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return bound, ok, rec.Code
}

func TestIdentity_ValidTokenBindsEmail(t *testing.T) {
	t.Parallel()

	p := auth.NewProvider([]byte("s3cret"), time.Hour, nil)
	tok, _, err := p.Issue("a@b.com")
	require.NoError(t, err)

	email, ok, status := run(t, p, "Bearer "+tok)
	assert.True(t, ok)
	assert.Equal(t, "a@b.com", email)
	assert.Equal(t, http.StatusOK, status)
}

func TestIdentity_AnonymousCases(t *testing.T) {
	t.Parallel()

	p := auth.NewProvider([]byte("s3cret"), time.Hour, nil)
	valid, _, err := p.Issue("a@b.com")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"lowercase bearer", "bearer " + valid},
		{"missing space", "Bearer" + valid},
		{"garbage token", "Bearer not.a.jwt"},
		{"wrong key", "Bearer " + mustIssue(t, []byte("other-key"), "a@b.com")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok, status := run(t, p, tt.header)
			assert.False(t, ok, "no identity must be bound")
			assert.Equal(t, http.StatusOK, status, "the gate must not fail the request")
		})
	}
}

func TestIdentity_ExpiredTokenIsAnonymous(t *testing.T) {
	t.Parallel()

	past := func() time.Time { return time.Now().Add(-48 * time.Hour) }
	issuer := auth.NewProvider([]byte("s3cret"), time.Hour, past)
	tok, _, err := issuer.Issue("a@b.com")
	require.NoError(t, err)

	validator := auth.NewProvider([]byte("s3cret"), time.Hour, nil)
	_, ok, status := run(t, validator, "Bearer "+tok)
	assert.False(t, ok)
	assert.Equal(t, http.StatusOK, status)
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	e := echo.New()
	handler := RequireAuth()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	t.Run("anonymous rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		require.NoError(t, handler(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bound identity passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set(identityKey, "a@b.com")
		require.NoError(t, handler(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func mustIssue(t *testing.T, secret []byte, email string) string {
	t.Helper()
	tok, _, err := auth.NewProvider(secret, time.Hour, nil).Issue(email)
	require.NoError(t, err)
	return tok
}
