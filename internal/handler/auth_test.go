package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/lmeyer/smokefree/internal/auth"
	"github.com/lmeyer/smokefree/internal/config"
	"github.com/lmeyer/smokefree/internal/model"
	"github.com/lmeyer/smokefree/internal/queue"
	"github.com/lmeyer/smokefree/internal/repository"
)

// fakeUserStore is an in-memory UserStore keyed by email and username.
type fakeUserStore struct {
	byEmail    map[string]model.User
	byUsername map[string]model.User
	nextID     uint64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byEmail:    map[string]model.User{},
		byUsername: map[string]model.User{},
		nextID:     1,
	}
}

func (s *fakeUserStore) add(u model.User, password string) model.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	u.PasswordHash = string(hash)
	if u.ID == 0 {
		u.ID = s.nextID
		s.nextID++
	}
	s.byEmail[u.Email] = u
	s.byUsername[u.Username] = u
	return u
}

func (s *fakeUserStore) Create(_ context.Context, u *model.User, password string, _ int) (uint64, error) {
	if _, ok := s.byEmail[u.Email]; ok {
		return 0, repository.ErrEmailExists
	}
	stored := s.add(*u, password)
	return stored.ID, nil
}

func (s *fakeUserStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	_, ok := s.byEmail[email]
	return ok, nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	u, ok := s.byEmail[email]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (s *fakeUserStore) UpdateProfile(_ context.Context, username string, p model.ProfileUpdate) (model.User, error) {
	u, ok := s.byUsername[username]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	u.ProfileImage = p.ProfileImage
	u.QuitDate = p.QuitDate
	u.CigarettesPerDay = p.CigarettesPerDay
	u.PricePerPack = p.PricePerPack
	u.CigarettesPerPack = p.CigarettesPerPack
	u.Age = p.Age
	u.SmokingYears = p.SmokingYears
	u.Preexisting = p.Preexisting
	u.BodyWeight = p.BodyWeight
	u.SportActivity = p.SportActivity
	s.byEmail[u.Email] = u
	s.byUsername[username] = u
	return u, nil
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newAuthHandler(store UserStore) *AuthHandler {
	cfg := config.Config{JWTSecret: "test-secret", BcryptCost: bcrypt.MinCost}
	provider := auth.NewProvider([]byte(cfg.JWTSecret), time.Hour, nil)
	return NewAuthHandler(cfg, store, provider, testLogger())
}

func doJSON(t *testing.T, h echo.HandlerFunc, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	return rec
}

func TestRegister_CreatesUserAndReturnsToken(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	h := newAuthHandler(store)
	published := false
	h.Publish = func(context.Context, queue.UserRegisteredEvent) error {
		published = true
		return nil
	}

	rec := doJSON(t, h.Register, http.MethodPost, "/v1/auth/register",
		`{"email":"New@B.com","password":"secret-pass","username":"newbie","cigarettes_per_day":10,"price_per_pack":5.0,"cigarettes_per_pack":20}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Token    string `json:"token"`
		Username string `json:"username"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "newbie", resp.Username)
	assert.True(t, published)

	// Email was normalized before storage and the token subject matches it.
	stored, err := store.GetByEmail(context.Background(), "new@b.com")
	require.NoError(t, err)
	assert.Equal(t, "new@b.com", stored.Email)

	email, err := h.Tokens.Validate(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "new@b.com", email)
}

func TestRegister_ValidationEnumeratesAllFields(t *testing.T) {
	t.Parallel()

	h := newAuthHandler(newFakeUserStore())
	rec := doJSON(t, h.Register, http.MethodPost, "/v1/auth/register",
		`{"email":"not-an-email","password":"short","cigarettes_per_pack":-1}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		ErrorCode   string            `json:"error_code"`
		FieldErrors map[string]string `json:"field_errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "VALIDATION_ERROR", resp.ErrorCode)
	assert.Contains(t, resp.FieldErrors, "email")
	assert.Contains(t, resp.FieldErrors, "password")
	assert.Contains(t, resp.FieldErrors, "username")
	assert.Contains(t, resp.FieldErrors, "cigarettes_per_pack")
	assert.Len(t, resp.FieldErrors, 4, "all violated fields reported at once")
}

func TestRegister_FutureQuitDateRejected(t *testing.T) {
	t.Parallel()

	h := newAuthHandler(newFakeUserStore())
	future := time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339)
	rec := doJSON(t, h.Register, http.MethodPost, "/v1/auth/register",
		`{"email":"a@b.com","password":"secret-pass","username":"a","quit_date":"`+future+`"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp struct {
		FieldErrors map[string]string `json:"field_errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.FieldErrors, "quit_date")
}

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	store.add(model.User{Email: "taken@b.com", Username: "first"}, "whatever-pass")

	h := newAuthHandler(store)
	rec := doJSON(t, h.Register, http.MethodPost, "/v1/auth/register",
		`{"email":"taken@b.com","password":"secret-pass","username":"second"}`)

	require.Equal(t, http.StatusConflict, rec.Code)
	var resp struct {
		ErrorCode string `json:"error_code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "USER_EXISTS", resp.ErrorCode)
}

func TestLogin_Success(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	store.add(model.User{Email: "a@b.com", Username: "smoky"}, "correct-horse")

	h := newAuthHandler(store)
	rec := doJSON(t, h.Login, http.MethodPost, "/v1/auth/login",
		`{"email":"a@b.com","password":"correct-horse"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Token    string `json:"token"`
		Username string `json:"username"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "smoky", resp.Username)

	email, err := h.Tokens.Validate(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", email)
}

func TestLogin_UniformInvalidCredentials(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	store.add(model.User{Email: "a@b.com", Username: "smoky"}, "correct-horse")
	h := newAuthHandler(store)

	unknown := doJSON(t, h.Login, http.MethodPost, "/v1/auth/login",
		`{"email":"nobody@b.com","password":"correct-horse"}`)
	wrongPass := doJSON(t, h.Login, http.MethodPost, "/v1/auth/login",
		`{"email":"a@b.com","password":"wrong-horse"}`)

	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.JSONEq(t, unknown.Body.String(), wrongPass.Body.String(),
		"unknown email and wrong password must be indistinguishable")
}
