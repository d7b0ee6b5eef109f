package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"passport/internal/domain/entity"
	domainerrors "passport/internal/domain/errors"
	"passport/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSessionUsecase struct {
	user  *entity.User
	token string
}

func (s *stubSessionUsecase) SignIn(_ context.Context, _ uuid.UUID) (*usecase.SignInOutput, error) {
	return &usecase.SignInOutput{Token: s.token}, nil
}

func (s *stubSessionUsecase) Resolve(_ context.Context, token string) (*entity.User, error) {
	if s.user != nil && token == s.token {
		return s.user, nil
	}

	return nil, domainerrors.ErrTokenNotFound.WrapMessage("unknown session token")
}

func (s *stubSessionUsecase) RevokeAll(_ context.Context, _ uuid.UUID) error {
	return nil
}

type stubUserUsecase struct {
	user     *entity.User
	password string
}

func (s *stubUserUsecase) Register(_ context.Context, _ usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	return &usecase.RegisterOutput{User: s.user}, nil
}

func (s *stubUserUsecase) VerifyPassword(_ context.Context, input usecase.VerifyPasswordInput) (*entity.User, error) {
	if s.user != nil && input.Email == s.user.Email && input.Password == s.password {
		return s.user, nil
	}

	return nil, domainerrors.ErrInvalidCredentials.WrapMessage("password mismatch")
}

func (s *stubUserUsecase) ChangePassword(_ context.Context, _ usecase.ChangePasswordInput) error {
	return nil
}

func newAuthTestServer(t *testing.T) (*echo.Echo, *entity.User) {
	t.Helper()

	user := &entity.User{ID: uuid.New(), Name: "Alice", Email: "alice@x.com"}
	sessionUc := &stubSessionUsecase{user: user, token: "good-token"}
	userUc := &stubUserUsecase{user: user, password: "secret"}

	m := NewAuthMiddleware(userUc, sessionUc)
	errorMw := NewErrorMiddleware(slog.New(slog.NewTextHandler(io.Discard, nil)))

	e := echo.New()
	e.HTTPErrorHandler = errorMw.HandleHTTPError

	okHandler := func(c echo.Context) error {
		authed, ok := c.Get(ContextKeyUser).(*entity.User)
		require.True(t, ok)

		return c.String(http.StatusOK, authed.Name)
	}

	e.GET("/protected", okHandler, m.AuthenticateBearer)
	e.POST("/signin", okHandler, m.AuthenticatePassword)

	return e, user
}

func TestAuthenticateBearer(t *testing.T) {
	e, _ := newAuthTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Alice", rec.Body.String())
}

func TestAuthenticateBearerMissingHeader(t *testing.T) {
	e, _ := newAuthTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "MISSING_OR_MALFORMED_HEADER")
}

func TestAuthenticateBearerNotBearerScheme(t *testing.T) {
	e, _ := newAuthTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Basic YWxpY2U6c2VjcmV0")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "MISSING_OR_MALFORMED_HEADER")
}

func TestAuthenticateBearerUnknownToken(t *testing.T) {
	e, _ := newAuthTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer revoked-token")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "TOKEN_NOT_FOUND")
}

func TestAuthenticatePassword(t *testing.T) {
	e, _ := newAuthTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/signin", strings.NewReader(`{"email":"alice@x.com","password":"secret"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Alice", rec.Body.String())
}

func TestAuthenticatePasswordWrongPassword(t *testing.T) {
	e, _ := newAuthTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/signin", strings.NewReader(`{"email":"alice@x.com","password":"wrong"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_CREDENTIALS")
}
