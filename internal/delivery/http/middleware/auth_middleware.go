package middleware

import (
	"strings"

	domainerrors "passport/internal/domain/errors"
	"passport/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// ContextKeyUser is the echo.Context key the authenticated user is stored under.
const ContextKeyUser = "authedUser"

// AuthMiddleware resolves inbound credentials into an authenticated user.
// Neither mode mutates session state; only the sign-in handler mints tokens.
type AuthMiddleware struct {
	userUc    usecase.UserUsecase
	sessionUc usecase.SessionUsecase
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(userUc usecase.UserUsecase, sessionUc usecase.SessionUsecase) *AuthMiddleware {
	return &AuthMiddleware{userUc: userUc, sessionUc: sessionUc}
}

// passwordCredentials is the sign-in request body.
type passwordCredentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthenticatePassword validates an email and plaintext password carried in the
// request body and stores the matching user on the context.
func (m *AuthMiddleware) AuthenticatePassword(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		var creds passwordCredentials
		if err := c.Bind(&creds); err != nil {
			return domainerrors.ErrValidationFailed.WrapMessage("invalid sign-in body")
		}

		user, err := m.userUc.VerifyPassword(c.Request().Context(), usecase.VerifyPasswordInput{
			Email:    creds.Email,
			Password: creds.Password,
		})
		if err != nil {
			return errors.WithStack(err)
		}

		c.Set(ContextKeyUser, user)

		return next(c)
	}
}

// AuthenticateBearer validates the `Authorization: Bearer <token>` header and
// stores the token's owner on the context.
func (m *AuthMiddleware) AuthenticateBearer(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return domainerrors.ErrMissingOrMalformedHeader.WrapMessage("authorization header is missing")
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader || tokenString == "" {
			return domainerrors.ErrMissingOrMalformedHeader.WrapMessage("authorization header is not a Bearer token")
		}

		user, err := m.sessionUc.Resolve(c.Request().Context(), tokenString)
		if err != nil {
			return errors.WithStack(err)
		}

		c.Set(ContextKeyUser, user)

		return next(c)
	}
}
