// Package handler contains the HTTP handlers for the application.
package handler

import (
	"log/slog"
	"net/http"

	"passport/internal/delivery/http/middleware"
	"passport/internal/delivery/http/response"
	"passport/internal/domain/entity"
	domainerrors "passport/internal/domain/errors"
	"passport/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// UserHandler holds dependencies for user and session handlers.
type UserHandler struct {
	userUc    usecase.UserUsecase
	sessionUc usecase.SessionUsecase
	logger    *slog.Logger
}

// NewUserHandler is the constructor for UserHandler, injected by Fx.
func NewUserHandler(userUc usecase.UserUsecase, sessionUc usecase.SessionUsecase, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		userUc:    userUc,
		sessionUc: sessionUc,
		logger:    logger,
	}
}

// registerRequest is the body of POST /users.
type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password"`
}

// userResponse is the public shape of a user. The password digest never
// appears in any response.
type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// tokenResponse is the body of a successful sign-in.
type tokenResponse struct {
	Token string `json:"token"`
}

// changePasswordRequest is the body of PUT /password.
type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// authedUser pulls the user placed on the context by the auth middleware.
func authedUser(c echo.Context) (*entity.User, error) {
	user, ok := c.Get(middleware.ContextKeyUser).(*entity.User)
	if !ok || user == nil {
		return nil, domainerrors.ErrMissingOrMalformedHeader.WrapMessage("no authenticated user on request")
	}

	return user, nil
}

// Register handles the user registration request.
func (h *UserHandler) Register(c echo.Context) error {
	var input registerRequest
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid registration input")
	}
	if err := c.Validate(&input); err != nil {
		return errors.WithStack(err)
	}

	output, err := h.userUc.Register(c.Request().Context(), usecase.RegisterInput{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, userResponse{
		ID:    output.User.ID.String(),
		Name:  output.User.Name,
		Email: output.User.Email,
	}, "User registered successfully")
}

// SignIn issues (or reuses) the session token for the user the password
// middleware already authenticated.
func (h *UserHandler) SignIn(c echo.Context) error {
	user, err := authedUser(c)
	if err != nil {
		return errors.WithStack(err)
	}

	output, err := h.sessionUc.SignIn(c.Request().Context(), user.ID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, tokenResponse{Token: output.Token}, "Signed in successfully")
}

// Me greets the bearer-authenticated user.
func (h *UserHandler) Me(c echo.Context) error {
	user, err := authedUser(c)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{
		"greeting": "Hello, " + user.Name,
	}, "")
}

// ChangePassword rotates the user's password digest and revokes all sessions.
func (h *UserHandler) ChangePassword(c echo.Context) error {
	user, err := authedUser(c)
	if err != nil {
		return errors.WithStack(err)
	}

	var input changePasswordRequest
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid password change input")
	}

	if err := h.userUc.ChangePassword(c.Request().Context(), usecase.ChangePasswordInput{
		UserID:          user.ID.String(),
		CurrentPassword: input.CurrentPassword,
		NewPassword:     input.NewPassword,
	}); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// SignOut revokes every session the authenticated user holds.
func (h *UserHandler) SignOut(c echo.Context) error {
	user, err := authedUser(c)
	if err != nil {
		return errors.WithStack(err)
	}

	if err := h.sessionUc.RevokeAll(c.Request().Context(), user.ID); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// HealthCheck is a simple handler to check if the service is up.
func HealthCheck(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"status": "ok"}, "Service is healthy")
}
