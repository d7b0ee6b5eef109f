// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"passport/internal/delivery/http/middleware"
	"passport/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	UserHandler         *handler.UserHandler
	AuthMiddleware      *middleware.AuthMiddleware
	RequestIDMiddleware *middleware.RequestIDMiddleware
	LoggerMiddleware    *middleware.LoggerMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	userHandler         *handler.UserHandler
	authMiddleware      *middleware.AuthMiddleware
	requestIDMiddleware *middleware.RequestIDMiddleware
	loggerMiddleware    *middleware.LoggerMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		userHandler:         params.UserHandler,
		authMiddleware:      params.AuthMiddleware,
		requestIDMiddleware: params.RequestIDMiddleware,
		loggerMiddleware:    params.LoggerMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.Use(r.requestIDMiddleware.Process)
	e.Use(r.loggerMiddleware.Handle)

	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Registration does not issue a token; sign-in is a separate step.
	e.POST("/users", r.userHandler.Register)

	// Password-authenticated sign-in
	e.POST("/signin", r.userHandler.SignIn, r.authMiddleware.AuthenticatePassword)

	// Routes that require a bearer token
	authed := e.Group("", r.authMiddleware.AuthenticateBearer)
	{
		authed.GET("/me", r.userHandler.Me)
		authed.GET("/info", r.userHandler.Me)
		authed.POST("/info", r.userHandler.Me)
		authed.PUT("/info", r.userHandler.Me)
		authed.PUT("/password", r.userHandler.ChangePassword)
		authed.POST("/signout", r.userHandler.SignOut)
	}
}
