// Package validator adapts go-playground/validator to echo's Validator interface.
package validator

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type customValidator struct {
	validate *validator.Validate
}

// New creates the validator installed on the echo server.
func New() echo.Validator {
	return &customValidator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Validate implements echo.Validator.
func (v *customValidator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return nil
}
