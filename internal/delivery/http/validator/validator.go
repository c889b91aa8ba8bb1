// Package validator adapts go-playground validation to echo's Validator
// interface.
package validator

import (
	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the go-playground validator for echo.
type CustomValidator struct {
	validator *validator.Validate
}

// New creates the request validator.
func New() *CustomValidator {
	return &CustomValidator{
		validator: validator.New(),
	}
}

// Validate implements echo.Validator.
func (cv *CustomValidator) Validate(i any) error {
	return cv.validator.Struct(i)
}
