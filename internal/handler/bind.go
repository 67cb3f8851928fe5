package handler

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"bloomy-gift-service/internal/apperr"
)

// bindAndValidate decodes the request body into req and runs its validate
// tags through the validator registered on the echo instance.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrInvalidRequest, err)
	}
	if err := c.Validate(req); err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrInvalidRequest, err)
	}
	return nil
}
