package http

import (
	"fmt"
	"net/http"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = validator.New()

// ReadAndValidateRequest binds path/query/body into req, applies struct
// defaults and validates the result.
func ReadAndValidateRequest[T any](c echo.Context, req *T) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("malformed request: %v", err))
	}
	if err := defaults.Set(req); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "apply defaults")
	}
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, validationMessage(err))
	}
	return nil
}

func validationMessage(err error) string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return "invalid request"
	}
	first := errs[0]
	return fmt.Sprintf("invalid field %q: failed %q constraint", first.Field(), first.Tag())
}
