package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Response is the envelope every API payload ships in.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func OK(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func Error(c echo.Context, status int, msg string) error {
	return c.JSON(status, Response{Success: false, Error: msg})
}
