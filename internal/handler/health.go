package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is the liveness probe.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Root answers GET / with a short banner.
func Root(c echo.Context) error {
	return c.String(http.StatusOK, "Portfolio API online")
}
