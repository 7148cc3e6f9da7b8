package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health answers liveness probes. Plain "ok", no dependencies touched.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
