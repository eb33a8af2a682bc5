package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is the liveness endpoint used by the load balancer and uptime
// monitoring.  It deliberately touches no dependencies: a broken Redis
// or broker must not take the instance out of rotation.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
