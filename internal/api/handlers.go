// Package api contains the HTTP handlers for the lead qualification service
package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/chetansirohi/Leads-Agent/pkg/models"
)

const serviceName = "leads-agent"

// HandleHealth returns basic health status (always returns 200 OK)
func (s *Server) HandleHealth(c echo.Context) error {
	status := models.HealthStatus{
		Status:    "ok",
		Service:   serviceName,
		Version:   "1.0.0",
		Timestamp: time.Now(),
	}
	return c.JSON(http.StatusOK, status)
}

// problem writes an RFC 7807 Problem Details JSON error response
func problem(c echo.Context, status int, title, detail string) error {
	p := models.ProblemDetails{
		Type:     "about:blank",
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/problem+json")
	return c.JSON(status, p)
}
