package handlers

import (
	"context"
	"net/http"
	"time"

	"clubsync/internal/repositories"

	"github.com/labstack/echo/v4"
)

type HealthHandlers struct {
	db repositories.Database
}

func NewHealthHandlers(db repositories.Database) *HealthHandlers {
	return &HealthHandlers{db: db}
}

// HealthCheck reports service and database health.
func (h *HealthHandlers) HealthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := "healthy"
	services := map[string]string{"database": "healthy"}

	var one int
	if err := h.db.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		status = "degraded"
		services["database"] = "unhealthy"
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services":  services,
	})
}
