package handlers

import (
	"net/http"
	"strings"

	"clubsync/internal/common"
	"clubsync/internal/sync"

	"github.com/labstack/echo/v4"
)

// SyncHandlers exposes the bulk pull/push endpoints. The tenant id is always
// carried explicitly in the payload, never inferred from a cookie.
type SyncHandlers struct {
	registry *sync.Registry
}

func NewSyncHandlers(registry *sync.Registry) *SyncHandlers {
	return &SyncHandlers{registry: registry}
}

type pullRequest struct {
	CustomerAPIID  string `json:"customerApiId"`
	IncludeRemoved bool   `json:"includeRemoved"`
}

// Pull returns every registered category for the tenant, each key always
// present even when empty.
func (h *SyncHandlers) Pull(c echo.Context) error {
	var req pullRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if strings.TrimSpace(req.CustomerAPIID) == "" {
		return common.SendValidationError(c, "customerApiId", "customerApiId is required")
	}

	bulks, err := h.registry.PullAll(c.Request().Context(), req.CustomerAPIID, req.IncludeRemoved)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"customerApiId": req.CustomerAPIID,
		"bulks":         bulks,
	})
}

type pushRequest struct {
	CustomerAPIID string                   `json:"customerApiId"`
	Bulks         map[string][]sync.Record `json:"bulks"`
}

// Push applies each supplied category's records, reporting a per-record
// outcome; a failed record never aborts the batch.
func (h *SyncHandlers) Push(c echo.Context) error {
	var req pushRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if strings.TrimSpace(req.CustomerAPIID) == "" {
		return common.SendValidationError(c, "customerApiId", "customerApiId is required")
	}

	results := h.registry.PushAll(c.Request().Context(), req.CustomerAPIID, req.Bulks)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"customerApiId": req.CustomerAPIID,
		"bulks":         results,
	})
}

// Categories lists the registered sync categories in their fixed order.
func (h *SyncHandlers) Categories(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"categories": h.registry.Categories(),
	})
}
