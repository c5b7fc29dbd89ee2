package handlers

import (
	"net/http"
	"time"

	"clubsync/internal/models"
	"clubsync/internal/repositories"
	"clubsync/internal/services"

	"github.com/labstack/echo/v4"
)

// SessionHandlers exposes the presence tracker over HTTP. Time fields go
// over the wire as unix seconds.
type SessionHandlers struct {
	sessionService services.SessionService
}

func NewSessionHandlers(sessionService services.SessionService) *SessionHandlers {
	return &SessionHandlers{sessionService: sessionService}
}

func (h *SessionHandlers) sessionJSON(session *models.Session) map[string]interface{} {
	grace := time.Duration(h.sessionService.Config().GracePeriod) * time.Second

	out := map[string]interface{}{
		"sessionId":  session.ID,
		"customerId": session.CustomerID,
		"deviceId":   session.DeviceID,
		"appVersion": session.AppVersion,
		"ipAddress":  session.IPAddress,
		"metadata":   session.Metadata,
		"status":     session.Status,
		"startedAt":  session.StartedAt.Unix(),
		"lastSeen":   session.LastSeen.Unix(),
		"isExpired":  session.IsExpired,
		"expiresAt":  session.LastSeen.Add(grace).Unix(),
	}
	if session.EndedAt != nil {
		out["endedAt"] = session.EndedAt.Unix()
	} else {
		out["endedAt"] = nil
	}
	out["endedReason"] = session.EndedReason
	return out
}

// Start opens a session, or returns the still-live one for the same
// customer and device with reused=true.
func (h *SessionHandlers) Start(c echo.Context) error {
	var req services.StartSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	result, err := h.sessionService.StartSession(c.Request().Context(), &req)
	if err != nil {
		return writeServiceError(c, err)
	}

	status := http.StatusCreated
	if result.Reused {
		status = http.StatusOK
	}
	response := h.sessionJSON(result.Session)
	response["reused"] = result.Reused
	return c.JSON(status, response)
}

func (h *SessionHandlers) Heartbeat(c echo.Context) error {
	var req services.HeartbeatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	session, err := h.sessionService.Heartbeat(c.Request().Context(), &req)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, h.sessionJSON(session))
}

type endSessionRequest struct {
	SessionID string `json:"sessionId"`
	Reason    string `json:"reason"`
}

func (h *SessionHandlers) End(c echo.Context) error {
	var req endSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	session, err := h.sessionService.EndSession(c.Request().Context(), req.SessionID, req.Reason)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, h.sessionJSON(session))
}

type listSessionsRequest struct {
	CustomerID *string `query:"customerId"`
	DeviceID   *string `query:"deviceId"`
	Status     *string `query:"status"`
}

// List returns sessions with a live expiry judgment per row, plus the
// presence timing configuration clients schedule their heartbeats from.
func (h *SessionHandlers) List(c echo.Context) error {
	var req listSessionsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid query parameters")
	}

	sessions, err := h.sessionService.ListSessions(c.Request().Context(), repositories.SessionFilters{
		CustomerID: req.CustomerID,
		DeviceID:   req.DeviceID,
		Status:     req.Status,
	})
	if err != nil {
		return writeServiceError(c, err)
	}

	payload := make([]map[string]interface{}, 0, len(sessions))
	for _, session := range sessions {
		payload = append(payload, h.sessionJSON(session))
	}

	config := h.sessionService.Config()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"sessions":          payload,
		"count":             len(payload),
		"heartbeatInterval": config.HeartbeatInterval,
		"gracePeriod":       config.GracePeriod,
	})
}
