package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"clubsync/internal/common"
	"clubsync/internal/models"
	"clubsync/internal/repositories"

	"github.com/google/uuid"
)

const (
	DefaultHeartbeatInterval = 60
	DefaultGracePeriod       = 180
	DefaultMaxMetadataSize   = 2048

	EndReasonDisconnect = "app_disconnect"
	EndReasonTimeout    = "timeout"
)

// SessionConfig holds the presence timing knobs echoed back to clients.
type SessionConfig struct {
	HeartbeatInterval int
	GracePeriod       int
	MaxMetadataSize   int
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		HeartbeatInterval: DefaultHeartbeatInterval,
		GracePeriod:       DefaultGracePeriod,
		MaxMetadataSize:   DefaultMaxMetadataSize,
	}
}

type SessionService interface {
	StartSession(ctx context.Context, req *StartSessionRequest) (*StartSessionResult, error)
	Heartbeat(ctx context.Context, req *HeartbeatRequest) (*models.Session, error)
	EndSession(ctx context.Context, sessionID, reason string) (*models.Session, error)
	ListSessions(ctx context.Context, filters repositories.SessionFilters) ([]*models.Session, error)
	Config() SessionConfig
}

type sessionService struct {
	sessionRepo  repositories.SessionRepository
	customerRepo repositories.CustomerRepository
	config       SessionConfig
}

func NewSessionService(
	sessionRepo repositories.SessionRepository,
	customerRepo repositories.CustomerRepository,
	config SessionConfig,
) SessionService {
	if config.HeartbeatInterval <= 0 {
		config.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if config.GracePeriod <= 0 {
		config.GracePeriod = DefaultGracePeriod
	}
	if config.MaxMetadataSize <= 0 {
		config.MaxMetadataSize = DefaultMaxMetadataSize
	}
	return &sessionService{
		sessionRepo:  sessionRepo,
		customerRepo: customerRepo,
		config:       config,
	}
}

type StartSessionRequest struct {
	CustomerID string          `json:"customerId"`
	DeviceID   *string         `json:"deviceId"`
	AppVersion *string         `json:"appVersion"`
	Metadata   models.Metadata `json:"metadata"`
}

type StartSessionResult struct {
	Session *models.Session `json:"session"`
	Reused  bool            `json:"reused"`
}

type HeartbeatRequest struct {
	SessionID  string          `json:"sessionId"`
	AppVersion *string         `json:"appVersion"`
	Metadata   models.Metadata `json:"metadata"`
}

func (s *sessionService) Config() SessionConfig {
	return s.config
}

func (s *sessionService) validateMetadata(metadata models.Metadata) error {
	if metadata == nil {
		return nil
	}
	serialized, err := json.Marshal(metadata)
	if err != nil {
		return NewValidationError("metadata", "metadata is not serializable")
	}
	if len(serialized) > s.config.MaxMetadataSize {
		return NewValidationError("metadata",
			fmt.Sprintf("metadata cannot exceed %d bytes", s.config.MaxMetadataSize))
	}
	return nil
}

// purgeExpired runs the lazy timeout sweep before reads and creates. Expiry
// is computed from stored timestamps, never by a timer.
func (s *sessionService) purgeExpired(ctx context.Context) {
	purged, err := s.sessionRepo.PurgeExpired(ctx, s.config.GracePeriod)
	if err != nil {
		log.Printf("ERROR: purging expired sessions: %v", err)
		return
	}
	if purged > 0 {
		log.Printf("purged %d expired sessions", purged)
	}
}

func (s *sessionService) StartSession(ctx context.Context, req *StartSessionRequest) (*StartSessionResult, error) {
	if err := common.ValidateRequiredString(req.CustomerID, "customerId"); err != nil {
		return nil, NewValidationError("customerId", "customerId is required")
	}
	if err := s.validateMetadata(req.Metadata); err != nil {
		return nil, err
	}

	if _, err := s.customerRepo.GetByID(ctx, req.CustomerID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.purgeExpired(ctx)

	existing, err := s.sessionRepo.FindActive(ctx, req.CustomerID, common.OptionalString(req.DeviceID), s.config.GracePeriod)
	if err == nil {
		s.touchCustomer(ctx, req.CustomerID)
		s.annotate(existing)
		return &StartSessionResult{Session: existing, Reused: true}, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	session := &models.Session{
		ID:         uuid.New().String(),
		CustomerID: req.CustomerID,
		DeviceID:   common.OptionalString(req.DeviceID),
		AppVersion: common.OptionalString(req.AppVersion),
		Metadata:   req.Metadata,
		Status:     models.SessionActive,
	}
	if info, ok := common.GetRequestInfo(ctx); ok && info.ClientIP != "" {
		session.IPAddress = &info.ClientIP
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	s.touchCustomer(ctx, req.CustomerID)

	created, err := s.sessionRepo.GetByID(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	s.annotate(created)
	return &StartSessionResult{Session: created, Reused: false}, nil
}

func (s *sessionService) Heartbeat(ctx context.Context, req *HeartbeatRequest) (*models.Session, error) {
	if err := common.ValidateRequiredString(req.SessionID, "sessionId"); err != nil {
		return nil, NewValidationError("sessionId", "sessionId is required")
	}
	if err := s.validateMetadata(req.Metadata); err != nil {
		return nil, err
	}

	session, err := s.sessionRepo.GetByID(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	// Supplied keys merge into stored metadata rather than replacing it.
	merged := session.Metadata
	if merged == nil {
		merged = models.Metadata{}
	}
	for k, v := range req.Metadata {
		merged[k] = v
	}
	if err := s.validateMetadata(merged); err != nil {
		return nil, err
	}

	var ipAddress *string
	if info, ok := common.GetRequestInfo(ctx); ok && info.ClientIP != "" {
		ipAddress = &info.ClientIP
	}

	err = s.sessionRepo.UpdateHeartbeat(ctx, req.SessionID, merged, common.OptionalString(req.AppVersion), ipAddress)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.touchCustomer(ctx, session.CustomerID)

	refreshed, err := s.sessionRepo.GetByID(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	s.annotate(refreshed)
	return refreshed, nil
}

// touchCustomer refreshes the customer's last_seen on every presence signal,
// not just on session creation. Failures never fail the session operation.
func (s *sessionService) touchCustomer(ctx context.Context, customerID string) {
	if err := s.customerRepo.TouchLastSeen(ctx, customerID); err != nil {
		log.Printf("WARNING: touching last_seen for customer %s: %v", customerID, err)
	}
}

func (s *sessionService) EndSession(ctx context.Context, sessionID, reason string) (*models.Session, error) {
	if err := common.ValidateRequiredString(sessionID, "sessionId"); err != nil {
		return nil, NewValidationError("sessionId", "sessionId is required")
	}
	if reason == "" {
		reason = EndReasonDisconnect
	}

	if err := s.sessionRepo.End(ctx, sessionID, reason); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s.annotate(session)
	return session, nil
}

func (s *sessionService) ListSessions(ctx context.Context, filters repositories.SessionFilters) ([]*models.Session, error) {
	s.purgeExpired(ctx)

	sessions, err := s.sessionRepo.List(ctx, filters)
	if err != nil {
		return nil, err
	}
	for _, session := range sessions {
		s.annotate(session)
	}
	return sessions, nil
}

// annotate derives IsExpired from LastSeen against the grace period,
// independent of the persisted status.
func (s *sessionService) annotate(session *models.Session) {
	cutoff := time.Now().Add(-time.Duration(s.config.GracePeriod) * time.Second)
	session.IsExpired = session.LastSeen.Before(cutoff)
}
