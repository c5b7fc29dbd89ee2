package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"clubsync/internal/models"
	"clubsync/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type SessionServiceTestSuite struct {
	suite.Suite
	sessionRepo  *MockSessionRepository
	customerRepo *MockCustomerRepository
	service      SessionService
	ctx          context.Context
}

func (suite *SessionServiceTestSuite) SetupTest() {
	suite.sessionRepo = &MockSessionRepository{}
	suite.customerRepo = &MockCustomerRepository{}
	suite.service = NewSessionService(suite.sessionRepo, suite.customerRepo, DefaultSessionConfig())
	suite.ctx = context.Background()

	suite.sessionRepo.Test(suite.T())
	suite.customerRepo.Test(suite.T())
}

func (suite *SessionServiceTestSuite) TearDownTest() {
	suite.sessionRepo.AssertExpectations(suite.T())
	suite.customerRepo.AssertExpectations(suite.T())
}

func TestSessionServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SessionServiceTestSuite))
}

func (suite *SessionServiceTestSuite) TestStartSession_CreatesFresh() {
	created := &models.Session{
		ID:         "ses-1",
		CustomerID: "CLUB-001",
		Status:     models.SessionActive,
		LastSeen:   time.Now(),
	}

	suite.customerRepo.On("GetByID", suite.ctx, "CLUB-001").
		Return(&models.Customer{ID: "CLUB-001"}, nil)
	suite.sessionRepo.On("PurgeExpired", suite.ctx, DefaultGracePeriod).Return(int64(0), nil)
	suite.sessionRepo.On("FindActive", suite.ctx, "CLUB-001", (*string)(nil), DefaultGracePeriod).
		Return(nil, repositories.ErrNotFound)
	suite.sessionRepo.On("Create", suite.ctx, mock.MatchedBy(func(s *models.Session) bool {
		return s.CustomerID == "CLUB-001" && s.Status == models.SessionActive && s.ID != ""
	})).Return(nil)
	suite.customerRepo.On("TouchLastSeen", suite.ctx, "CLUB-001").Return(nil)
	suite.sessionRepo.On("GetByID", suite.ctx, mock.Anything).Return(created, nil)

	result, err := suite.service.StartSession(suite.ctx, &StartSessionRequest{CustomerID: "CLUB-001"})
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), result.Reused)
	assert.False(suite.T(), result.Session.IsExpired)
}

func (suite *SessionServiceTestSuite) TestStartSession_ReusesWithinGrace() {
	existing := &models.Session{
		ID:         "ses-1",
		CustomerID: "CLUB-001",
		DeviceID:   strPtr("dev-9"),
		Status:     models.SessionActive,
		LastSeen:   time.Now().Add(-30 * time.Second),
	}

	suite.customerRepo.On("GetByID", suite.ctx, "CLUB-001").
		Return(&models.Customer{ID: "CLUB-001"}, nil)
	suite.sessionRepo.On("PurgeExpired", suite.ctx, DefaultGracePeriod).Return(int64(0), nil)
	suite.sessionRepo.On("FindActive", suite.ctx, "CLUB-001", strPtr("dev-9"), DefaultGracePeriod).
		Return(existing, nil)
	suite.customerRepo.On("TouchLastSeen", suite.ctx, "CLUB-001").Return(nil)

	result, err := suite.service.StartSession(suite.ctx, &StartSessionRequest{
		CustomerID: "CLUB-001",
		DeviceID:   strPtr("dev-9"),
	})
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), result.Reused)
	assert.Equal(suite.T(), "ses-1", result.Session.ID)
	suite.sessionRepo.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
	suite.customerRepo.AssertCalled(suite.T(), "TouchLastSeen", suite.ctx, "CLUB-001")
}

func (suite *SessionServiceTestSuite) TestStartSession_UnknownCustomer() {
	suite.customerRepo.On("GetByID", suite.ctx, "ghost").
		Return(nil, repositories.ErrNotFound)

	_, err := suite.service.StartSession(suite.ctx, &StartSessionRequest{CustomerID: "ghost"})
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

func (suite *SessionServiceTestSuite) TestStartSession_OversizeMetadata() {
	metadata := models.Metadata{"blob": strings.Repeat("x", DefaultMaxMetadataSize+1)}

	_, err := suite.service.StartSession(suite.ctx, &StartSessionRequest{
		CustomerID: "CLUB-001",
		Metadata:   metadata,
	})
	var validationErr *ValidationError
	assert.ErrorAs(suite.T(), err, &validationErr)
	assert.Equal(suite.T(), "metadata", validationErr.Field)
	suite.sessionRepo.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
}

func (suite *SessionServiceTestSuite) TestHeartbeat_MergesMetadataAndRevives() {
	stored := &models.Session{
		ID:         "ses-1",
		CustomerID: "CLUB-001",
		Metadata:   models.Metadata{"os": "windows", "build": "2.3"},
		Status:     models.SessionInactive,
		LastSeen:   time.Now().Add(-10 * time.Minute),
	}
	revived := &models.Session{
		ID:         "ses-1",
		CustomerID: "CLUB-001",
		Metadata:   models.Metadata{"os": "windows", "build": "2.4"},
		Status:     models.SessionActive,
		LastSeen:   time.Now(),
	}

	suite.sessionRepo.On("GetByID", suite.ctx, "ses-1").Return(stored, nil).Once()
	suite.sessionRepo.On("UpdateHeartbeat", suite.ctx, "ses-1",
		models.Metadata{"os": "windows", "build": "2.4"}, (*string)(nil), (*string)(nil)).
		Return(nil)
	suite.customerRepo.On("TouchLastSeen", suite.ctx, "CLUB-001").Return(nil)
	suite.sessionRepo.On("GetByID", suite.ctx, "ses-1").Return(revived, nil).Once()

	session, err := suite.service.Heartbeat(suite.ctx, &HeartbeatRequest{
		SessionID: "ses-1",
		Metadata:  models.Metadata{"build": "2.4"},
	})
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.SessionActive, session.Status)
	assert.False(suite.T(), session.IsExpired)
}

func (suite *SessionServiceTestSuite) TestHeartbeat_RefreshesCustomerLastSeen() {
	stored := &models.Session{
		ID:         "ses-1",
		CustomerID: "CLUB-001",
		Status:     models.SessionActive,
		LastSeen:   time.Now().Add(-30 * time.Second),
	}
	refreshed := &models.Session{
		ID:         "ses-1",
		CustomerID: "CLUB-001",
		Status:     models.SessionActive,
		LastSeen:   time.Now(),
	}

	suite.sessionRepo.On("GetByID", suite.ctx, "ses-1").Return(stored, nil).Once()
	suite.sessionRepo.On("UpdateHeartbeat", suite.ctx, "ses-1",
		models.Metadata{}, (*string)(nil), (*string)(nil)).
		Return(nil)
	suite.customerRepo.On("TouchLastSeen", suite.ctx, "CLUB-001").Return(nil)
	suite.sessionRepo.On("GetByID", suite.ctx, "ses-1").Return(refreshed, nil).Once()

	_, err := suite.service.Heartbeat(suite.ctx, &HeartbeatRequest{SessionID: "ses-1"})
	assert.NoError(suite.T(), err)
	suite.customerRepo.AssertCalled(suite.T(), "TouchLastSeen", suite.ctx, "CLUB-001")
}

func (suite *SessionServiceTestSuite) TestHeartbeat_NotFound() {
	suite.sessionRepo.On("GetByID", suite.ctx, "missing").
		Return(nil, repositories.ErrNotFound)

	_, err := suite.service.Heartbeat(suite.ctx, &HeartbeatRequest{SessionID: "missing"})
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

func (suite *SessionServiceTestSuite) TestEndSession_DefaultsReason() {
	ended := &models.Session{
		ID:          "ses-1",
		Status:      models.SessionInactive,
		LastSeen:    time.Now(),
		EndedReason: strPtr(EndReasonDisconnect),
	}

	suite.sessionRepo.On("End", suite.ctx, "ses-1", EndReasonDisconnect).Return(nil)
	suite.sessionRepo.On("GetByID", suite.ctx, "ses-1").Return(ended, nil)

	session, err := suite.service.EndSession(suite.ctx, "ses-1", "")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), EndReasonDisconnect, *session.EndedReason)
}

func (suite *SessionServiceTestSuite) TestListSessions_DerivesExpiry() {
	sessions := []*models.Session{
		{ID: "ses-live", Status: models.SessionActive, LastSeen: time.Now()},
		{ID: "ses-stale", Status: models.SessionActive, LastSeen: time.Now().Add(-time.Hour)},
	}

	suite.sessionRepo.On("PurgeExpired", suite.ctx, DefaultGracePeriod).Return(int64(1), nil)
	suite.sessionRepo.On("List", suite.ctx, repositories.SessionFilters{}).Return(sessions, nil)

	listed, err := suite.service.ListSessions(suite.ctx, repositories.SessionFilters{})
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), listed[0].IsExpired)
	assert.True(suite.T(), listed[1].IsExpired)
}
