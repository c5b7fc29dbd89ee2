package services

import (
	"context"
	"time"

	"clubsync/internal/models"
	"clubsync/internal/repositories"

	"github.com/stretchr/testify/mock"
)

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) GetByID(ctx context.Context, id string) (*models.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockCustomerRepository) GetByEmail(ctx context.Context, email string) (*models.Customer, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Update(ctx context.Context, customer *models.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) SetWaitingForToken(ctx context.Context, id string, waiting bool) error {
	args := m.Called(ctx, id, waiting)
	return args.Error(0)
}

func (m *MockCustomerRepository) InstallToken(ctx context.Context, id, token string, deviceName *string) error {
	args := m.Called(ctx, id, token, deviceName)
	return args.Error(0)
}

func (m *MockCustomerRepository) TouchLastSeen(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCustomerRepository) EmailInUse(ctx context.Context, email, excludeID string) (bool, error) {
	args := m.Called(ctx, email, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCustomerRepository) AccessKeyHashExists(ctx context.Context, hash string) (bool, error) {
	args := m.Called(ctx, hash)
	return args.Bool(0), args.Error(1)
}

func (m *MockCustomerRepository) List(ctx context.Context) ([]*models.Customer, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.Customer), args.Error(1)
}

type MockPrivacyConsentRepository struct {
	mock.Mock
}

func (m *MockPrivacyConsentRepository) Create(ctx context.Context, consent *models.PrivacyConsent) error {
	args := m.Called(ctx, consent)
	return args.Error(0)
}

func (m *MockPrivacyConsentRepository) GetByCustomerID(ctx context.Context, customerID string) (*models.PrivacyConsent, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PrivacyConsent), args.Error(1)
}

type MockLoginAttemptRepository struct {
	mock.Mock
}

func (m *MockLoginAttemptRepository) Record(ctx context.Context, attempt *models.LoginAttempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockLoginAttemptRepository) CountRecentFailures(ctx context.Context, email string, window time.Duration) (int, error) {
	args := m.Called(ctx, email, window)
	return args.Int(0), args.Error(1)
}

func (m *MockLoginAttemptRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, session *models.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionRepository) FindActive(ctx context.Context, customerID string, deviceID *string, graceSeconds int) (*models.Session, error) {
	args := m.Called(ctx, customerID, deviceID, graceSeconds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionRepository) UpdateHeartbeat(ctx context.Context, id string, metadata models.Metadata, appVersion, ipAddress *string) error {
	args := m.Called(ctx, id, metadata, appVersion, ipAddress)
	return args.Error(0)
}

func (m *MockSessionRepository) End(ctx context.Context, id, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

func (m *MockSessionRepository) PurgeExpired(ctx context.Context, graceSeconds int) (int64, error) {
	args := m.Called(ctx, graceSeconds)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSessionRepository) List(ctx context.Context, filters repositories.SessionFilters) ([]*models.Session, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.Session), args.Error(1)
}

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetCustomer(ctx context.Context, customerID string) (*models.Customer, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockCacheService) SetCustomer(ctx context.Context, customer *models.Customer, ttl time.Duration) error {
	args := m.Called(ctx, customer, ttl)
	return args.Error(0)
}

func (m *MockCacheService) DeleteCustomer(ctx context.Context, customerID string) error {
	args := m.Called(ctx, customerID)
	return args.Error(0)
}

func (m *MockCacheService) CountLoginFailures(ctx context.Context, email string) (int, error) {
	args := m.Called(ctx, email)
	return args.Int(0), args.Error(1)
}

func (m *MockCacheService) RecordLoginFailure(ctx context.Context, email string, window time.Duration) error {
	args := m.Called(ctx, email, window)
	return args.Error(0)
}

func (m *MockCacheService) ClearLoginFailures(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *MockCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheService) GetString(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheService) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheService) InvalidateAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
