package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"clubsync/internal/caching"
	"clubsync/internal/common"
	"clubsync/internal/models"
	"clubsync/internal/repositories"

	"github.com/google/uuid"
)

const (
	maxPlanCodeLength        = 50
	maxDocumentVersionLength = 50
	maxDocumentURLLength     = 255
	maxDeviceNameLength      = 255
	maxUserAgentLength       = 255

	loginFailureLimit  = 5
	loginFailureWindow = 60 * time.Minute

	accessKeyMaxAttempts = 10

	customerCacheTTL = 10 * time.Minute
)

type CustomerService interface {
	RegisterIfAbsent(ctx context.Context, req *RegisterCustomerRequest) (*RegisterResult, error)
	Validate(ctx context.Context, req *RegisterCustomerRequest) error
	LoginWithAccessKey(ctx context.Context, req *LoginRequest) (*models.Customer, error)
	SetWaitingForToken(ctx context.Context, customerID string, waiting bool) (*models.Customer, error)
	RegisterToken(ctx context.Context, req *RegisterTokenRequest) (*models.Customer, error)
	PatchAttributes(ctx context.Context, req *PatchCustomerRequest) (*models.Customer, error)
	Save(ctx context.Context, req *SaveCustomerRequest) (*RegisterResult, error)
	GetByID(ctx context.Context, customerID string) (*models.Customer, error)
	GetConsent(ctx context.Context, customerID string) (*models.PrivacyConsent, error)
	List(ctx context.Context) ([]*models.Customer, error)
}

type customerService struct {
	customerRepo repositories.CustomerRepository
	consentRepo  repositories.PrivacyConsentRepository
	attemptRepo  repositories.LoginAttemptRepository
	accessKeys   *AccessKeyService
	cache        caching.CacheService
}

func NewCustomerService(
	customerRepo repositories.CustomerRepository,
	consentRepo repositories.PrivacyConsentRepository,
	attemptRepo repositories.LoginAttemptRepository,
	accessKeys *AccessKeyService,
	cache caching.CacheService,
) CustomerService {
	return &customerService{
		customerRepo: customerRepo,
		consentRepo:  consentRepo,
		attemptRepo:  attemptRepo,
		accessKeys:   accessKeys,
		cache:        cache,
	}
}

type PrivacyAcceptance struct {
	DocumentVersion string     `json:"documentVersion"`
	DocumentURL     string     `json:"documentUrl"`
	IPAddress       string     `json:"ipAddress"`
	AcceptedAt      *time.Time `json:"acceptedAt"`
	UserAgent       *string    `json:"userAgent"`
}

type RegisterCustomerRequest struct {
	CustomerID *string            `json:"customerId"`
	BillingID  *string            `json:"billingId"`
	PlanCode   *string            `json:"planCode"`
	Name       string             `json:"name"`
	Email      *string            `json:"email"`
	Phone      *string            `json:"phone"`
	DeviceName *string            `json:"deviceName"`
	Token      string             `json:"token"`
	Privacy    *PrivacyAcceptance `json:"privacyAcceptance"`
}

// RegisterResult carries the plaintext access key out of registration. The
// key is never persisted; Found registrations have it empty.
type RegisterResult struct {
	Customer  *models.Customer `json:"customer"`
	AccessKey string           `json:"accessKey,omitempty"`
	Found     bool             `json:"found"`
}

type LoginRequest struct {
	Email      string  `json:"email"`
	AccessKey  string  `json:"accessKey"`
	DeviceName *string `json:"deviceName"`
	Token      string  `json:"token"`
}

type RegisterTokenRequest struct {
	CustomerID string  `json:"customerId"`
	Token      string  `json:"token"`
	DeviceName *string `json:"deviceName"`
}

// PatchCustomerRequest distinguishes absent keys (nil, leave untouched) from
// present-but-empty values (clear the nullable attribute).
type PatchCustomerRequest struct {
	CustomerID string  `json:"customerId"`
	BillingID  *string `json:"billingId"`
	PlanCode   *string `json:"planCode"`
	Name       *string `json:"name"`
	Email      *string `json:"email"`
	Phone      *string `json:"phone"`
	DeviceName *string `json:"deviceName"`
	IsActive   *bool   `json:"isActive"`
}

type SaveCustomerRequest struct {
	RegisterCustomerRequest
	IsActive *bool `json:"isActive"`
}

func (s *customerService) validateRegistration(req *RegisterCustomerRequest) error {
	if err := common.ValidateRequiredString(req.Name, "name"); err != nil {
		return NewValidationError("name", "name is required")
	}
	if err := common.ValidateRequiredString(req.Token, "token"); err != nil {
		return NewValidationError("token", "token is required")
	}
	if err := common.ValidateOptionalString(req.PlanCode, "planCode", maxPlanCodeLength); err != nil {
		return NewValidationError("planCode", err.Error())
	}
	if err := common.ValidateOptionalString(req.DeviceName, "deviceName", maxDeviceNameLength); err != nil {
		return NewValidationError("deviceName", err.Error())
	}
	if req.Email != nil && common.SafeString(common.OptionalString(req.Email)) != "" {
		if err := common.ValidateEmail(*req.Email); err != nil {
			return NewValidationError("email", err.Error())
		}
	}

	if req.Privacy == nil {
		return NewValidationError("privacyAcceptance", "privacyAcceptance is required")
	}
	if err := common.ValidateRequiredString(req.Privacy.DocumentVersion, "documentVersion"); err != nil {
		return NewValidationError("privacyAcceptance.documentVersion", "documentVersion is required")
	}
	if len(req.Privacy.DocumentVersion) > maxDocumentVersionLength {
		return NewValidationError("privacyAcceptance.documentVersion",
			fmt.Sprintf("documentVersion cannot exceed %d characters", maxDocumentVersionLength))
	}
	if err := common.ValidateRequiredString(req.Privacy.DocumentURL, "documentUrl"); err != nil {
		return NewValidationError("privacyAcceptance.documentUrl", "documentUrl is required")
	}
	if len(req.Privacy.DocumentURL) > maxDocumentURLLength {
		return NewValidationError("privacyAcceptance.documentUrl",
			fmt.Sprintf("documentUrl cannot exceed %d characters", maxDocumentURLLength))
	}
	if err := common.ValidateIPAddress(req.Privacy.IPAddress, "ipAddress"); err != nil {
		return NewValidationError("privacyAcceptance.ipAddress", err.Error())
	}
	if err := common.ValidateOptionalString(req.Privacy.UserAgent, "userAgent", maxUserAgentLength); err != nil {
		return NewValidationError("privacyAcceptance.userAgent", err.Error())
	}
	return nil
}

// Validate runs the registration checks, including email availability,
// without mutating anything.
func (s *customerService) Validate(ctx context.Context, req *RegisterCustomerRequest) error {
	if err := s.validateRegistration(req); err != nil {
		return err
	}
	if email := common.OptionalString(req.Email); email != nil {
		existing, err := s.customerRepo.GetByEmail(ctx, *email)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return err
		}
		if existing != nil && (req.CustomerID == nil || existing.ID != *req.CustomerID) {
			return ErrConflict
		}
	}
	return nil
}

func (s *customerService) RegisterIfAbsent(ctx context.Context, req *RegisterCustomerRequest) (*RegisterResult, error) {
	if id := common.OptionalString(req.CustomerID); id != nil {
		existing, err := s.customerRepo.GetByID(ctx, *id)
		if err == nil {
			return &RegisterResult{Customer: existing, Found: true}, nil
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
	}

	if err := s.Validate(ctx, req); err != nil {
		return nil, err
	}
	if !s.accessKeys.Configured() {
		return nil, ErrConfiguration
	}

	accessKey, digest, err := s.mintAccessKey(ctx)
	if err != nil {
		return nil, err
	}

	customerID := common.SafeString(common.OptionalString(req.CustomerID))
	if customerID == "" {
		customerID = uuid.New().String()
	}

	now := time.Now()
	token := req.Token
	customer := &models.Customer{
		ID:             customerID,
		BillingID:      common.OptionalString(req.BillingID),
		PlanCode:       common.OptionalString(req.PlanCode),
		Name:           req.Name,
		Email:          normalizedEmailPtr(req.Email),
		Phone:          common.OptionalString(req.Phone),
		DeviceName:     common.OptionalString(req.DeviceName),
		Token:          &token,
		AccessKeyHash:  &digest,
		IsActive:       true,
		TokenUpdatedAt: &now,
	}
	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, err
	}

	acceptedAt := now
	if req.Privacy.AcceptedAt != nil {
		acceptedAt = *req.Privacy.AcceptedAt
	}
	consent := &models.PrivacyConsent{
		CustomerID:      customerID,
		DocumentVersion: req.Privacy.DocumentVersion,
		DocumentURL:     req.Privacy.DocumentURL,
		IPAddress:       req.Privacy.IPAddress,
		AcceptedAt:      acceptedAt,
		UserAgent:       common.OptionalString(req.Privacy.UserAgent),
	}
	if consent.UserAgent == nil {
		if info, ok := common.GetRequestInfo(ctx); ok && info.UserAgent != "" {
			consent.UserAgent = &info.UserAgent
		}
	}
	if err := s.consentRepo.Create(ctx, consent); err != nil {
		return nil, err
	}

	created, err := s.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	s.cacheCustomer(ctx, created)

	return &RegisterResult{Customer: created, AccessKey: accessKey}, nil
}

// mintAccessKey loops until the digest is unused, bounded so a pathological
// collision run cannot spin forever.
func (s *customerService) mintAccessKey(ctx context.Context) (string, string, error) {
	for attempt := 0; attempt < accessKeyMaxAttempts; attempt++ {
		key, err := s.accessKeys.Generate()
		if err != nil {
			return "", "", err
		}
		digest, err := s.accessKeys.Digest(key)
		if err != nil {
			return "", "", err
		}
		exists, err := s.customerRepo.AccessKeyHashExists(ctx, digest)
		if err != nil {
			return "", "", err
		}
		if !exists {
			return key, digest, nil
		}
	}
	return "", "", fmt.Errorf("access key space exhausted after %d attempts", accessKeyMaxAttempts)
}

func (s *customerService) LoginWithAccessKey(ctx context.Context, req *LoginRequest) (*models.Customer, error) {
	if err := common.ValidateEmail(req.Email); err != nil {
		return nil, NewValidationError("email", err.Error())
	}
	if err := common.ValidateRequiredString(req.AccessKey, "accessKey"); err != nil {
		return nil, NewValidationError("accessKey", "accessKey is required")
	}
	if err := common.ValidateRequiredString(req.Token, "token"); err != nil {
		return nil, NewValidationError("token", "token is required")
	}
	if !s.accessKeys.Configured() {
		return nil, ErrConfiguration
	}

	email := common.NormalizeEmail(req.Email)

	limited, err := s.isRateLimited(ctx, email)
	if err != nil {
		return nil, err
	}
	if limited {
		s.recordAttempt(ctx, email, nil, req.DeviceName, false)
		return nil, ErrRateLimited
	}

	customer, err := s.customerRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			s.recordAttempt(ctx, email, nil, req.DeviceName, false)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if customer.AccessKeyHash == nil {
		s.recordAttempt(ctx, email, &customer.ID, req.DeviceName, false)
		return nil, ErrInvalidCredentials
	}
	ok, err := s.accessKeys.Verify(req.AccessKey, *customer.AccessKeyHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.recordAttempt(ctx, email, &customer.ID, req.DeviceName, false)
		return nil, ErrInvalidCredentials
	}

	if !customer.WaitingForToken {
		s.recordAttempt(ctx, email, &customer.ID, req.DeviceName, false)
		return nil, ErrConflict
	}

	if err := s.customerRepo.InstallToken(ctx, customer.ID, req.Token, common.OptionalString(req.DeviceName)); err != nil {
		return nil, err
	}
	s.recordAttempt(ctx, email, &customer.ID, req.DeviceName, true)
	if cacheErr := s.cache.ClearLoginFailures(ctx, email); cacheErr != nil {
		log.Printf("WARNING: clearing login failure counter: %v", cacheErr)
	}

	refreshed, err := s.customerRepo.GetByID(ctx, customer.ID)
	if err != nil {
		return nil, err
	}
	s.cacheCustomer(ctx, refreshed)
	return refreshed, nil
}

// isRateLimited consults the redis counter as a fast path but lets the
// login_attempts table make the final call. Redis errors degrade to the
// authoritative count.
func (s *customerService) isRateLimited(ctx context.Context, email string) (bool, error) {
	if count, err := s.cache.CountLoginFailures(ctx, email); err == nil && count >= loginFailureLimit {
		return true, nil
	}
	count, err := s.attemptRepo.CountRecentFailures(ctx, email, loginFailureWindow)
	if err != nil {
		return false, err
	}
	return count >= loginFailureLimit, nil
}

func (s *customerService) recordAttempt(ctx context.Context, email string, customerID, deviceName *string, successful bool) {
	attempt := &models.LoginAttempt{
		Email:      email,
		CustomerID: customerID,
		DeviceName: common.OptionalString(deviceName),
		Successful: successful,
	}
	if info, ok := common.GetRequestInfo(ctx); ok && info.ClientIP != "" {
		attempt.IPAddress = &info.ClientIP
	}
	if err := s.attemptRepo.Record(ctx, attempt); err != nil {
		log.Printf("ERROR: recording login attempt for %s: %v", email, err)
	}
	if !successful {
		if err := s.cache.RecordLoginFailure(ctx, email, loginFailureWindow); err != nil {
			log.Printf("WARNING: incrementing login failure counter: %v", err)
		}
	}
}

func (s *customerService) SetWaitingForToken(ctx context.Context, customerID string, waiting bool) (*models.Customer, error) {
	if err := common.ValidateRequiredString(customerID, "customerId"); err != nil {
		return nil, NewValidationError("customerId", "customerId is required")
	}
	if err := s.customerRepo.SetWaitingForToken(ctx, customerID, waiting); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.invalidateCustomer(ctx, customerID)
	return s.GetByID(ctx, customerID)
}

func (s *customerService) RegisterToken(ctx context.Context, req *RegisterTokenRequest) (*models.Customer, error) {
	if err := common.ValidateRequiredString(req.CustomerID, "customerId"); err != nil {
		return nil, NewValidationError("customerId", "customerId is required")
	}
	if err := common.ValidateRequiredString(req.Token, "token"); err != nil {
		return nil, NewValidationError("token", "token is required")
	}

	customer, err := s.customerRepo.GetByID(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !customer.WaitingForToken {
		return nil, ErrConflict
	}

	if err := s.customerRepo.InstallToken(ctx, customer.ID, req.Token, common.OptionalString(req.DeviceName)); err != nil {
		return nil, err
	}
	s.invalidateCustomer(ctx, customer.ID)
	return s.GetByID(ctx, customer.ID)
}

func (s *customerService) PatchAttributes(ctx context.Context, req *PatchCustomerRequest) (*models.Customer, error) {
	if err := common.ValidateRequiredString(req.CustomerID, "customerId"); err != nil {
		return nil, NewValidationError("customerId", "customerId is required")
	}

	customer, err := s.customerRepo.GetByID(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		name := common.SafeString(common.OptionalString(req.Name))
		if name == "" {
			return nil, NewValidationError("name", "name cannot be empty")
		}
		customer.Name = name
	}
	if req.BillingID != nil {
		customer.BillingID = common.OptionalString(req.BillingID)
	}
	if req.PlanCode != nil {
		if err := common.ValidateOptionalString(req.PlanCode, "planCode", maxPlanCodeLength); err != nil {
			return nil, NewValidationError("planCode", err.Error())
		}
		customer.PlanCode = common.OptionalString(req.PlanCode)
	}
	if req.Email != nil {
		email := common.OptionalString(req.Email)
		if email != nil {
			if err := common.ValidateEmail(*email); err != nil {
				return nil, NewValidationError("email", err.Error())
			}
			inUse, err := s.customerRepo.EmailInUse(ctx, common.NormalizeEmail(*email), customer.ID)
			if err != nil {
				return nil, err
			}
			if inUse {
				return nil, ErrConflict
			}
		}
		customer.Email = normalizedEmailPtr(email)
	}
	if req.Phone != nil {
		customer.Phone = common.OptionalString(req.Phone)
	}
	if req.DeviceName != nil {
		if err := common.ValidateOptionalString(req.DeviceName, "deviceName", maxDeviceNameLength); err != nil {
			return nil, NewValidationError("deviceName", err.Error())
		}
		customer.DeviceName = common.OptionalString(req.DeviceName)
	}
	if req.IsActive != nil {
		customer.IsActive = *req.IsActive
	}

	if err := s.customerRepo.Update(ctx, customer); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.invalidateCustomer(ctx, customer.ID)
	return s.GetByID(ctx, customer.ID)
}

// Save is the upsert path: an unknown id registers a new customer, a known
// id applies a partial patch.
func (s *customerService) Save(ctx context.Context, req *SaveCustomerRequest) (*RegisterResult, error) {
	if id := common.OptionalString(req.CustomerID); id != nil {
		_, err := s.customerRepo.GetByID(ctx, *id)
		if err == nil {
			patch := &PatchCustomerRequest{
				CustomerID: *id,
				BillingID:  req.BillingID,
				PlanCode:   req.PlanCode,
				Email:      req.Email,
				Phone:      req.Phone,
				DeviceName: req.DeviceName,
				IsActive:   req.IsActive,
			}
			if name := common.OptionalString(&req.Name); name != nil {
				patch.Name = name
			}
			customer, patchErr := s.PatchAttributes(ctx, patch)
			if patchErr != nil {
				return nil, patchErr
			}
			return &RegisterResult{Customer: customer, Found: true}, nil
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
	}
	return s.RegisterIfAbsent(ctx, &req.RegisterCustomerRequest)
}

func (s *customerService) GetByID(ctx context.Context, customerID string) (*models.Customer, error) {
	if cached, err := s.cache.GetCustomer(ctx, customerID); err == nil && cached != nil {
		return cached, nil
	}

	customer, err := s.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.cacheCustomer(ctx, customer)
	return customer, nil
}

func (s *customerService) GetConsent(ctx context.Context, customerID string) (*models.PrivacyConsent, error) {
	consent, err := s.consentRepo.GetByCustomerID(ctx, customerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return consent, nil
}

func (s *customerService) List(ctx context.Context) ([]*models.Customer, error) {
	return s.customerRepo.List(ctx)
}

func (s *customerService) cacheCustomer(ctx context.Context, customer *models.Customer) {
	if err := s.cache.SetCustomer(ctx, customer, customerCacheTTL); err != nil {
		log.Printf("WARNING: caching customer %s: %v", customer.ID, err)
	}
}

func (s *customerService) invalidateCustomer(ctx context.Context, customerID string) {
	if err := s.cache.DeleteCustomer(ctx, customerID); err != nil {
		log.Printf("WARNING: evicting customer %s from cache: %v", customerID, err)
	}
}

func normalizedEmailPtr(email *string) *string {
	trimmed := common.OptionalString(email)
	if trimmed == nil {
		return nil
	}
	normalized := common.NormalizeEmail(*trimmed)
	return &normalized
}
