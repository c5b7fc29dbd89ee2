package models

import (
	"time"
)

// Customer is one desktop installation. The ID is the customerApiId that
// scopes every sync record and session belonging to the installation.
type Customer struct {
	ID              string     `json:"customerId" db:"id"`
	BillingID       *string    `json:"billingId" db:"billing_id"`
	PlanCode        *string    `json:"planCode" db:"plan_code"`
	Name            string     `json:"name" db:"name"`
	Email           *string    `json:"email" db:"email"`
	Phone           *string    `json:"phone" db:"phone"`
	DeviceName      *string    `json:"deviceName" db:"device_name"`
	Token           *string    `json:"token" db:"token"`
	AccessKeyHash   *string    `json:"-" db:"access_key_hash"`
	IsActive        bool       `json:"isActive" db:"is_active"`
	WaitingForToken bool       `json:"waitingForToken" db:"waiting_for_token"`
	WaitingSince    *time.Time `json:"waitingSince" db:"waiting_since"`
	TokenUpdatedAt  *time.Time `json:"tokenUpdatedAt" db:"token_updated_at"`
	LastSeen        *time.Time `json:"lastSeen" db:"last_seen"`
	CreatedAt       time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time  `json:"updatedAt" db:"updated_at"`
}

// PrivacyConsent records the privacy-document acceptance captured once at
// customer creation. Rows are immutable after insert.
type PrivacyConsent struct {
	CustomerID      string    `json:"customerId" db:"customer_id"`
	DocumentVersion string    `json:"documentVersion" db:"document_version"`
	DocumentURL     string    `json:"documentUrl" db:"document_url"`
	IPAddress       string    `json:"ipAddress" db:"ip_address"`
	AcceptedAt      time.Time `json:"acceptedAt" db:"accepted_at"`
	UserAgent       *string   `json:"userAgent" db:"user_agent"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
}

// LoginAttempt is one row of the append-only login journal. The normalized
// email is the rate-limit key; CustomerID is nil when the email is unknown.
type LoginAttempt struct {
	ID         int64     `json:"id" db:"id"`
	Email      string    `json:"email" db:"email"`
	CustomerID *string   `json:"customerId" db:"customer_id"`
	IPAddress  *string   `json:"ipAddress" db:"ip_address"`
	DeviceName *string   `json:"deviceName" db:"device_name"`
	Successful bool      `json:"successful" db:"successful"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}
