package models

import (
	"time"
)

const (
	SessionActive   = "active"
	SessionInactive = "inactive"
)

// Metadata is the opaque structured payload a desktop client attaches to its
// session. Size limits are enforced before it reaches storage.
type Metadata map[string]interface{}

// Session tracks one desktop client's presence. Rows are never deleted;
// expiry flips Status to inactive and heartbeats flip it back.
type Session struct {
	ID          string     `json:"sessionId" db:"id"`
	CustomerID  string     `json:"customerId" db:"customer_id"`
	DeviceID    *string    `json:"deviceId" db:"device_id"`
	AppVersion  *string    `json:"appVersion" db:"app_version"`
	IPAddress   *string    `json:"ipAddress" db:"ip_address"`
	Metadata    Metadata   `json:"metadata" db:"metadata"`
	Status      string     `json:"status" db:"status"`
	StartedAt   time.Time  `json:"startedAt" db:"started_at"`
	LastSeen    time.Time  `json:"lastSeen" db:"last_seen"`
	EndedAt     *time.Time `json:"endedAt" db:"ended_at"`
	EndedReason *string    `json:"endedReason" db:"ended_reason"`

	// IsExpired is derived from LastSeen against the configured grace period
	// at read time; it is independent of the persisted Status.
	IsExpired bool `json:"isExpired" db:"-"`
}
