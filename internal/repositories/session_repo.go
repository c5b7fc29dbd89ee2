package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"clubsync/internal/models"

	"github.com/jackc/pgx/v5"
)

// SessionFilters narrows a session listing. Nil fields are ignored.
type SessionFilters struct {
	CustomerID *string
	DeviceID   *string
	Status     *string
}

type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id string) (*models.Session, error)
	FindActive(ctx context.Context, customerID string, deviceID *string, graceSeconds int) (*models.Session, error)
	UpdateHeartbeat(ctx context.Context, id string, metadata models.Metadata, appVersion, ipAddress *string) error
	End(ctx context.Context, id, reason string) error
	PurgeExpired(ctx context.Context, graceSeconds int) (int64, error)
	List(ctx context.Context, filters SessionFilters) ([]*models.Session, error)
}

type sessionRepo struct {
	db Database
}

func NewSessionRepo(db Database) SessionRepository {
	return &sessionRepo{db: db}
}

const sessionColumns = `id, customer_id, device_id, app_version, ip_address, metadata,
		status, started_at, last_seen, ended_at, ended_reason`

func (r *sessionRepo) Create(ctx context.Context, session *models.Session) error {
	metadata, err := encodeMetadata(session.Metadata)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO sessions (id, customer_id, device_id, app_version, ip_address,
			metadata, status, started_at, last_seen)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`
	_, err = r.db.Exec(ctx, query,
		session.ID, session.CustomerID, session.DeviceID, session.AppVersion,
		session.IPAddress, metadata, session.Status,
	)
	return err
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

func (r *sessionRepo) FindActive(ctx context.Context, customerID string, deviceID *string, graceSeconds int) (*models.Session, error) {
	conditions := []string{"customer_id = $1", "status = $2", "last_seen >= NOW() - ($3 * INTERVAL '1 second')"}
	args := []interface{}{customerID, models.SessionActive, graceSeconds}

	if deviceID != nil {
		conditions = append(conditions, "device_id = $4")
		args = append(args, *deviceID)
	}

	query := fmt.Sprintf(
		`SELECT %s FROM sessions WHERE %s ORDER BY last_seen DESC LIMIT 1`,
		sessionColumns, strings.Join(conditions, " AND "),
	)
	return r.scanOne(r.db.QueryRow(ctx, query, args...))
}

func (r *sessionRepo) UpdateHeartbeat(ctx context.Context, id string, metadata models.Metadata, appVersion, ipAddress *string) error {
	encoded, err := encodeMetadata(metadata)
	if err != nil {
		return err
	}

	query := `
		UPDATE sessions
		SET last_seen = NOW(), status = $2, metadata = $3,
			app_version = COALESCE($4, app_version),
			ip_address = COALESCE($5, ip_address)
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, id, models.SessionActive, encoded, appVersion, ipAddress)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sessionRepo) End(ctx context.Context, id, reason string) error {
	query := `
		UPDATE sessions
		SET status = $2, ended_at = NOW(), ended_reason = $3
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, id, models.SessionInactive, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sessionRepo) PurgeExpired(ctx context.Context, graceSeconds int) (int64, error) {
	query := `
		UPDATE sessions
		SET status = $1, ended_at = NOW(), ended_reason = 'timeout'
		WHERE status = $2 AND last_seen < NOW() - ($3 * INTERVAL '1 second')
	`
	tag, err := r.db.Exec(ctx, query, models.SessionInactive, models.SessionActive, graceSeconds)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *sessionRepo) List(ctx context.Context, filters SessionFilters) ([]*models.Session, error) {
	conditions := []string{}
	args := []interface{}{}

	if filters.CustomerID != nil {
		args = append(args, *filters.CustomerID)
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", len(args)))
	}
	if filters.DeviceID != nil {
		args = append(args, *filters.DeviceID)
		conditions = append(conditions, fmt.Sprintf("device_id = $%d", len(args)))
	}
	if filters.Status != nil {
		args = append(args, *filters.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + sessionColumns + ` FROM sessions`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY last_seen DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		session, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (r *sessionRepo) scanOne(row pgx.Row) (*models.Session, error) {
	session := &models.Session{}
	var metadata []byte
	err := row.Scan(
		&session.ID, &session.CustomerID, &session.DeviceID, &session.AppVersion,
		&session.IPAddress, &metadata, &session.Status, &session.StartedAt,
		&session.LastSeen, &session.EndedAt, &session.EndedReason,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	session.Metadata = decodeMetadata(metadata)
	return session, nil
}

func (r *sessionRepo) scanRow(rows pgx.Rows) (*models.Session, error) {
	session := &models.Session{}
	var metadata []byte
	err := rows.Scan(
		&session.ID, &session.CustomerID, &session.DeviceID, &session.AppVersion,
		&session.IPAddress, &metadata, &session.Status, &session.StartedAt,
		&session.LastSeen, &session.EndedAt, &session.EndedReason,
	)
	if err != nil {
		return nil, err
	}
	session.Metadata = decodeMetadata(metadata)
	return session, nil
}

func encodeMetadata(metadata models.Metadata) ([]byte, error) {
	if metadata == nil {
		return nil, nil
	}
	return json.Marshal(metadata)
}

func decodeMetadata(raw []byte) models.Metadata {
	if len(raw) == 0 {
		return models.Metadata{}
	}
	var metadata models.Metadata
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return models.Metadata{}
	}
	return metadata
}
