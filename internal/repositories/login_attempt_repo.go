package repositories

import (
	"context"
	"time"

	"clubsync/internal/models"
)

type LoginAttemptRepository interface {
	Record(ctx context.Context, attempt *models.LoginAttempt) error
	CountRecentFailures(ctx context.Context, email string, window time.Duration) (int, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type loginAttemptRepo struct {
	db Database
}

func NewLoginAttemptRepo(db Database) LoginAttemptRepository {
	return &loginAttemptRepo{db: db}
}

func (r *loginAttemptRepo) Record(ctx context.Context, attempt *models.LoginAttempt) error {
	query := `
		INSERT INTO login_attempts (email, customer_id, ip_address, device_name, successful, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`
	_, err := r.db.Exec(ctx, query,
		attempt.Email, attempt.CustomerID, attempt.IPAddress,
		attempt.DeviceName, attempt.Successful,
	)
	return err
}

func (r *loginAttemptRepo) CountRecentFailures(ctx context.Context, email string, window time.Duration) (int, error) {
	query := `
		SELECT COUNT(*) FROM login_attempts
		WHERE email = $1 AND successful = FALSE
			AND created_at >= NOW() - ($2 * INTERVAL '1 second')
	`
	var count int
	if err := r.db.QueryRow(ctx, query, email, int(window.Seconds())).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *loginAttemptRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM login_attempts WHERE created_at < $1`
	tag, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
