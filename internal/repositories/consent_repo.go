package repositories

import (
	"context"
	"errors"

	"clubsync/internal/models"

	"github.com/jackc/pgx/v5"
)

type PrivacyConsentRepository interface {
	Create(ctx context.Context, consent *models.PrivacyConsent) error
	GetByCustomerID(ctx context.Context, customerID string) (*models.PrivacyConsent, error)
}

type privacyConsentRepo struct {
	db Database
}

func NewPrivacyConsentRepo(db Database) PrivacyConsentRepository {
	return &privacyConsentRepo{db: db}
}

func (r *privacyConsentRepo) Create(ctx context.Context, consent *models.PrivacyConsent) error {
	query := `
		INSERT INTO privacy_consents (customer_id, document_version, document_url,
			ip_address, accepted_at, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`
	_, err := r.db.Exec(ctx, query,
		consent.CustomerID, consent.DocumentVersion, consent.DocumentURL,
		consent.IPAddress, consent.AcceptedAt, consent.UserAgent,
	)
	return err
}

func (r *privacyConsentRepo) GetByCustomerID(ctx context.Context, customerID string) (*models.PrivacyConsent, error) {
	query := `
		SELECT customer_id, document_version, document_url, ip_address,
			accepted_at, user_agent, created_at
		FROM privacy_consents
		WHERE customer_id = $1
	`
	consent := &models.PrivacyConsent{}
	err := r.db.QueryRow(ctx, query, customerID).Scan(
		&consent.CustomerID, &consent.DocumentVersion, &consent.DocumentURL,
		&consent.IPAddress, &consent.AcceptedAt, &consent.UserAgent,
		&consent.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return consent, nil
}
