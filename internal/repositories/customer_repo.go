package repositories

import (
	"context"
	"errors"

	"clubsync/internal/models"

	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("record not found")

type CustomerRepository interface {
	Create(ctx context.Context, customer *models.Customer) error
	GetByID(ctx context.Context, id string) (*models.Customer, error)
	GetByEmail(ctx context.Context, email string) (*models.Customer, error)
	Update(ctx context.Context, customer *models.Customer) error
	SetWaitingForToken(ctx context.Context, id string, waiting bool) error
	InstallToken(ctx context.Context, id, token string, deviceName *string) error
	TouchLastSeen(ctx context.Context, id string) error
	EmailInUse(ctx context.Context, email, excludeID string) (bool, error)
	AccessKeyHashExists(ctx context.Context, hash string) (bool, error)
	List(ctx context.Context) ([]*models.Customer, error)
}

type customerRepo struct {
	db Database
}

func NewCustomerRepo(db Database) CustomerRepository {
	return &customerRepo{db: db}
}

const customerColumns = `id, billing_id, plan_code, name, email, phone, device_name, token,
		access_key_hash, is_active, waiting_for_token, waiting_since,
		token_updated_at, last_seen, created_at, updated_at`

func (r *customerRepo) Create(ctx context.Context, customer *models.Customer) error {
	query := `
		INSERT INTO customers (id, billing_id, plan_code, name, email, phone, device_name,
			token, access_key_hash, is_active, waiting_for_token, token_updated_at,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query,
		customer.ID, customer.BillingID, customer.PlanCode, customer.Name,
		customer.Email, customer.Phone, customer.DeviceName, customer.Token,
		customer.AccessKeyHash, customer.IsActive, customer.WaitingForToken,
		customer.TokenUpdatedAt,
	)
	return err
}

func (r *customerRepo) GetByID(ctx context.Context, id string) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

func (r *customerRepo) GetByEmail(ctx context.Context, email string) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE email IS NOT NULL AND LOWER(email) = LOWER($1)`
	return r.scanOne(r.db.QueryRow(ctx, query, email))
}

func (r *customerRepo) Update(ctx context.Context, customer *models.Customer) error {
	query := `
		UPDATE customers
		SET billing_id = $2, plan_code = $3, name = $4, email = $5, phone = $6,
			device_name = $7, token = $8, is_active = $9, waiting_for_token = $10,
			waiting_since = $11, token_updated_at = $12, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query,
		customer.ID, customer.BillingID, customer.PlanCode, customer.Name,
		customer.Email, customer.Phone, customer.DeviceName, customer.Token,
		customer.IsActive, customer.WaitingForToken, customer.WaitingSince,
		customer.TokenUpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *customerRepo) SetWaitingForToken(ctx context.Context, id string, waiting bool) error {
	query := `
		UPDATE customers
		SET waiting_for_token = $2,
			waiting_since = CASE WHEN $2 THEN NOW() ELSE NULL END,
			updated_at = NOW()
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, id, waiting)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *customerRepo) InstallToken(ctx context.Context, id, token string, deviceName *string) error {
	query := `
		UPDATE customers
		SET token = $2, device_name = COALESCE($3, device_name),
			waiting_for_token = FALSE, waiting_since = NULL,
			token_updated_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, id, token, deviceName)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *customerRepo) TouchLastSeen(ctx context.Context, id string) error {
	query := `UPDATE customers SET last_seen = NOW(), updated_at = NOW() WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}

func (r *customerRepo) EmailInUse(ctx context.Context, email, excludeID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM customers
			WHERE email IS NOT NULL AND LOWER(email) = LOWER($1) AND id <> $2
		)
	`
	var inUse bool
	if err := r.db.QueryRow(ctx, query, email, excludeID).Scan(&inUse); err != nil {
		return false, err
	}
	return inUse, nil
}

func (r *customerRepo) AccessKeyHashExists(ctx context.Context, hash string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM customers WHERE access_key_hash = $1)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, hash).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *customerRepo) List(ctx context.Context) ([]*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers ORDER BY id ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []*models.Customer
	for rows.Next() {
		customer := &models.Customer{}
		if err := r.scanInto(rows, customer); err != nil {
			return nil, err
		}
		customers = append(customers, customer)
	}
	return customers, rows.Err()
}

func (r *customerRepo) scanOne(row pgx.Row) (*models.Customer, error) {
	customer := &models.Customer{}
	err := row.Scan(
		&customer.ID, &customer.BillingID, &customer.PlanCode, &customer.Name,
		&customer.Email, &customer.Phone, &customer.DeviceName, &customer.Token,
		&customer.AccessKeyHash, &customer.IsActive, &customer.WaitingForToken,
		&customer.WaitingSince, &customer.TokenUpdatedAt, &customer.LastSeen,
		&customer.CreatedAt, &customer.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return customer, nil
}

func (r *customerRepo) scanInto(rows pgx.Rows, customer *models.Customer) error {
	return rows.Scan(
		&customer.ID, &customer.BillingID, &customer.PlanCode, &customer.Name,
		&customer.Email, &customer.Phone, &customer.DeviceName, &customer.Token,
		&customer.AccessKeyHash, &customer.IsActive, &customer.WaitingForToken,
		&customer.WaitingSince, &customer.TokenUpdatedAt, &customer.LastSeen,
		&customer.CreatedAt, &customer.UpdatedAt,
	)
}
