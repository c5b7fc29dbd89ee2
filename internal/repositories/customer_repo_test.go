package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"clubsync/internal/models"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

func stringPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

type CustomerRepoTestSuite struct {
	suite.Suite
	mock    pgxmock.PgxPoolIface
	repo    CustomerRepository
	context context.Context
}

func (suite *CustomerRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewCustomerRepo(mock)
	suite.context = context.Background()
}

func (suite *CustomerRepoTestSuite) TearDownTest() {
	suite.mock.Close()
}

func TestCustomerRepoTestSuite(t *testing.T) {
	suite.Run(t, new(CustomerRepoTestSuite))
}

func customerRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "billing_id", "plan_code", "name", "email", "phone", "device_name", "token",
		"access_key_hash", "is_active", "waiting_for_token", "waiting_since",
		"token_updated_at", "last_seen", "created_at", "updated_at",
	})
}

func (suite *CustomerRepoTestSuite) TestCreate_Success() {
	customer := &models.Customer{
		ID:       "cus-100",
		Name:     "North Gym",
		Email:    stringPtr("north@example.com"),
		IsActive: true,
	}

	suite.mock.ExpectExec(`INSERT INTO customers`).
		WithArgs(customer.ID, customer.BillingID, customer.PlanCode, customer.Name,
			customer.Email, customer.Phone, customer.DeviceName, customer.Token,
			customer.AccessKeyHash, customer.IsActive, customer.WaitingForToken,
			customer.TokenUpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.Create(suite.context, customer)
	assert.NoError(suite.T(), err)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *CustomerRepoTestSuite) TestGetByID_Found() {
	now := time.Now()
	rows := customerRows().AddRow(
		"cus-100", stringPtr("bill-7"), stringPtr("pro"), "North Gym",
		stringPtr("north@example.com"), nil, nil, nil,
		stringPtr("abcd1234"), true, false, nil,
		nil, nil, now, now,
	)

	suite.mock.ExpectQuery(`SELECT (.+) FROM customers WHERE id = \$1`).
		WithArgs("cus-100").
		WillReturnRows(rows)

	customer, err := suite.repo.GetByID(suite.context, "cus-100")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "cus-100", customer.ID)
	assert.Equal(suite.T(), "North Gym", customer.Name)
	assert.Equal(suite.T(), "north@example.com", *customer.Email)
	assert.True(suite.T(), customer.IsActive)
}

func (suite *CustomerRepoTestSuite) TestGetByID_NotFound() {
	suite.mock.ExpectQuery(`SELECT (.+) FROM customers WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(customerRows())

	customer, err := suite.repo.GetByID(suite.context, "missing")
	assert.Nil(suite.T(), customer)
	assert.True(suite.T(), errors.Is(err, ErrNotFound))
}

func (suite *CustomerRepoTestSuite) TestGetByEmail_CaseInsensitive() {
	now := time.Now()
	rows := customerRows().AddRow(
		"cus-100", nil, nil, "North Gym",
		stringPtr("north@example.com"), nil, nil, nil,
		nil, true, false, nil,
		nil, nil, now, now,
	)

	suite.mock.ExpectQuery(`LOWER\(email\) = LOWER\(\$1\)`).
		WithArgs("North@Example.COM").
		WillReturnRows(rows)

	customer, err := suite.repo.GetByEmail(suite.context, "North@Example.COM")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "cus-100", customer.ID)
}

func (suite *CustomerRepoTestSuite) TestUpdate_NotFound() {
	customer := &models.Customer{ID: "missing", Name: "Ghost"}

	suite.mock.ExpectExec(`UPDATE customers`).
		WithArgs(customer.ID, customer.BillingID, customer.PlanCode, customer.Name,
			customer.Email, customer.Phone, customer.DeviceName, customer.Token,
			customer.IsActive, customer.WaitingForToken, customer.WaitingSince,
			customer.TokenUpdatedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := suite.repo.Update(suite.context, customer)
	assert.True(suite.T(), errors.Is(err, ErrNotFound))
}

func (suite *CustomerRepoTestSuite) TestSetWaitingForToken() {
	suite.mock.ExpectExec(`SET waiting_for_token = \$2`).
		WithArgs("cus-100", true).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := suite.repo.SetWaitingForToken(suite.context, "cus-100", true)
	assert.NoError(suite.T(), err)
}

func (suite *CustomerRepoTestSuite) TestInstallToken_KeepsDeviceNameWhenAbsent() {
	suite.mock.ExpectExec(`device_name = COALESCE\(\$3, device_name\)`).
		WithArgs("cus-100", "tok-xyz", (*string)(nil)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := suite.repo.InstallToken(suite.context, "cus-100", "tok-xyz", nil)
	assert.NoError(suite.T(), err)
}

func (suite *CustomerRepoTestSuite) TestEmailInUse_ExcludesOwner() {
	rows := pgxmock.NewRows([]string{"exists"}).AddRow(false)

	suite.mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("north@example.com", "cus-100").
		WillReturnRows(rows)

	inUse, err := suite.repo.EmailInUse(suite.context, "north@example.com", "cus-100")
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), inUse)
}

func (suite *CustomerRepoTestSuite) TestAccessKeyHashExists() {
	rows := pgxmock.NewRows([]string{"exists"}).AddRow(true)

	suite.mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM customers WHERE access_key_hash = \$1\)`).
		WithArgs("digest").
		WillReturnRows(rows)

	exists, err := suite.repo.AccessKeyHashExists(suite.context, "digest")
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), exists)
}

func (suite *CustomerRepoTestSuite) TestList_OrderedByID() {
	now := time.Now()
	rows := customerRows().
		AddRow("cus-001", nil, nil, "Alpha", nil, nil, nil, nil, nil, true, false, nil, nil, nil, now, now).
		AddRow("cus-002", nil, nil, "Beta", nil, nil, nil, nil, nil, false, false, nil, nil, nil, now, now)

	suite.mock.ExpectQuery(`FROM customers ORDER BY id ASC`).
		WillReturnRows(rows)

	customers, err := suite.repo.List(suite.context)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), customers, 2)
	assert.Equal(suite.T(), "cus-001", customers[0].ID)
	assert.Equal(suite.T(), "cus-002", customers[1].ID)
}
