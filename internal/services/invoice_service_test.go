package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"license-service/internal/models"
	"license-service/internal/repository"
)

func TestCanTransitionInvoice(t *testing.T) {
	allowed := []struct{ from, to string }{
		{models.InvoiceStatusDraft, models.InvoiceStatusSent},
		{models.InvoiceStatusDraft, models.InvoiceStatusCancelled},
		{models.InvoiceStatusSent, models.InvoiceStatusPaid},
		{models.InvoiceStatusSent, models.InvoiceStatusOverdue},
		{models.InvoiceStatusSent, models.InvoiceStatusCancelled},
		{models.InvoiceStatusOverdue, models.InvoiceStatusPaid},
		{models.InvoiceStatusOverdue, models.InvoiceStatusCancelled},
		{models.InvoiceStatusPaid, models.InvoiceStatusRefunded},
	}
	for _, tc := range allowed {
		assert.True(t, CanTransitionInvoice(tc.from, tc.to), "%s -> %s should be allowed", tc.from, tc.to)
	}

	denied := []struct{ from, to string }{
		{models.InvoiceStatusDraft, models.InvoiceStatusPaid},
		{models.InvoiceStatusDraft, models.InvoiceStatusOverdue},
		{models.InvoiceStatusSent, models.InvoiceStatusDraft},
		{models.InvoiceStatusPaid, models.InvoiceStatusSent},
		{models.InvoiceStatusPaid, models.InvoiceStatusCancelled},
		{models.InvoiceStatusCancelled, models.InvoiceStatusSent},
		{models.InvoiceStatusCancelled, models.InvoiceStatusDraft},
		{models.InvoiceStatusRefunded, models.InvoiceStatusPaid},
	}
	for _, tc := range denied {
		assert.False(t, CanTransitionInvoice(tc.from, tc.to), "%s -> %s should be rejected", tc.from, tc.to)
	}
}

func TestInvoiceCreateRejectsBadPeriod(t *testing.T) {
	svc := NewInvoiceService(nil, nil, nil, nil, nil, nil, logrus.New())

	_, err := svc.Create(context.Background(), &CreateInvoiceRequest{
		OrganizationID: uuid.New(),
		PeriodMonth:    13,
		PeriodYear:     2025,
	})
	require.Error(t, err)
	ve, ok := IsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "period_month", ve.Field)

	_, err = svc.Create(context.Background(), &CreateInvoiceRequest{
		OrganizationID: uuid.New(),
		PeriodMonth:    1,
		PeriodYear:     2025,
		PeriodMonths:   5,
	})
	require.Error(t, err)
	ve, ok = IsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "period_months", ve.Field)
}

func TestInvoiceUpdateStatusRejectsUnknownStatus(t *testing.T) {
	svc := NewInvoiceService(nil, nil, nil, nil, nil, nil, logrus.New())

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), "archived")
	require.Error(t, err)
	_, ok := IsValidationError(err)
	assert.True(t, ok)
}

func TestInvoiceListRejectsUnknownStatusFilter(t *testing.T) {
	svc := NewInvoiceService(nil, nil, nil, nil, nil, nil, logrus.New())

	_, err := svc.List(context.Background(), repository.InvoiceFilter{Status: "archived"})
	require.Error(t, err)
	_, ok := IsValidationError(err)
	assert.True(t, ok)
}

// stubEmailer satisfies InvoiceEmailer with a canned result.
type stubEmailer struct {
	result *EmailResult
	called bool
}

func (s *stubEmailer) SendInvoice(ctx context.Context, invoice *models.Invoice, org *models.Organization, settings *models.CompanySettings, pdf []byte) *EmailResult {
	s.called = true
	return s.result
}

func newInvoiceServiceTestEnv(t *testing.T, emailer InvoiceEmailer) (*InvoiceService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	svc := NewInvoiceService(
		repository.NewInvoiceRepository(db),
		repository.NewOrganizationRepository(db),
		repository.NewSettingsRepository(db, 14),
		emailer,
		nil,
		nil,
		testLogger(),
	)
	return svc, mock
}

func TestInvoiceCreateDuplicatePeriodIsValidationError(t *testing.T) {
	svc, mock := newInvoiceServiceTestEnv(t, nil)
	orgID := uuid.New()

	mock.ExpectQuery(`SELECT (.+) FROM "organizations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "slug", "license_key", "license_type", "is_active", "expires_at"}).
			AddRow(orgID.String(), "Lillestrøm IL", "lillestrom-il", "abc123", models.LicenseTypeStandard, true, time.Now().AddDate(1, 0, 0)))
	mock.ExpectQuery(`SELECT (.+) FROM "organization_modules"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT (.+) FROM "company_settings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "company_name", "invoice_prefix", "default_due_days", "vat_rate"}).
			AddRow(uuid.New().String(), "Arena Software AS", "INV", 14, 0))
	mock.ExpectQuery(`SELECT (.+) FROM "license_type_prices"`).
		WillReturnError(gorm.ErrRecordNotFound)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "invoices"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), &CreateInvoiceRequest{
		OrganizationID: orgID,
		PeriodMonth:    3,
		PeriodYear:     2025,
	})
	require.Error(t, err)
	ve, ok := IsValidationError(err)
	require.True(t, ok, "duplicate period must surface as a 400 validation error, got %v", err)
	assert.Equal(t, "period", ve.Field)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func expectInvoiceWithOrganization(mock sqlmock.Sqlmock, invoiceID, orgID uuid.UUID, status string) {
	mock.ExpectQuery(`SELECT (.+) FROM "invoices"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "invoice_number", "status", "period_month", "period_year", "period_months", "amount", "due_date"}).
			AddRow(invoiceID.String(), orgID.String(), "INV-2025-001", status, 1, 2025, 1, 1200, time.Now().AddDate(0, 0, 14)))
	mock.ExpectQuery(`SELECT (.+) FROM "organizations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "contact_name", "contact_email"}).
			AddRow(orgID.String(), "Lillestrøm IL", "Kari Nordmann", "kari@lillestrom-il.no"))
}

func TestInvoiceSendFailureKeepsDraft(t *testing.T) {
	emailer := &stubEmailer{result: &EmailResult{Success: false, Error: "SMTP-tilkobling avvist"}}
	svc, mock := newInvoiceServiceTestEnv(t, emailer)

	invoiceID := uuid.New()
	expectInvoiceWithOrganization(mock, invoiceID, uuid.New(), models.InvoiceStatusDraft)
	mock.ExpectQuery(`SELECT (.+) FROM "company_settings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "company_name", "invoice_prefix", "default_due_days", "vat_rate"}).
			AddRow(uuid.New().String(), "Arena Software AS", "INV", 14, 0))

	result, err := svc.Send(context.Background(), invoiceID, nil)
	require.NoError(t, err, "transport failure must not become a request error")
	assert.True(t, emailer.called)
	assert.False(t, result.Success)
	assert.Equal(t, "SMTP-tilkobling avvist", result.Error)
	assert.Equal(t, models.InvoiceStatusDraft, result.Invoice.Status)
	// No status update was issued
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvoiceSendSuccessMarksSent(t *testing.T) {
	emailer := &stubEmailer{result: &EmailResult{Success: true}}
	svc, mock := newInvoiceServiceTestEnv(t, emailer)

	invoiceID := uuid.New()
	expectInvoiceWithOrganization(mock, invoiceID, uuid.New(), models.InvoiceStatusDraft)
	mock.ExpectQuery(`SELECT (.+) FROM "company_settings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "company_name", "invoice_prefix", "default_due_days", "vat_rate"}).
			AddRow(uuid.New().String(), "Arena Software AS", "INV", 14, 0))
	mock.ExpectExec(`UPDATE "invoices" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := svc.Send(context.Background(), invoiceID, nil)
	require.NoError(t, err)
	assert.True(t, emailer.called)
	assert.True(t, result.Success)
	assert.Equal(t, models.InvoiceStatusSent, result.Invoice.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
