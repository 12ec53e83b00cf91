package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"license-service/internal/models"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return db, mock
}

func testInvoice() *models.Invoice {
	return &models.Invoice{
		ID:             uuid.New(),
		OrganizationID: uuid.New(),
		PeriodMonth:    1,
		PeriodYear:     2025,
		PeriodMonths:   1,
		BasePrice:      1000,
		ModulePrice:    200,
		Amount:         1200,
		Status:         models.InvoiceStatusDraft,
		InvoiceDate:    time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		DueDate:        time.Date(2025, 1, 29, 0, 0, 0, 0, time.UTC),
		LicenseType:    models.LicenseTypeStandard,
	}
}

func TestCreateWithNumber_ReservesSequence(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewInvoiceRepository(db)
	invoice := testInvoice()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "invoices"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`INSERT INTO invoice_sequences`).
		WillReturnRows(sqlmock.NewRows([]string{"last_seq"}).AddRow(1))
	mock.ExpectQuery(`INSERT INTO "invoices"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(invoice.ID))
	mock.ExpectCommit()

	err := repo.CreateWithNumber(context.Background(), invoice, "INV")
	require.NoError(t, err)

	assert.Equal(t, "INV-2025-001", invoice.InvoiceNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithNumber_PadsAndPrefixes(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewInvoiceRepository(db)
	invoice := testInvoice()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "invoices"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`INSERT INTO invoice_sequences`).
		WillReturnRows(sqlmock.NewRows([]string{"last_seq"}).AddRow(42))
	mock.ExpectQuery(`INSERT INTO "invoices"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(invoice.ID))
	mock.ExpectCommit()

	err := repo.CreateWithNumber(context.Background(), invoice, "ARENA")
	require.NoError(t, err)

	assert.Equal(t, "ARENA-2025-042", invoice.InvoiceNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithNumber_EmptyPrefixFallsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewInvoiceRepository(db)
	invoice := testInvoice()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "invoices"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`INSERT INTO invoice_sequences`).
		WillReturnRows(sqlmock.NewRows([]string{"last_seq"}).AddRow(7))
	mock.ExpectQuery(`INSERT INTO "invoices"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(invoice.ID))
	mock.ExpectCommit()

	err := repo.CreateWithNumber(context.Background(), invoice, "")
	require.NoError(t, err)

	assert.Equal(t, "INV-2025-007", invoice.InvoiceNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithNumber_DuplicatePeriod(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewInvoiceRepository(db)
	invoice := testInvoice()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "invoices"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	err := repo.CreateWithNumber(context.Background(), invoice, "INV")
	assert.ErrorIs(t, err, ErrDuplicatePeriod)
	assert.Empty(t, invoice.InvoiceNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewInvoiceRepository(db)

	mock.ExpectQuery(`SELECT (.+) FROM "invoices"`).
		WillReturnError(gorm.ErrRecordNotFound)

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewInvoiceRepository(db)

	mock.ExpectExec(`UPDATE "invoices" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), uuid.New(), models.InvoiceStatusSent, nil)
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_WithPaidDate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewInvoiceRepository(db)
	paid := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE "invoices" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), uuid.New(), models.InvoiceStatusPaid, &paid)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewInvoiceRepository(db)

	mock.ExpectExec(`DELETE FROM "invoices"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkOverdue_ReturnsAffectedRows(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewInvoiceRepository(db)

	mock.ExpectExec(`UPDATE "invoices" SET`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	count, err := repo.MarkOverdue(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
