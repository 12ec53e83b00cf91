package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestGetOrCreateSeedsConfiguredDueDays(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSettingsRepository(db, 21)

	mock.ExpectQuery(`SELECT (.+) FROM "company_settings"`).
		WillReturnError(gorm.ErrRecordNotFound)
	mock.ExpectQuery(`INSERT INTO "company_settings"`).
		WillReturnRows(sqlmock.NewRows([]string{"vat_rate"}).AddRow(0))

	settings, err := repo.GetOrCreate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 21, settings.DefaultDueDays)
	assert.Equal(t, "INV", settings.InvoicePrefix)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrCreateReturnsExistingRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSettingsRepository(db, 21)

	mock.ExpectQuery(`SELECT (.+) FROM "company_settings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "company_name", "default_due_days"}).
			AddRow(uuid.New().String(), "Arena Software AS", 30))

	settings, err := repo.GetOrCreate(context.Background())
	require.NoError(t, err)
	// The stored value wins over the configured default
	assert.Equal(t, 30, settings.DefaultDueDays)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewSettingsRepositoryFallsBackOnBadDefault(t *testing.T) {
	db, _ := newMockDB(t)

	repo := NewSettingsRepository(db, 0)
	assert.Equal(t, 14, repo.defaultDueDays)

	repo = NewSettingsRepository(db, -3)
	assert.Equal(t, 14, repo.defaultDueDays)
}
