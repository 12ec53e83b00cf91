package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"license-service/internal/models"
)

// SettingsRepository handles the company settings singleton and the
// admin-editable license type price overrides.
type SettingsRepository struct {
	db             *gorm.DB
	defaultDueDays int
}

// NewSettingsRepository creates a new settings repository. defaultDueDays is
// used when the settings singleton is created on first read.
func NewSettingsRepository(db *gorm.DB, defaultDueDays int) *SettingsRepository {
	if defaultDueDays <= 0 {
		defaultDueDays = 14
	}
	return &SettingsRepository{db: db, defaultDueDays: defaultDueDays}
}

// GetOrCreate returns the settings singleton, creating it with defaults on
// first read.
func (r *SettingsRepository) GetOrCreate(ctx context.Context) (*models.CompanySettings, error) {
	var settings models.CompanySettings
	err := r.db.WithContext(ctx).First(&settings).Error
	if err == nil {
		return &settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to get company settings: %w", err)
	}

	settings = models.CompanySettings{
		ID:             uuid.New(),
		CompanyName:    "Arena Software AS",
		Country:        "Norge",
		InvoicePrefix:  "INV",
		DefaultDueDays: r.defaultDueDays,
		VATRate:        0,
	}
	if err := r.db.WithContext(ctx).Create(&settings).Error; err != nil {
		return nil, fmt.Errorf("failed to create default company settings: %w", err)
	}
	return &settings, nil
}

// Save persists the settings record
func (r *SettingsRepository) Save(ctx context.Context, settings *models.CompanySettings) error {
	if err := r.db.WithContext(ctx).Save(settings).Error; err != nil {
		return fmt.Errorf("failed to save company settings: %w", err)
	}
	return nil
}

// ListLicenseTypePrices returns all price overrides keyed by license type
func (r *SettingsRepository) ListLicenseTypePrices(ctx context.Context) (map[string]int, error) {
	var rows []models.LicenseTypePrice
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list license type prices: %w", err)
	}
	overrides := make(map[string]int, len(rows))
	for _, row := range rows {
		overrides[row.LicenseType] = row.Price
	}
	return overrides, nil
}

// GetLicenseTypePrice returns the override for one license type, or nil
func (r *SettingsRepository) GetLicenseTypePrice(ctx context.Context, licenseType string) (*int, error) {
	var row models.LicenseTypePrice
	err := r.db.WithContext(ctx).First(&row, "license_type = ?", licenseType).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get license type price: %w", err)
	}
	return &row.Price, nil
}

// UpsertLicenseTypePrice sets the override price for a license type
func (r *SettingsRepository) UpsertLicenseTypePrice(ctx context.Context, licenseType string, price int) error {
	row := models.LicenseTypePrice{LicenseType: licenseType, Price: price}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "license_type"}},
			DoUpdates: clause.AssignmentColumns([]string{"price", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert license type price: %w", err)
	}
	return nil
}
