package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"license-service/internal/models"
)

// Sentinel errors shared by the repositories. Services translate these into
// typed errors for the handlers.
var (
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrModuleNotFound       = errors.New("module not found")
	ErrInvoiceNotFound      = errors.New("invoice not found")
)

// OrganizationRepository handles organization persistence
type OrganizationRepository struct {
	db *gorm.DB
}

// NewOrganizationRepository creates a new organization repository
func NewOrganizationRepository(db *gorm.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// Create persists a new organization
func (r *OrganizationRepository) Create(ctx context.Context, org *models.Organization) error {
	if org.ID == uuid.Nil {
		org.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(org).Error; err != nil {
		return fmt.Errorf("failed to create organization: %w", err)
	}
	return nil
}

// GetByID retrieves an organization by ID
func (r *OrganizationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.WithContext(ctx).First(&org, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return &org, nil
}

// GetBySlug retrieves an organization by slug
func (r *OrganizationRepository) GetBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.WithContext(ctx).First(&org, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to get organization by slug: %w", err)
	}
	return &org, nil
}

// GetByLicenseKey retrieves an organization by its license key
func (r *OrganizationRepository) GetByLicenseKey(ctx context.Context, licenseKey string) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.WithContext(ctx).First(&org, "license_key = ?", licenseKey).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to get organization by license key: %w", err)
	}
	return &org, nil
}

// GetWithActiveModules retrieves an organization with its active module rows preloaded
func (r *OrganizationRepository) GetWithActiveModules(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	var org models.Organization
	err := r.db.WithContext(ctx).
		Preload("Modules", "is_active = ?", true).
		Preload("Modules.Module").
		First(&org, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to get organization with modules: %w", err)
	}
	return &org, nil
}

// GetByLicenseKeyWithActiveModules retrieves by license key with active modules preloaded
func (r *OrganizationRepository) GetByLicenseKeyWithActiveModules(ctx context.Context, licenseKey string) (*models.Organization, error) {
	var org models.Organization
	err := r.db.WithContext(ctx).
		Preload("Modules", "is_active = ?", true).
		Preload("Modules.Module").
		First(&org, "license_key = ?", licenseKey).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to get organization with modules: %w", err)
	}
	return &org, nil
}

// List retrieves all organizations newest first, with stats preloaded
func (r *OrganizationRepository) List(ctx context.Context) ([]models.Organization, error) {
	var orgs []models.Organization
	err := r.db.WithContext(ctx).
		Preload("Stats").
		Order("created_at DESC").
		Find(&orgs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	return orgs, nil
}

// Update applies a partial update to the organization identified by slug and
// returns the updated record.
func (r *OrganizationRepository) Update(ctx context.Context, slug string, updates map[string]interface{}) (*models.Organization, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Organization{}).
		Where("slug = ?", slug).
		Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update organization: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrOrganizationNotFound
	}
	return r.GetBySlug(ctx, slug)
}

// UpdateHeartbeat bumps the heartbeat timestamp and usage summary counters
func (r *OrganizationRepository) UpdateHeartbeat(ctx context.Context, id uuid.UUID, totalUsers, totalBookings int, appVersion string) error {
	updates := map[string]interface{}{
		"last_heartbeat": time.Now(),
		"total_users":    totalUsers,
		"total_bookings": totalBookings,
	}
	if appVersion != "" {
		updates["app_version"] = appVersion
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Organization{}).
		Where("id = ?", id).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update heartbeat: %w", err)
	}
	return nil
}

// CreateValidation appends a license validation audit record
func (r *OrganizationRepository) CreateValidation(ctx context.Context, v *models.LicenseValidation) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(v).Error; err != nil {
		return fmt.Errorf("failed to create validation record: %w", err)
	}
	return nil
}

// CountValidations returns validation counts keyed by organization ID
func (r *OrganizationRepository) CountValidations(ctx context.Context) (map[uuid.UUID]int64, error) {
	type row struct {
		OrganizationID uuid.UUID
		Count          int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.LicenseValidation{}).
		Select("organization_id, COUNT(*) as count").
		Group("organization_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count validations: %w", err)
	}
	counts := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		counts[r.OrganizationID] = r.Count
	}
	return counts, nil
}

// PruneValidations deletes validation records older than the cutoff and
// returns the number of deleted rows.
func (r *OrganizationRepository) PruneValidations(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.LicenseValidation{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to prune validations: %w", result.Error)
	}
	return result.RowsAffected, nil
}
