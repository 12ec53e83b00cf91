package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"license-service/internal/models"
)

// ModuleRepository handles module and entitlement persistence
type ModuleRepository struct {
	db *gorm.DB
}

// NewModuleRepository creates a new module repository
func NewModuleRepository(db *gorm.DB) *ModuleRepository {
	return &ModuleRepository{db: db}
}

// List retrieves all modules
func (r *ModuleRepository) List(ctx context.Context) ([]models.Module, error) {
	var modules []models.Module
	if err := r.db.WithContext(ctx).Order("key").Find(&modules).Error; err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}
	return modules, nil
}

// GetByID retrieves a module by ID
func (r *ModuleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Module, error) {
	var module models.Module
	if err := r.db.WithContext(ctx).First(&module, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to get module: %w", err)
	}
	return &module, nil
}

// ListForOrganization retrieves all entitlement rows for an organization,
// with module details preloaded.
func (r *ModuleRepository) ListForOrganization(ctx context.Context, orgID uuid.UUID) ([]models.OrganizationModule, error) {
	var rows []models.OrganizationModule
	err := r.db.WithContext(ctx).
		Preload("Module").
		Where("organization_id = ?", orgID).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list organization modules: %w", err)
	}
	return rows, nil
}

// Toggle upserts an entitlement row for (organization, module). Uniqueness is
// enforced by the composite index; concurrent toggles collapse into one row.
func (r *ModuleRepository) Toggle(ctx context.Context, orgID, moduleID uuid.UUID, isActive bool) (*models.OrganizationModule, error) {
	now := time.Now()
	row := models.OrganizationModule{
		ID:             uuid.New(),
		OrganizationID: orgID,
		ModuleID:       moduleID,
		IsActive:       isActive,
	}
	if isActive {
		row.ActivatedAt = &now
	}

	assignments := map[string]interface{}{
		"is_active":  isActive,
		"updated_at": now,
	}
	if isActive {
		assignments["activated_at"] = now
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "organization_id"}, {Name: "module_id"}},
			DoUpdates: clause.Assignments(assignments),
		}).
		Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to toggle organization module: %w", err)
	}

	var saved models.OrganizationModule
	err = r.db.WithContext(ctx).
		Preload("Module").
		Where("organization_id = ? AND module_id = ?", orgID, moduleID).
		First(&saved).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load organization module: %w", err)
	}
	return &saved, nil
}

// Seed inserts the given modules if their keys are not present yet
func (r *ModuleRepository) Seed(ctx context.Context, modules []models.Module) error {
	for i := range modules {
		if modules[i].ID == uuid.Nil {
			modules[i].ID = uuid.New()
		}
		err := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoNothing: true,
			}).
			Create(&modules[i]).Error
		if err != nil {
			return fmt.Errorf("failed to seed module %s: %w", modules[i].Key, err)
		}
	}
	return nil
}
