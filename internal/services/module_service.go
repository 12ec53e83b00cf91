package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"license-service/internal/models"
	"license-service/internal/redis"
	"license-service/internal/repository"
)

// ModuleService manages the module catalog and per-organization entitlements.
type ModuleService struct {
	moduleRepo *repository.ModuleRepository
	orgRepo    *repository.OrganizationRepository
	cache      *redis.Client
	logger     *logrus.Logger
}

// NewModuleService creates a new module service
func NewModuleService(
	moduleRepo *repository.ModuleRepository,
	orgRepo *repository.OrganizationRepository,
	cache *redis.Client,
	logger *logrus.Logger,
) *ModuleService {
	return &ModuleService{
		moduleRepo: moduleRepo,
		orgRepo:    orgRepo,
		cache:      cache,
		logger:     logger,
	}
}

// ToggleModuleRequest switches a module on or off for an organization.
type ToggleModuleRequest struct {
	ModuleID uuid.UUID `json:"module_id" binding:"required"`
	IsActive *bool     `json:"is_active" binding:"required"`
}

// ListCatalog returns all modules in the catalog.
func (s *ModuleService) ListCatalog(ctx context.Context) ([]models.Module, error) {
	return s.moduleRepo.List(ctx)
}

// ListForOrganization returns an organization's module assignments.
func (s *ModuleService) ListForOrganization(ctx context.Context, orgID uuid.UUID) ([]models.OrganizationModule, error) {
	if _, err := s.orgRepo.GetByID(ctx, orgID); err != nil {
		if err == repository.ErrOrganizationNotFound {
			return nil, NewNotFoundError("organization")
		}
		return nil, err
	}
	return s.moduleRepo.ListForOrganization(ctx, orgID)
}

// Toggle activates or deactivates a module for an organization. Standard
// modules cannot be deactivated.
func (s *ModuleService) Toggle(ctx context.Context, orgID uuid.UUID, req *ToggleModuleRequest) (*models.OrganizationModule, error) {
	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		if err == repository.ErrOrganizationNotFound {
			return nil, NewNotFoundError("organization")
		}
		return nil, err
	}

	module, err := s.moduleRepo.GetByID(ctx, req.ModuleID)
	if err != nil {
		if err == repository.ErrModuleNotFound {
			return nil, NewNotFoundError("module")
		}
		return nil, err
	}

	isActive := req.IsActive != nil && *req.IsActive
	if module.IsStandard && !isActive {
		return nil, NewValidationError("is_active", "standard modules cannot be deactivated")
	}

	orgModule, err := s.moduleRepo.Toggle(ctx, orgID, module.ID, isActive)
	if err != nil {
		return nil, err
	}

	// Module changes affect pricing and validation verdicts
	if s.cache != nil {
		if err := s.cache.InvalidateLicense(ctx, org.LicenseKey); err != nil {
			s.logger.WithError(err).Warn("Failed to invalidate license cache")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"organization_id": orgID,
		"module_key":      module.Key,
		"is_active":       isActive,
	}).Info("Organization module toggled")

	return orgModule, nil
}
