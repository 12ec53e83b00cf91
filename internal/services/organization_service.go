package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"license-service/internal/metrics"
	"license-service/internal/models"
	"license-service/internal/nats"
	"license-service/internal/redis"
	"license-service/internal/repository"
)

var slugRegexp = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Validation failure reasons returned to the booking app.
const (
	ValidationReasonMismatch = "mismatch"
	ValidationReasonInactive = "inactive"
	ValidationReasonExpired  = "expired"
)

// OrganizationService implements license administration and validation.
type OrganizationService struct {
	orgRepo      *repository.OrganizationRepository
	settingsRepo *repository.SettingsRepository
	cache        *redis.Client
	events       *nats.Client
	metrics      *metrics.Metrics
	logger       *logrus.Logger
}

// NewOrganizationService creates a new organization service. cache and events
// may be nil; the service degrades to direct DB access and no event publishing.
func NewOrganizationService(
	orgRepo *repository.OrganizationRepository,
	settingsRepo *repository.SettingsRepository,
	cache *redis.Client,
	events *nats.Client,
	m *metrics.Metrics,
	logger *logrus.Logger,
) *OrganizationService {
	return &OrganizationService{
		orgRepo:      orgRepo,
		settingsRepo: settingsRepo,
		cache:        cache,
		events:       events,
		metrics:      m,
		logger:       logger,
	}
}

// CreateOrganizationRequest is the payload for creating an organization.
type CreateOrganizationRequest struct {
	Name         string     `json:"name" binding:"required"`
	Slug         string     `json:"slug" binding:"required"`
	ContactEmail string     `json:"contact_email"`
	ContactName  string     `json:"contact_name"`
	ContactPhone string     `json:"contact_phone"`
	LicenseType  string     `json:"license_type"`
	ExpiresAt    *time.Time `json:"expires_at"`
	MaxUsers     *int       `json:"max_users"`
	MaxResources *int       `json:"max_resources"`
	Notes        string     `json:"notes"`
}

// UpdateOrganizationRequest is a partial update keyed by slug. Pointer fields
// distinguish "not provided" from zero values.
type UpdateOrganizationRequest struct {
	Name          *string    `json:"name"`
	ContactEmail  *string    `json:"contact_email"`
	ContactName   *string    `json:"contact_name"`
	ContactPhone  *string    `json:"contact_phone"`
	LicenseType   *string    `json:"license_type"`
	IsActive      *bool      `json:"is_active"`
	IsSuspended   *bool      `json:"is_suspended"`
	SuspendReason *string    `json:"suspend_reason"`
	ExpiresAt     *time.Time `json:"expires_at"`
	GraceEndsAt   *time.Time `json:"grace_ends_at"`
	MaxUsers      *int       `json:"max_users"`
	MaxResources  *int       `json:"max_resources"`
	Notes         *string    `json:"notes"`
}

// OrganizationListItem is one row of the admin console overview.
type OrganizationListItem struct {
	models.Organization
	ValidationCount int64 `json:"validation_count"`
}

// ValidateRequest is the payload sent by a booking app instance.
type ValidateRequest struct {
	LicenseKey string `json:"license_key" binding:"required"`
	OrgSlug    string `json:"org_slug" binding:"required"`
}

// ValidationResult is the verdict returned to the booking app. The license
// type is exposed as "plan" on the wire.
type ValidationResult struct {
	Valid       bool       `json:"valid"`
	LicenseType string     `json:"plan,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	Modules     []string   `json:"modules,omitempty"`
}

// PricingResult is the pricing breakdown for one organization.
type PricingResult struct {
	OrganizationID string `json:"organization_id"`
	Name           string `json:"name"`
	Slug           string `json:"slug"`
	PricingBreakdown
}

// GenerateLicenseKey returns a new random 64-character hex license key.
func GenerateLicenseKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate license key: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// List returns all organizations with stats and validation counts.
func (s *OrganizationService) List(ctx context.Context) ([]OrganizationListItem, error) {
	orgs, err := s.orgRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	counts, err := s.orgRepo.CountValidations(ctx)
	if err != nil {
		// The overview is still useful without counts
		s.logger.WithError(err).Warn("Failed to count license validations")
		counts = nil
	}

	items := make([]OrganizationListItem, 0, len(orgs))
	for _, org := range orgs {
		items = append(items, OrganizationListItem{
			Organization:    org,
			ValidationCount: counts[org.ID],
		})
	}
	return items, nil
}

// Get returns one organization by slug with its active modules.
func (s *OrganizationService) Get(ctx context.Context, slug string) (*models.Organization, error) {
	org, err := s.orgRepo.GetBySlug(ctx, slug)
	if err != nil {
		if err == repository.ErrOrganizationNotFound {
			return nil, NewNotFoundError("organization")
		}
		return nil, err
	}
	return s.orgRepo.GetWithActiveModules(ctx, org.ID)
}

// Create provisions a new organization with a fresh license key.
func (s *OrganizationService) Create(ctx context.Context, req *CreateOrganizationRequest) (*models.Organization, error) {
	req.Slug = strings.ToLower(strings.TrimSpace(req.Slug))
	if !slugRegexp.MatchString(req.Slug) {
		return nil, NewValidationError("slug", "slug must be lowercase letters, digits and hyphens")
	}
	if len(req.Name) < 2 {
		return nil, NewValidationError("name", "name must be at least 2 characters")
	}

	licenseType := req.LicenseType
	if licenseType == "" {
		licenseType = models.LicenseTypeInactive
	}
	if !models.IsValidLicenseType(licenseType) {
		return nil, NewValidationError("license_type", fmt.Sprintf("unknown license type: %s", licenseType))
	}

	if _, err := s.orgRepo.GetBySlug(ctx, req.Slug); err == nil {
		return nil, NewConflictError("organization", fmt.Sprintf("slug %q is already taken", req.Slug))
	} else if err != repository.ErrOrganizationNotFound {
		return nil, err
	}

	licenseKey, err := GenerateLicenseKey()
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().AddDate(1, 0, 0)
	if req.ExpiresAt != nil {
		expiresAt = *req.ExpiresAt
	}

	now := time.Now()
	org := &models.Organization{
		Name:         req.Name,
		Slug:         req.Slug,
		ContactEmail: req.ContactEmail,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
		LicenseKey:   licenseKey,
		LicenseType:  licenseType,
		IsActive:     true,
		ExpiresAt:    expiresAt,
		MaxUsers:     req.MaxUsers,
		MaxResources: req.MaxResources,
		Notes:        req.Notes,
	}
	if licenseType != models.LicenseTypeInactive {
		org.ActivatedAt = &now
	}

	if err := s.orgRepo.Create(ctx, org); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"organization_id": org.ID,
		"slug":            org.Slug,
		"license_type":    org.LicenseType,
	}).Info("Organization created")

	return org, nil
}

// Update applies a partial update to the organization identified by slug.
// License cache entries are invalidated and an update event is published.
func (s *OrganizationService) Update(ctx context.Context, slug string, req *UpdateOrganizationRequest) (*models.Organization, error) {
	updates := map[string]interface{}{}

	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.ContactEmail != nil {
		updates["contact_email"] = *req.ContactEmail
	}
	if req.ContactName != nil {
		updates["contact_name"] = *req.ContactName
	}
	if req.ContactPhone != nil {
		updates["contact_phone"] = *req.ContactPhone
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.IsSuspended != nil {
		updates["is_suspended"] = *req.IsSuspended
	}
	if req.SuspendReason != nil {
		updates["suspend_reason"] = *req.SuspendReason
	}
	if req.MaxUsers != nil {
		updates["max_users"] = *req.MaxUsers
	}
	if req.MaxResources != nil {
		updates["max_resources"] = *req.MaxResources
	}
	if req.GraceEndsAt != nil {
		updates["grace_ends_at"] = *req.GraceEndsAt
	}
	if req.ExpiresAt != nil {
		updates["expires_at"] = *req.ExpiresAt
	}

	if req.LicenseType != nil {
		if !models.IsValidLicenseType(*req.LicenseType) {
			return nil, NewValidationError("license_type", fmt.Sprintf("unknown license type: %s", *req.LicenseType))
		}
		updates["license_type"] = *req.LicenseType
		if *req.LicenseType != models.LicenseTypeInactive {
			updates["activated_at"] = time.Now()
		}
	}

	if len(updates) == 0 {
		return nil, NewValidationError("body", "nothing to update")
	}

	org, err := s.orgRepo.Update(ctx, slug, updates)
	if err != nil {
		if err == repository.ErrOrganizationNotFound {
			return nil, NewNotFoundError("organization")
		}
		return nil, err
	}

	s.invalidateCache(ctx, org.LicenseKey)

	if s.events != nil {
		event := &nats.OrganizationUpdatedEvent{
			OrganizationID: org.ID.String(),
			Slug:           org.Slug,
			LicenseType:    org.LicenseType,
			IsActive:       org.IsActive,
			IsSuspended:    org.IsSuspended,
			Timestamp:      time.Now(),
		}
		if err := s.events.PublishOrganizationUpdated(ctx, event); err != nil {
			s.logger.WithError(err).Warn("Failed to publish organization update event")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"organization_id": org.ID,
		"slug":            org.Slug,
	}).Info("Organization updated")

	return org, nil
}

// Validate checks a license key against an organization slug and records the
// attempt. Verdicts are cached briefly; writes to the audit log and event bus
// are best effort.
func (s *OrganizationService) Validate(ctx context.Context, req *ValidateRequest) (*ValidationResult, error) {
	cacheKey := redis.ValidationKeyPrefix + req.LicenseKey + ":" + req.OrgSlug
	if s.cache != nil {
		var cached ValidationResult
		if err := s.cache.GetJSON(ctx, cacheKey, &cached); err == nil {
			s.recordValidationMetric(&cached)
			return &cached, nil
		}
	}

	now := time.Now()
	org, err := s.orgRepo.GetByLicenseKeyWithActiveModules(ctx, req.LicenseKey)
	if err != nil && err != repository.ErrOrganizationNotFound {
		return nil, err
	}

	result := &ValidationResult{Valid: true}
	switch {
	case org == nil || org.Slug != req.OrgSlug:
		result.Valid = false
		result.Reason = ValidationReasonMismatch
	case !org.IsActive || org.IsSuspended || org.LicenseType == models.LicenseTypeInactive:
		result.Valid = false
		result.Reason = ValidationReasonInactive
	case org.ExpiresAt.Before(now) && (org.GraceEndsAt == nil || org.GraceEndsAt.Before(now)):
		result.Valid = false
		result.Reason = ValidationReasonExpired
	}

	// The plan is reported whenever the key resolves, slug mismatch included
	if org != nil {
		result.LicenseType = org.LicenseType
	}

	if org != nil && org.Slug == req.OrgSlug {
		result.ExpiresAt = &org.ExpiresAt
		if result.Valid {
			for _, om := range org.Modules {
				if om.Module != nil {
					result.Modules = append(result.Modules, om.Module.Key)
				}
			}
		}

		meta, _ := json.Marshal(map[string]interface{}{
			"org_slug": req.OrgSlug,
			"valid":    result.Valid,
			"reason":   result.Reason,
		})
		validation := &models.LicenseValidation{
			OrganizationID: org.ID,
			Valid:          result.Valid,
			Reason:         result.Reason,
			Meta:           datatypes.JSON(meta),
		}
		if err := s.orgRepo.CreateValidation(ctx, validation); err != nil {
			s.logger.WithError(err).Warn("Failed to record license validation")
		}

		if s.events != nil {
			event := &nats.LicenseValidatedEvent{
				OrganizationID: org.ID.String(),
				OrgSlug:        req.OrgSlug,
				Valid:          result.Valid,
				Reason:         result.Reason,
				Timestamp:      now,
			}
			if err := s.events.PublishLicenseValidated(ctx, event); err != nil {
				s.logger.WithError(err).Warn("Failed to publish license validation event")
			}
		}
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cacheKey, result, redis.ValidationCacheTTL); err != nil {
			s.logger.WithError(err).Warn("Failed to cache validation result")
		}
	}

	s.recordValidationMetric(result)
	return result, nil
}

// Pricing returns the monthly price breakdown for the organization that owns
// the given license key.
func (s *OrganizationService) Pricing(ctx context.Context, licenseKey string) (*PricingResult, error) {
	cacheKey := redis.PricingKeyPrefix + licenseKey
	if s.cache != nil {
		var cached PricingResult
		if err := s.cache.GetJSON(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	org, err := s.orgRepo.GetByLicenseKeyWithActiveModules(ctx, licenseKey)
	if err != nil {
		if err == repository.ErrOrganizationNotFound {
			return nil, NewNotFoundError("organization")
		}
		return nil, err
	}

	override, err := s.settingsRepo.GetLicenseTypePrice(ctx, org.LicenseType)
	if err != nil {
		return nil, err
	}

	activeModules := make([]models.Module, 0, len(org.Modules))
	for _, om := range org.Modules {
		if om.Module != nil {
			activeModules = append(activeModules, *om.Module)
		}
	}

	breakdown := BuildPricingBreakdown(org.LicenseType, override, activeModules)

	result := &PricingResult{
		OrganizationID:   org.ID.String(),
		Name:             org.Name,
		Slug:             org.Slug,
		PricingBreakdown: *breakdown,
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cacheKey, result, redis.PricingCacheTTL); err != nil {
			s.logger.WithError(err).Warn("Failed to cache pricing result")
		}
	}

	return result, nil
}

// PruneValidations deletes validation audit records older than the retention
// window. Used by the background prune job.
func (s *OrganizationService) PruneValidations(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	return s.orgRepo.PruneValidations(ctx, cutoff)
}

func (s *OrganizationService) invalidateCache(ctx context.Context, licenseKey string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateLicense(ctx, licenseKey); err != nil {
		s.logger.WithError(err).Warn("Failed to invalidate license cache")
	}
}

func (s *OrganizationService) recordValidationMetric(result *ValidationResult) {
	if s.metrics == nil {
		return
	}
	label := "valid"
	if !result.Valid {
		label = result.Reason
	}
	s.metrics.LicenseValidationsTotal.WithLabelValues(label).Inc()
}
