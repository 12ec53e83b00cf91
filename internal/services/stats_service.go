package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"license-service/internal/metrics"
	"license-service/internal/models"
	"license-service/internal/repository"
)

// StatsService ingests usage reports from booking app instances and serves
// the collected numbers to the admin console.
type StatsService struct {
	statsRepo *repository.StatsRepository
	orgRepo   *repository.OrganizationRepository
	metrics   *metrics.Metrics
	logger    *logrus.Logger
}

// NewStatsService creates a new stats service
func NewStatsService(
	statsRepo *repository.StatsRepository,
	orgRepo *repository.OrganizationRepository,
	m *metrics.Metrics,
	logger *logrus.Logger,
) *StatsService {
	return &StatsService{statsRepo: statsRepo, orgRepo: orgRepo, metrics: m, logger: logger}
}

// StatsPayload is the usage snapshot reported by a booking app instance.
type StatsPayload struct {
	TotalUsers    int        `json:"total_users"`
	ActiveUsers   int        `json:"active_users"`
	LastUserLogin *time.Time `json:"last_user_login"`

	TotalFacilities   int `json:"total_facilities"`
	TotalCategories   int `json:"total_categories"`
	TotalBookings     int `json:"total_bookings"`
	BookingsThisMonth int `json:"bookings_this_month"`
	PendingBookings   int `json:"pending_bookings"`
	TotalRoles        int `json:"total_roles"`
}

// ReportStatsRequest identifies the reporting instance by its license key.
type ReportStatsRequest struct {
	LicenseKey string        `json:"license_key" binding:"required"`
	AppVersion string        `json:"app_version"`
	Stats      *StatsPayload `json:"stats" binding:"required"`
}

// Report upserts the organization's usage snapshot and bumps its heartbeat.
func (s *StatsService) Report(ctx context.Context, req *ReportStatsRequest) (*models.OrganizationStats, error) {
	org, err := s.orgRepo.GetByLicenseKey(ctx, req.LicenseKey)
	if err != nil {
		if err == repository.ErrOrganizationNotFound {
			return nil, NewNotFoundError("organization")
		}
		return nil, err
	}

	stats := &models.OrganizationStats{
		OrganizationID:    org.ID,
		TotalUsers:        req.Stats.TotalUsers,
		ActiveUsers:       req.Stats.ActiveUsers,
		LastUserLogin:     req.Stats.LastUserLogin,
		TotalFacilities:   req.Stats.TotalFacilities,
		TotalCategories:   req.Stats.TotalCategories,
		TotalBookings:     req.Stats.TotalBookings,
		BookingsThisMonth: req.Stats.BookingsThisMonth,
		PendingBookings:   req.Stats.PendingBookings,
		TotalRoles:        req.Stats.TotalRoles,
	}
	if err := s.statsRepo.Upsert(ctx, stats); err != nil {
		return nil, err
	}

	if err := s.orgRepo.UpdateHeartbeat(ctx, org.ID, req.Stats.TotalUsers, req.Stats.TotalBookings, req.AppVersion); err != nil {
		// The snapshot is already stored; a stale heartbeat is tolerable
		s.logger.WithError(err).Warn("Failed to update organization heartbeat")
	}

	if s.metrics != nil {
		s.metrics.StatsReportsTotal.Inc()
	}

	s.logger.WithFields(logrus.Fields{
		"organization_id": org.ID,
		"slug":            org.Slug,
		"total_users":     req.Stats.TotalUsers,
	}).Debug("Usage stats reported")

	return stats, nil
}

// GetForOrganization returns one organization's usage snapshot, or nil when
// no report has arrived yet.
func (s *StatsService) GetForOrganization(ctx context.Context, orgID uuid.UUID) (*models.OrganizationStats, error) {
	if _, err := s.orgRepo.GetByID(ctx, orgID); err != nil {
		if err == repository.ErrOrganizationNotFound {
			return nil, NewNotFoundError("organization")
		}
		return nil, err
	}
	return s.statsRepo.GetByOrganizationID(ctx, orgID)
}

// ListAll returns every organization's usage snapshot, newest first.
func (s *StatsService) ListAll(ctx context.Context) ([]models.OrganizationStats, error) {
	return s.statsRepo.ListAll(ctx)
}
