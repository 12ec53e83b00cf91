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

// StatsRepository handles the per-organization usage snapshots
type StatsRepository struct {
	db *gorm.DB
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Upsert writes the usage snapshot for an organization, replacing any
// previous snapshot.
func (r *StatsRepository) Upsert(ctx context.Context, stats *models.OrganizationStats) error {
	if stats.ID == uuid.Nil {
		stats.ID = uuid.New()
	}
	stats.LastUpdated = time.Now()

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "organization_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"total_users", "active_users", "last_user_login",
				"total_facilities", "total_categories", "total_bookings",
				"bookings_this_month", "pending_bookings", "total_roles",
				"last_updated",
			}),
		}).
		Create(stats).Error
	if err != nil {
		return fmt.Errorf("failed to upsert organization stats: %w", err)
	}
	return nil
}

// GetByOrganizationID retrieves the snapshot for one organization
func (r *StatsRepository) GetByOrganizationID(ctx context.Context, orgID uuid.UUID) (*models.OrganizationStats, error) {
	var stats models.OrganizationStats
	err := r.db.WithContext(ctx).First(&stats, "organization_id = ?", orgID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get organization stats: %w", err)
	}
	return &stats, nil
}

// ListAll retrieves every snapshot, most recently updated first
func (r *StatsRepository) ListAll(ctx context.Context) ([]models.OrganizationStats, error) {
	var stats []models.OrganizationStats
	err := r.db.WithContext(ctx).
		Order("last_updated DESC").
		Find(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list organization stats: %w", err)
	}
	return stats, nil
}
