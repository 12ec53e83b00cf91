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

// ErrDuplicatePeriod is returned when a non-cancelled invoice already exists
// for the same organization and billing period.
var ErrDuplicatePeriod = errors.New("invoice already exists for this period")

// InvoiceRepository handles invoice persistence and numbering
type InvoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// InvoiceFilter narrows List results. Zero values mean "no filter".
type InvoiceFilter struct {
	OrganizationID *uuid.UUID
	Status         string
	Year           int
	Month          int
}

// nextInvoiceNumber reserves the next sequence number for the year inside tx.
// The counter row is upsert-incremented atomically, so concurrent creations
// for the same year can never observe the same sequence value.
func (r *InvoiceRepository) nextInvoiceNumber(tx *gorm.DB, year int, prefix string) (string, error) {
	if prefix == "" {
		prefix = "INV"
	}
	var seq int
	err := tx.Raw(`
		INSERT INTO invoice_sequences (year, last_seq, updated_at)
		VALUES (?, 1, NOW())
		ON CONFLICT (year)
		DO UPDATE SET last_seq = invoice_sequences.last_seq + 1, updated_at = NOW()
		RETURNING last_seq`, year).Scan(&seq).Error
	if err != nil {
		return "", fmt.Errorf("failed to reserve invoice sequence for %d: %w", year, err)
	}
	return fmt.Sprintf("%s-%d-%03d", prefix, year, seq), nil
}

// CreateWithNumber creates the invoice inside one transaction: the duplicate
// period guard and the sequence reservation both happen under the same
// transaction so concurrent requests cannot double-bill a period or reuse a
// number.
func (r *InvoiceRepository) CreateWithNumber(ctx context.Context, invoice *models.Invoice, prefix string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&models.Invoice{}).
			Where("organization_id = ? AND period_month = ? AND period_year = ? AND status <> ?",
				invoice.OrganizationID, invoice.PeriodMonth, invoice.PeriodYear, models.InvoiceStatusCancelled).
			Count(&count).Error
		if err != nil {
			return fmt.Errorf("failed to check for existing invoice: %w", err)
		}
		if count > 0 {
			return ErrDuplicatePeriod
		}

		number, err := r.nextInvoiceNumber(tx, invoice.PeriodYear, prefix)
		if err != nil {
			return err
		}
		invoice.InvoiceNumber = number

		if invoice.ID == uuid.Nil {
			invoice.ID = uuid.New()
		}
		if err := tx.Create(invoice).Error; err != nil {
			return fmt.Errorf("failed to create invoice: %w", err)
		}
		return nil
	})
}

// GetByID retrieves an invoice with its organization preloaded
func (r *InvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Preload("Organization").
		First(&invoice, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return &invoice, nil
}

// List retrieves invoices matching the filter, newest period first
func (r *InvoiceRepository) List(ctx context.Context, filter InvoiceFilter) ([]models.Invoice, error) {
	query := r.db.WithContext(ctx).Preload("Organization")

	if filter.OrganizationID != nil {
		query = query.Where("organization_id = ?", *filter.OrganizationID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Year != 0 {
		query = query.Where("period_year = ?", filter.Year)
	}
	if filter.Month != 0 {
		query = query.Where("period_month = ?", filter.Month)
	}

	var invoices []models.Invoice
	err := query.
		Order("period_year DESC").
		Order("period_month DESC").
		Order("invoice_date DESC").
		Find(&invoices).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	return invoices, nil
}

// UpdateStatus sets the status and optionally the paid date
func (r *InvoiceRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, paidDate *time.Time) error {
	updates := map[string]interface{}{"status": status}
	if paidDate != nil {
		updates["paid_date"] = *paidDate
	}
	result := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update invoice status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

// Delete removes an invoice
func (r *InvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Invoice{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete invoice: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

// MarkOverdue transitions sent invoices whose due date has passed to overdue
// and returns the number of affected rows. Used by the background sweep.
func (r *InvoiceRepository) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("status = ? AND due_date < ?", models.InvoiceStatusSent, now).
		Update("status", models.InvoiceStatusOverdue)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark overdue invoices: %w", result.Error)
	}
	return result.RowsAffected, nil
}
