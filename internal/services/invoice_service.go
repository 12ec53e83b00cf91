package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"license-service/internal/metrics"
	"license-service/internal/models"
	"license-service/internal/nats"
	"license-service/internal/repository"
)

// invoiceTransitions defines the allowed status transitions. Cancelled and
// refunded are terminal.
var invoiceTransitions = map[string][]string{
	models.InvoiceStatusDraft:   {models.InvoiceStatusSent, models.InvoiceStatusCancelled},
	models.InvoiceStatusSent:    {models.InvoiceStatusPaid, models.InvoiceStatusOverdue, models.InvoiceStatusCancelled},
	models.InvoiceStatusOverdue: {models.InvoiceStatusPaid, models.InvoiceStatusCancelled},
	models.InvoiceStatusPaid:    {models.InvoiceStatusRefunded},
}

// CanTransitionInvoice reports whether an invoice may move from one status to another.
func CanTransitionInvoice(from, to string) bool {
	for _, allowed := range invoiceTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// InvoiceEmailer sends a rendered invoice email. Implemented by EmailService.
type InvoiceEmailer interface {
	SendInvoice(ctx context.Context, invoice *models.Invoice, org *models.Organization, settings *models.CompanySettings, pdf []byte) *EmailResult
}

// InvoiceService implements invoice creation, lifecycle and dispatch.
type InvoiceService struct {
	invoiceRepo  *repository.InvoiceRepository
	orgRepo      *repository.OrganizationRepository
	settingsRepo *repository.SettingsRepository
	emailer      InvoiceEmailer
	events       *nats.Client
	metrics      *metrics.Metrics
	logger       *logrus.Logger
}

// NewInvoiceService creates a new invoice service. emailer, events and metrics
// may be nil.
func NewInvoiceService(
	invoiceRepo *repository.InvoiceRepository,
	orgRepo *repository.OrganizationRepository,
	settingsRepo *repository.SettingsRepository,
	emailer InvoiceEmailer,
	events *nats.Client,
	m *metrics.Metrics,
	logger *logrus.Logger,
) *InvoiceService {
	return &InvoiceService{
		invoiceRepo:  invoiceRepo,
		orgRepo:      orgRepo,
		settingsRepo: settingsRepo,
		emailer:      emailer,
		events:       events,
		metrics:      m,
		logger:       logger,
	}
}

// CreateInvoiceRequest is the payload for creating an invoice.
type CreateInvoiceRequest struct {
	OrganizationID uuid.UUID  `json:"organization_id" binding:"required"`
	PeriodMonth    int        `json:"period_month" binding:"required"`
	PeriodYear     int        `json:"period_year" binding:"required"`
	PeriodMonths   int        `json:"period_months"`
	DueDate        *time.Time `json:"due_date"`
	Notes          string     `json:"notes"`
}

// UpdateInvoiceStatusRequest changes an invoice's status.
type UpdateInvoiceStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SendInvoiceResult reports the outcome of an invoice dispatch.
type SendInvoiceResult struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Invoice *models.Invoice `json:"invoice,omitempty"`
}

// Create builds an invoice for one organization and billing period. Prices
// are snapshotted from the organization's current license type and active
// modules so later price changes never alter the invoice.
func (s *InvoiceService) Create(ctx context.Context, req *CreateInvoiceRequest) (*models.Invoice, error) {
	if req.PeriodMonth < 1 || req.PeriodMonth > 12 {
		return nil, NewValidationError("period_month", "period_month must be between 1 and 12")
	}
	if req.PeriodMonths == 0 {
		req.PeriodMonths = 1
	}
	if !IsValidPeriodMonths(req.PeriodMonths) {
		return nil, NewValidationError("period_months", "period_months must be 1, 3, 6 or 12")
	}

	org, err := s.orgRepo.GetWithActiveModules(ctx, req.OrganizationID)
	if err != nil {
		if err == repository.ErrOrganizationNotFound {
			return nil, NewNotFoundError("organization")
		}
		return nil, err
	}

	settings, err := s.settingsRepo.GetOrCreate(ctx)
	if err != nil {
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

	monthlyBase := BasePriceFor(org.LicenseType, override)
	monthlyModules, monthlyTotal := MonthlyTotal(monthlyBase, org.LicenseType, activeModules)

	basePrice := monthlyBase * req.PeriodMonths
	modulePrice := monthlyModules * req.PeriodMonths
	subtotal := monthlyTotal * req.PeriodMonths
	vatAmount := subtotal * settings.VATRate / 100

	// Snapshot module lines with period-scaled, pilot-zeroed prices
	lines := make([]models.InvoiceModuleLine, 0, len(activeModules))
	for i := range activeModules {
		m := &activeModules[i]
		lines = append(lines, models.InvoiceModuleLine{
			Key:   m.Key,
			Name:  m.Name,
			Price: ModulePriceFor(org.LicenseType, m) * req.PeriodMonths,
		})
	}
	modulesJSON, err := json.Marshal(lines)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal module snapshot: %w", err)
	}

	licenseTypeName := org.LicenseType
	if info, ok := models.LicenseTypes[org.LicenseType]; ok {
		licenseTypeName = info.Name
	}

	invoiceDate := time.Now()
	dueDate := invoiceDate.AddDate(0, 0, settings.DefaultDueDays)
	if req.DueDate != nil {
		dueDate = *req.DueDate
	}

	invoice := &models.Invoice{
		OrganizationID:  org.ID,
		PeriodMonth:     req.PeriodMonth,
		PeriodYear:      req.PeriodYear,
		PeriodMonths:    req.PeriodMonths,
		BasePrice:       basePrice,
		ModulePrice:     modulePrice,
		VATAmount:       vatAmount,
		Amount:          subtotal + vatAmount,
		Status:          models.InvoiceStatusDraft,
		InvoiceDate:     invoiceDate,
		DueDate:         dueDate,
		LicenseType:     org.LicenseType,
		LicenseTypeName: licenseTypeName,
		Modules:         datatypes.JSON(modulesJSON),
		Notes:           req.Notes,
	}

	if err := s.invoiceRepo.CreateWithNumber(ctx, invoice, settings.InvoicePrefix); err != nil {
		if err == repository.ErrDuplicatePeriod {
			return nil, NewValidationError("period", "invoice already exists for this period")
		}
		return nil, err
	}
	invoice.Organization = org

	if s.metrics != nil {
		s.metrics.InvoicesCreatedTotal.Inc()
	}
	s.publishInvoiceEvent(ctx, nats.EventInvoiceCreated, invoice, "")

	s.logger.WithFields(logrus.Fields{
		"invoice_number":  invoice.InvoiceNumber,
		"organization_id": org.ID,
		"amount":          invoice.Amount,
		"period":          FormatPeriod(invoice.PeriodMonth, invoice.PeriodYear, invoice.PeriodMonths),
	}).Info("Invoice created")

	return invoice, nil
}

// Get returns one invoice with its organization.
func (s *InvoiceService) Get(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrInvoiceNotFound {
			return nil, NewNotFoundError("invoice")
		}
		return nil, err
	}
	return invoice, nil
}

// List returns invoices matching the filter, newest period first.
func (s *InvoiceService) List(ctx context.Context, filter repository.InvoiceFilter) ([]models.Invoice, error) {
	if filter.Status != "" && !models.IsValidInvoiceStatus(filter.Status) {
		return nil, NewValidationError("status", fmt.Sprintf("unknown invoice status: %s", filter.Status))
	}
	return s.invoiceRepo.List(ctx, filter)
}

// UpdateStatus moves an invoice through its lifecycle. Paid invoices get a
// paid date; invalid transitions are rejected.
func (s *InvoiceService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Invoice, error) {
	if !models.IsValidInvoiceStatus(status) {
		return nil, NewValidationError("status", fmt.Sprintf("unknown invoice status: %s", status))
	}

	invoice, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !CanTransitionInvoice(invoice.Status, status) {
		return nil, NewValidationError("status",
			fmt.Sprintf("cannot change invoice status from %s to %s", invoice.Status, status))
	}

	var paidDate *time.Time
	if status == models.InvoiceStatusPaid {
		now := time.Now()
		paidDate = &now
	}

	if err := s.invoiceRepo.UpdateStatus(ctx, id, status, paidDate); err != nil {
		return nil, err
	}

	previous := invoice.Status
	invoice.Status = status
	invoice.PaidDate = paidDate

	s.publishInvoiceEvent(ctx, nats.EventInvoiceStatusChanged, invoice, previous)

	s.logger.WithFields(logrus.Fields{
		"invoice_number": invoice.InvoiceNumber,
		"from":           previous,
		"to":             status,
	}).Info("Invoice status updated")

	return invoice, nil
}

// Delete removes an invoice. Only cancelled invoices may be deleted; the
// invoice number stays consumed.
func (s *InvoiceService) Delete(ctx context.Context, id uuid.UUID) error {
	invoice, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if invoice.Status != models.InvoiceStatusCancelled {
		return NewValidationError("status", "only cancelled invoices can be deleted")
	}
	return s.invoiceRepo.Delete(ctx, id)
}

// Send emails the invoice to the organization's contact and moves a draft to
// sent on success. A non-empty pdf is attached to the email. Email failure is
// reported, not returned as an error, so the caller sees the provider's
// message.
func (s *InvoiceService) Send(ctx context.Context, id uuid.UUID, pdf []byte) (*SendInvoiceResult, error) {
	invoice, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice.Organization == nil {
		org, err := s.orgRepo.GetByID(ctx, invoice.OrganizationID)
		if err != nil {
			return nil, err
		}
		invoice.Organization = org
	}
	if invoice.Organization.ContactEmail == "" {
		return nil, NewValidationError("contact_email", "organization has no contact email")
	}
	if s.emailer == nil {
		return nil, fmt.Errorf("email is not configured")
	}

	settings, err := s.settingsRepo.GetOrCreate(ctx)
	if err != nil {
		return nil, err
	}

	result := s.emailer.SendInvoice(ctx, invoice, invoice.Organization, settings, pdf)
	if s.metrics != nil {
		label := "success"
		if !result.Success {
			label = "failure"
		}
		s.metrics.InvoiceEmailsSentTotal.WithLabelValues(label).Inc()
	}

	if !result.Success {
		s.logger.WithFields(logrus.Fields{
			"invoice_number": invoice.InvoiceNumber,
			"error":          result.Error,
		}).Warn("Invoice email failed")
		return &SendInvoiceResult{Success: false, Error: result.Error, Invoice: invoice}, nil
	}

	if invoice.Status == models.InvoiceStatusDraft {
		if err := s.invoiceRepo.UpdateStatus(ctx, id, models.InvoiceStatusSent, nil); err != nil {
			return nil, err
		}
		invoice.Status = models.InvoiceStatusSent
	}

	s.publishInvoiceEvent(ctx, nats.EventInvoiceSent, invoice, "")

	s.logger.WithFields(logrus.Fields{
		"invoice_number": invoice.InvoiceNumber,
		"recipient":      invoice.Organization.ContactEmail,
	}).Info("Invoice email sent")

	return &SendInvoiceResult{Success: true, Invoice: invoice}, nil
}

// MarkOverdue flips sent invoices past their due date to overdue. Used by the
// background sweep.
func (s *InvoiceService) MarkOverdue(ctx context.Context) (int64, error) {
	return s.invoiceRepo.MarkOverdue(ctx, time.Now())
}

func (s *InvoiceService) publishInvoiceEvent(ctx context.Context, subject string, invoice *models.Invoice, previousStatus string) {
	if s.events == nil {
		return
	}
	event := &nats.InvoiceEvent{
		InvoiceID:      invoice.ID.String(),
		InvoiceNumber:  invoice.InvoiceNumber,
		OrganizationID: invoice.OrganizationID.String(),
		Status:         invoice.Status,
		PreviousStatus: previousStatus,
		Amount:         invoice.Amount,
		Timestamp:      time.Now(),
	}
	if err := s.events.PublishInvoiceEvent(ctx, subject, event); err != nil {
		s.logger.WithError(err).WithField("subject", subject).Warn("Failed to publish invoice event")
	}
}
