package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"license-service/internal/models"
	"license-service/internal/repository"
)

// SettingsService manages the company settings singleton and license type
// price overrides.
type SettingsService struct {
	settingsRepo *repository.SettingsRepository
	logger       *logrus.Logger
}

// NewSettingsService creates a new settings service
func NewSettingsService(settingsRepo *repository.SettingsRepository, logger *logrus.Logger) *SettingsService {
	return &SettingsService{settingsRepo: settingsRepo, logger: logger}
}

// UpdateSettingsRequest is a partial update of the company settings.
type UpdateSettingsRequest struct {
	CompanyName *string `json:"company_name"`
	OrgNumber   *string `json:"org_number"`
	VATNumber   *string `json:"vat_number"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	Website     *string `json:"website"`

	Address    *string `json:"address"`
	PostalCode *string `json:"postal_code"`
	City       *string `json:"city"`
	Country    *string `json:"country"`

	BankAccount *string `json:"bank_account"`
	BankName    *string `json:"bank_name"`
	IBAN        *string `json:"iban"`
	SWIFT       *string `json:"swift"`
	LogoURL     *string `json:"logo_url"`

	InvoicePrefix  *string `json:"invoice_prefix"`
	DefaultDueDays *int    `json:"default_due_days"`
	VATRate        *int    `json:"vat_rate"`
	InvoiceNote    *string `json:"invoice_note"`
	PaymentTerms   *string `json:"payment_terms"`

	EmailSubject  *string `json:"email_subject"`
	EmailGreeting *string `json:"email_greeting"`
	EmailBody     *string `json:"email_body"`
	EmailFooter   *string `json:"email_footer"`
}

// Get returns the company settings, creating them with defaults on first read.
func (s *SettingsService) Get(ctx context.Context) (*models.CompanySettings, error) {
	return s.settingsRepo.GetOrCreate(ctx)
}

// Update merges the provided fields into the company settings.
func (s *SettingsService) Update(ctx context.Context, req *UpdateSettingsRequest) (*models.CompanySettings, error) {
	settings, err := s.settingsRepo.GetOrCreate(ctx)
	if err != nil {
		return nil, err
	}

	if req.CompanyName != nil {
		if *req.CompanyName == "" {
			return nil, NewValidationError("company_name", "company_name cannot be empty")
		}
		settings.CompanyName = *req.CompanyName
	}
	if req.OrgNumber != nil {
		settings.OrgNumber = *req.OrgNumber
	}
	if req.VATNumber != nil {
		settings.VATNumber = *req.VATNumber
	}
	if req.Email != nil {
		settings.Email = *req.Email
	}
	if req.Phone != nil {
		settings.Phone = *req.Phone
	}
	if req.Website != nil {
		settings.Website = *req.Website
	}
	if req.Address != nil {
		settings.Address = *req.Address
	}
	if req.PostalCode != nil {
		settings.PostalCode = *req.PostalCode
	}
	if req.City != nil {
		settings.City = *req.City
	}
	if req.Country != nil {
		settings.Country = *req.Country
	}
	if req.BankAccount != nil {
		settings.BankAccount = *req.BankAccount
	}
	if req.BankName != nil {
		settings.BankName = *req.BankName
	}
	if req.IBAN != nil {
		settings.IBAN = *req.IBAN
	}
	if req.SWIFT != nil {
		settings.SWIFT = *req.SWIFT
	}
	if req.LogoURL != nil {
		settings.LogoURL = *req.LogoURL
	}
	if req.InvoicePrefix != nil {
		if *req.InvoicePrefix == "" {
			return nil, NewValidationError("invoice_prefix", "invoice_prefix cannot be empty")
		}
		settings.InvoicePrefix = *req.InvoicePrefix
	}
	if req.DefaultDueDays != nil {
		if *req.DefaultDueDays < 1 {
			return nil, NewValidationError("default_due_days", "default_due_days must be at least 1")
		}
		settings.DefaultDueDays = *req.DefaultDueDays
	}
	if req.VATRate != nil {
		if *req.VATRate < 0 || *req.VATRate > 100 {
			return nil, NewValidationError("vat_rate", "vat_rate must be between 0 and 100")
		}
		settings.VATRate = *req.VATRate
	}
	if req.InvoiceNote != nil {
		settings.InvoiceNote = *req.InvoiceNote
	}
	if req.PaymentTerms != nil {
		settings.PaymentTerms = *req.PaymentTerms
	}
	if req.EmailSubject != nil {
		settings.EmailSubject = *req.EmailSubject
	}
	if req.EmailGreeting != nil {
		settings.EmailGreeting = *req.EmailGreeting
	}
	if req.EmailBody != nil {
		settings.EmailBody = *req.EmailBody
	}
	if req.EmailFooter != nil {
		settings.EmailFooter = *req.EmailFooter
	}

	if err := s.settingsRepo.Save(ctx, settings); err != nil {
		return nil, err
	}

	s.logger.Info("Company settings updated")
	return settings, nil
}

// LicenseTypePricing is the effective price list for all license types.
type LicenseTypePricing struct {
	LicenseType string `json:"license_type"`
	Name        string `json:"name"`
	Default     int    `json:"default_price"`
	Price       int    `json:"price"`
	Overridden  bool   `json:"overridden"`
}

// ListLicenseTypePrices returns the effective monthly price for every license
// type, marking admin overrides.
func (s *SettingsService) ListLicenseTypePrices(ctx context.Context) ([]LicenseTypePricing, error) {
	overrides, err := s.settingsRepo.ListLicenseTypePrices(ctx)
	if err != nil {
		return nil, err
	}

	// Stable order for the admin console
	order := []string{
		models.LicenseTypeInactive,
		models.LicenseTypePilot,
		models.LicenseTypeFree,
		models.LicenseTypeStandard,
	}

	prices := make([]LicenseTypePricing, 0, len(order))
	for _, lt := range order {
		info := models.LicenseTypes[lt]
		entry := LicenseTypePricing{
			LicenseType: lt,
			Name:        info.Name,
			Default:     info.Price,
			Price:       info.Price,
		}
		if override, ok := overrides[lt]; ok {
			entry.Price = override
			entry.Overridden = true
		}
		prices = append(prices, entry)
	}
	return prices, nil
}

// SetLicenseTypePrice sets the monthly price override for a license type.
func (s *SettingsService) SetLicenseTypePrice(ctx context.Context, licenseType string, price int) error {
	if !models.IsValidLicenseType(licenseType) {
		return NewValidationError("license_type", fmt.Sprintf("unknown license type: %s", licenseType))
	}
	if price < 0 {
		return NewValidationError("price", "price cannot be negative")
	}
	if err := s.settingsRepo.UpsertLicenseTypePrice(ctx, licenseType, price); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"license_type": licenseType,
		"price":        price,
	}).Info("License type price updated")
	return nil
}
