package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Invoice statuses. Transitions are validated in the invoice service:
// draft -> sent/cancelled, sent -> paid/overdue/cancelled,
// overdue -> paid/cancelled, paid -> refunded. Cancelled and refunded
// are terminal; only cancelled invoices may be deleted.
const (
	InvoiceStatusDraft     = "draft"
	InvoiceStatusSent      = "sent"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusOverdue   = "overdue"
	InvoiceStatusCancelled = "cancelled"
	InvoiceStatusRefunded  = "refunded"
)

// InvoiceStatuses lists the canonical status set.
var InvoiceStatuses = []string{
	InvoiceStatusDraft,
	InvoiceStatusSent,
	InvoiceStatusPaid,
	InvoiceStatusOverdue,
	InvoiceStatusCancelled,
	InvoiceStatusRefunded,
}

// IsValidInvoiceStatus reports whether s is a known invoice status.
func IsValidInvoiceStatus(s string) bool {
	for _, status := range InvoiceStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// InvoiceModuleLine is one entry of the denormalized module snapshot stored
// on an invoice. Prices are snapshotted at creation time so later module
// price changes never alter historical invoices.
type InvoiceModuleLine struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Price int    `json:"price"`
}

// Invoice is a billing document for one organization and one period.
// Amounts are whole NOK for the full period (monthly price x period months).
type Invoice struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	InvoiceNumber  string    `json:"invoice_number" gorm:"unique;not null;size:20;index"`
	OrganizationID uuid.UUID `json:"organization_id" gorm:"type:uuid;not null;index"`

	PeriodMonth  int `json:"period_month" gorm:"not null" validate:"min=1,max=12"`
	PeriodYear   int `json:"period_year" gorm:"not null;index"`
	PeriodMonths int `json:"period_months" gorm:"not null;default:1" validate:"oneof=1 3 6 12"`

	BasePrice   int `json:"base_price" gorm:"not null"`
	ModulePrice int `json:"module_price" gorm:"not null"`
	VATAmount   int `json:"vat_amount" gorm:"not null;default:0"`
	Amount      int `json:"amount" gorm:"not null"`

	Status string `json:"status" gorm:"size:20;default:'draft';index" validate:"oneof=draft sent paid overdue cancelled refunded"`

	InvoiceDate time.Time  `json:"invoice_date"`
	DueDate     time.Time  `json:"due_date"`
	PaidDate    *time.Time `json:"paid_date"`

	// Snapshot of the organization's billing configuration at creation time
	LicenseType     string         `json:"license_type" gorm:"size:20"`
	LicenseTypeName string         `json:"license_type_name" gorm:"size:50"`
	Modules         datatypes.JSON `json:"modules" gorm:"type:jsonb"`

	Notes string `json:"notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Organization *Organization `json:"organization,omitempty" gorm:"foreignKey:OrganizationID"`
}

// InvoiceSequence holds the per-year invoice number counter. The counter is
// incremented atomically inside the invoice creation transaction so two
// concurrent creations for the same year cannot produce duplicate numbers.
type InvoiceSequence struct {
	Year      int       `json:"year" gorm:"primary_key;autoIncrement:false"`
	LastSeq   int       `json:"last_seq" gorm:"not null;default:0"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CompanySettings is the singleton record for the issuing company. It is
// created lazily with defaults the first time it is read.
type CompanySettings struct {
	ID uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`

	CompanyName string `json:"company_name" gorm:"not null;size:255"`
	OrgNumber   string `json:"org_number" gorm:"size:50"`
	VATNumber   string `json:"vat_number" gorm:"size:50"`
	Email       string `json:"email" gorm:"size:255"`
	Phone       string `json:"phone" gorm:"size:50"`
	Website     string `json:"website" gorm:"size:255"`

	Address    string `json:"address" gorm:"size:255"`
	PostalCode string `json:"postal_code" gorm:"size:20"`
	City       string `json:"city" gorm:"size:100"`
	Country    string `json:"country" gorm:"size:100;default:'Norge'"`

	BankAccount string `json:"bank_account" gorm:"size:50"`
	BankName    string `json:"bank_name" gorm:"size:100"`
	IBAN        string `json:"iban" gorm:"size:50"`
	SWIFT       string `json:"swift" gorm:"size:20"`
	LogoURL     string `json:"logo_url" gorm:"size:255"`

	InvoicePrefix  string `json:"invoice_prefix" gorm:"size:10;default:'INV'"`
	DefaultDueDays int    `json:"default_due_days" gorm:"default:14"`
	VATRate        int    `json:"vat_rate" gorm:"default:0"`
	InvoiceNote    string `json:"invoice_note"`
	PaymentTerms   string `json:"payment_terms"`

	// Invoice email templates with {customerName}, {invoiceNumber}, {amount},
	// {dueDate} and {period} placeholder tokens. Empty = built-in default.
	EmailSubject  string `json:"email_subject"`
	EmailGreeting string `json:"email_greeting"`
	EmailBody     string `json:"email_body"`
	EmailFooter   string `json:"email_footer"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
