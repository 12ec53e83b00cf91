package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// License types for organizations. "standard" is the only paid tier;
// pilot customers get all modules free.
const (
	LicenseTypeInactive = "inactive"
	LicenseTypePilot    = "pilot"
	LicenseTypeFree     = "free"
	LicenseTypeStandard = "standard"
)

// LicenseTypeInfo describes a license type's display name and default monthly price.
type LicenseTypeInfo struct {
	Name  string
	Price int
}

// LicenseTypes maps license type keys to their defaults. The price can be
// overridden per type via LicenseTypePrice rows.
var LicenseTypes = map[string]LicenseTypeInfo{
	LicenseTypeInactive: {Name: "Inaktiv", Price: 0},
	LicenseTypePilot:    {Name: "Pilot", Price: 0},
	LicenseTypeFree:     {Name: "Gratis", Price: 0},
	LicenseTypeStandard: {Name: "Standard", Price: 1000},
}

// IsValidLicenseType reports whether t is a known license type.
func IsValidLicenseType(t string) bool {
	_, ok := LicenseTypes[t]
	return ok
}

// Organization is a tenant of the booking platform: one customer with a
// license key, a license type, and a set of module entitlements.
type Organization struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Name         string    `json:"name" gorm:"not null" validate:"required,min=2,max=255"`
	Slug         string    `json:"slug" gorm:"unique;not null;size:50" validate:"required,min=2,max=50"`
	ContactEmail string    `json:"contact_email" gorm:"size:255"`
	ContactName  string    `json:"contact_name" gorm:"size:255"`
	ContactPhone string    `json:"contact_phone" gorm:"size:50"`

	// License state
	LicenseKey    string     `json:"license_key" gorm:"unique;not null;size:64;index"`
	LicenseType   string     `json:"license_type" gorm:"size:20;default:'inactive';index" validate:"oneof=inactive pilot free standard"`
	IsActive      bool       `json:"is_active" gorm:"default:true"`
	IsSuspended   bool       `json:"is_suspended" gorm:"default:false"`
	SuspendReason string     `json:"suspend_reason"`
	ActivatedAt   *time.Time `json:"activated_at"`
	ExpiresAt     time.Time  `json:"expires_at" gorm:"not null"`
	GraceEndsAt   *time.Time `json:"grace_ends_at"`

	// Plan limits (nil = unlimited)
	MaxUsers     *int `json:"max_users"`
	MaxResources *int `json:"max_resources"`

	Notes string `json:"notes"`

	// Heartbeat summary reported by the monitored booking app
	LastHeartbeat *time.Time `json:"last_heartbeat"`
	AppVersion    string     `json:"app_version" gorm:"size:50"`
	TotalUsers    int        `json:"total_users" gorm:"default:0"`
	TotalBookings int        `json:"total_bookings" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Modules     []OrganizationModule `json:"modules,omitempty" gorm:"foreignKey:OrganizationID"`
	Stats       *OrganizationStats   `json:"stats,omitempty" gorm:"foreignKey:OrganizationID"`
	Validations []LicenseValidation  `json:"-" gorm:"foreignKey:OrganizationID"`
}

// Module is an add-on capability of the booking platform. Standard modules
// are always included and cannot be deactivated. A nil price means free.
type Module struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Key         string    `json:"key" gorm:"unique;not null;size:50"`
	Name        string    `json:"name" gorm:"not null;size:100"`
	Description string    `json:"description"`
	IsStandard  bool      `json:"is_standard" gorm:"default:false"`
	Price       *int      `json:"price"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// OrganizationModule records whether a module is enabled for an organization.
type OrganizationModule struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	OrganizationID uuid.UUID  `json:"organization_id" gorm:"type:uuid;not null;uniqueIndex:idx_org_module"`
	ModuleID       uuid.UUID  `json:"module_id" gorm:"type:uuid;not null;uniqueIndex:idx_org_module"`
	IsActive       bool       `json:"is_active" gorm:"default:false"`
	ActivatedAt    *time.Time `json:"activated_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	Module *Module `json:"module,omitempty" gorm:"foreignKey:ModuleID"`
}

// LicenseTypePrice is an admin-set override of a license type's default price.
type LicenseTypePrice struct {
	LicenseType string    `json:"license_type" gorm:"primary_key;size:20"`
	Price       int       `json:"price" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LicenseValidation is an audit record of a license validation attempt.
type LicenseValidation struct {
	ID             uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	OrganizationID uuid.UUID      `json:"organization_id" gorm:"type:uuid;not null;index"`
	Valid          bool           `json:"valid"`
	Reason         string         `json:"reason" gorm:"size:20"`
	Meta           datatypes.JSON `json:"meta" gorm:"type:jsonb"`
	CreatedAt      time.Time      `json:"created_at" gorm:"index"`
}

// OrganizationStats is the usage snapshot pushed by the booking app's
// heartbeat reports. One row per organization, upserted on every report.
type OrganizationStats struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	OrganizationID uuid.UUID `json:"organization_id" gorm:"type:uuid;unique;not null"`

	TotalUsers    int        `json:"total_users" gorm:"default:0"`
	ActiveUsers   int        `json:"active_users" gorm:"default:0"`
	LastUserLogin *time.Time `json:"last_user_login"`

	TotalFacilities   int `json:"total_facilities" gorm:"default:0"`
	TotalCategories   int `json:"total_categories" gorm:"default:0"`
	TotalBookings     int `json:"total_bookings" gorm:"default:0"`
	BookingsThisMonth int `json:"bookings_this_month" gorm:"default:0"`
	PendingBookings   int `json:"pending_bookings" gorm:"default:0"`
	TotalRoles        int `json:"total_roles" gorm:"default:0"`

	LastUpdated time.Time `json:"last_updated"`
	CreatedAt   time.Time `json:"created_at"`
}
