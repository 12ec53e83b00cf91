package services

import (
	"license-service/internal/models"
)

// PricingLine is a single priced entry in a pricing breakdown.
type PricingLine struct {
	Key        string `json:"key"`
	Name       string `json:"name"`
	Price      int    `json:"price"`
	IsStandard bool   `json:"is_standard"`
}

// PricingBreakdown is the full monthly price picture for an organization.
type PricingBreakdown struct {
	LicenseType     string        `json:"license_type"`
	LicenseTypeName string        `json:"license_type_name"`
	BasePrice       int           `json:"base_price"`
	Modules         []PricingLine `json:"modules"`
	ModulePrice     int           `json:"module_price"`
	TotalMonthly    int           `json:"total_monthly"`
}

// BasePriceFor resolves the monthly base price for a license type. A price
// override from the license_type_prices table wins over the built-in default.
func BasePriceFor(licenseType string, override *int) int {
	if override != nil {
		return *override
	}
	if info, ok := models.LicenseTypes[licenseType]; ok {
		return info.Price
	}
	return 0
}

// ModulePriceFor resolves the monthly price of a single module for a given
// license type. Pilot licenses get every module for free.
func ModulePriceFor(licenseType string, module *models.Module) int {
	if licenseType == models.LicenseTypePilot {
		return 0
	}
	if module == nil || module.Price == nil {
		return 0
	}
	return *module.Price
}

// MonthlyTotal sums the base price and the active module prices.
func MonthlyTotal(basePrice int, licenseType string, activeModules []models.Module) (moduleTotal, total int) {
	for i := range activeModules {
		moduleTotal += ModulePriceFor(licenseType, &activeModules[i])
	}
	return moduleTotal, basePrice + moduleTotal
}

// BuildPricingBreakdown assembles the per-line pricing view shown in the
// admin console. Inactive license types price to zero across the board, and
// an unknown license type degrades to a zero base rather than an error so
// stale client data still renders.
func BuildPricingBreakdown(licenseType string, override *int, activeModules []models.Module) *PricingBreakdown {
	typeName := licenseType
	if info, ok := models.LicenseTypes[licenseType]; ok {
		typeName = info.Name
	}

	base := BasePriceFor(licenseType, override)
	lines := make([]PricingLine, 0, len(activeModules)+1)

	// Booking is core functionality, always included except on inactive licenses
	if licenseType != models.LicenseTypeInactive {
		lines = append(lines, PricingLine{Key: "booking", Name: "Booking", IsStandard: true})
	}

	moduleTotal := 0
	for i := range activeModules {
		m := &activeModules[i]
		price := ModulePriceFor(licenseType, m)
		moduleTotal += price
		lines = append(lines, PricingLine{
			Key:        m.Key,
			Name:       m.Name,
			Price:      price,
			IsStandard: m.IsStandard,
		})
	}

	return &PricingBreakdown{
		LicenseType:     licenseType,
		LicenseTypeName: typeName,
		BasePrice:       base,
		Modules:         lines,
		ModulePrice:     moduleTotal,
		TotalMonthly:    base + moduleTotal,
	}
}
