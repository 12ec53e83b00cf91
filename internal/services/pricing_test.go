package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"license-service/internal/models"
)

func intPtr(v int) *int { return &v }

func TestBasePriceFor(t *testing.T) {
	assert.Equal(t, 1000, BasePriceFor(models.LicenseTypeStandard, nil))
	assert.Equal(t, 0, BasePriceFor(models.LicenseTypePilot, nil))
	assert.Equal(t, 0, BasePriceFor(models.LicenseTypeFree, nil))
	assert.Equal(t, 0, BasePriceFor(models.LicenseTypeInactive, nil))

	// Admin override wins over the built-in default
	assert.Equal(t, 1500, BasePriceFor(models.LicenseTypeStandard, intPtr(1500)))
	assert.Equal(t, 0, BasePriceFor(models.LicenseTypeStandard, intPtr(0)))

	assert.Equal(t, 0, BasePriceFor("unknown", nil))
}

func TestModulePriceFor(t *testing.T) {
	paid := &models.Module{Key: "betaling", Price: intPtr(200)}
	free := &models.Module{Key: "rapporter"}

	assert.Equal(t, 200, ModulePriceFor(models.LicenseTypeStandard, paid))
	assert.Equal(t, 0, ModulePriceFor(models.LicenseTypeStandard, free))

	// Pilot customers get every module for free
	assert.Equal(t, 0, ModulePriceFor(models.LicenseTypePilot, paid))

	assert.Equal(t, 0, ModulePriceFor(models.LicenseTypeStandard, nil))
}

func TestMonthlyTotal(t *testing.T) {
	modules := []models.Module{
		{Key: "betaling", Price: intPtr(200)},
		{Key: "medlemskap", Price: intPtr(150)},
	}

	moduleTotal, total := MonthlyTotal(1000, models.LicenseTypeStandard, modules)
	assert.Equal(t, 350, moduleTotal)
	assert.Equal(t, 1350, total)

	moduleTotal, total = MonthlyTotal(1000, models.LicenseTypePilot, modules)
	assert.Equal(t, 0, moduleTotal)
	assert.Equal(t, 1000, total)

	moduleTotal, total = MonthlyTotal(1000, models.LicenseTypeStandard, nil)
	assert.Equal(t, 0, moduleTotal)
	assert.Equal(t, 1000, total)
}

func TestBuildPricingBreakdown(t *testing.T) {
	modules := []models.Module{
		{Key: "betaling", Name: "Betaling", Price: intPtr(200)},
	}

	breakdown := BuildPricingBreakdown(models.LicenseTypeStandard, nil, modules)
	assert.Equal(t, "standard", breakdown.LicenseType)
	assert.Equal(t, "Standard", breakdown.LicenseTypeName)
	assert.Equal(t, 1000, breakdown.BasePrice)
	assert.Equal(t, 200, breakdown.ModulePrice)
	assert.Equal(t, 1200, breakdown.TotalMonthly)

	// Booking core entry leads the list, free and standard
	require.Len(t, breakdown.Modules, 2)
	assert.Equal(t, "booking", breakdown.Modules[0].Key)
	assert.Equal(t, 0, breakdown.Modules[0].Price)
	assert.True(t, breakdown.Modules[0].IsStandard)
	assert.Equal(t, "betaling", breakdown.Modules[1].Key)
	assert.Equal(t, 200, breakdown.Modules[1].Price)
}

func TestBuildPricingBreakdownPilot(t *testing.T) {
	modules := []models.Module{
		{Key: "betaling", Name: "Betaling", Price: intPtr(200)},
	}

	breakdown := BuildPricingBreakdown(models.LicenseTypePilot, nil, modules)
	assert.Equal(t, 0, breakdown.BasePrice)
	assert.Equal(t, 0, breakdown.ModulePrice)
	assert.Equal(t, 0, breakdown.TotalMonthly)
	assert.Equal(t, 0, breakdown.Modules[1].Price)
}

func TestBuildPricingBreakdownInactiveHasNoBookingEntry(t *testing.T) {
	breakdown := BuildPricingBreakdown(models.LicenseTypeInactive, nil, nil)
	assert.Empty(t, breakdown.Modules)
	assert.Equal(t, 0, breakdown.TotalMonthly)
}

func TestBuildPricingBreakdownUnknownTypeIsLenient(t *testing.T) {
	breakdown := BuildPricingBreakdown("enterprise", nil, nil)
	assert.Equal(t, "enterprise", breakdown.LicenseType)
	assert.Equal(t, "enterprise", breakdown.LicenseTypeName)
	assert.Equal(t, 0, breakdown.BasePrice)
	assert.Equal(t, 0, breakdown.TotalMonthly)
}
