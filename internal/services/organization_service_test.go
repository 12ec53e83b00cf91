package services

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"license-service/internal/models"
	"license-service/internal/repository"
)

func TestGenerateLicenseKey(t *testing.T) {
	key, err := GenerateLicenseKey()
	require.NoError(t, err)
	assert.Len(t, key, 64)

	_, err = hex.DecodeString(key)
	assert.NoError(t, err)

	other, err := GenerateLicenseKey()
	require.NoError(t, err)
	assert.NotEqual(t, key, other)
}

func TestCreateOrganizationRejectsBadSlug(t *testing.T) {
	svc := NewOrganizationService(nil, nil, nil, nil, nil, logrus.New())

	for _, slug := range []string{"", "Has Spaces", "UPPER", "trailing-", "-leading", "under_score", "æøå"} {
		_, err := svc.Create(context.Background(), &CreateOrganizationRequest{
			Name: "Lillestrøm IL",
			Slug: slug,
		})
		require.Error(t, err, "slug=%q", slug)
		ve, ok := IsValidationError(err)
		require.True(t, ok, "slug=%q", slug)
		assert.Equal(t, "slug", ve.Field)
	}
}

func TestCreateOrganizationNormalizesSlug(t *testing.T) {
	svc := NewOrganizationService(nil, nil, nil, nil, nil, logrus.New())

	// Upper case is lowered before validation; the invalid name then trips
	// the next check, proving the slug passed.
	req := &CreateOrganizationRequest{Name: "x", Slug: "  Lillestrom-IL  "}
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	ve, ok := IsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "name", ve.Field)
	assert.Equal(t, "lillestrom-il", req.Slug)
}

func TestCreateOrganizationRejectsUnknownLicenseType(t *testing.T) {
	svc := NewOrganizationService(nil, nil, nil, nil, nil, logrus.New())

	_, err := svc.Create(context.Background(), &CreateOrganizationRequest{
		Name:        "Lillestrøm IL",
		Slug:        "lillestrom-il",
		LicenseType: "enterprise",
	})
	require.Error(t, err)
	ve, ok := IsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "license_type", ve.Field)
}

func TestUpdateOrganizationRejectsEmptyUpdate(t *testing.T) {
	svc := NewOrganizationService(nil, nil, nil, nil, nil, logrus.New())

	_, err := svc.Update(context.Background(), "lillestrom-il", &UpdateOrganizationRequest{})
	require.Error(t, err)
	_, ok := IsValidationError(err)
	assert.True(t, ok)
}

func TestUpdateOrganizationRejectsUnknownLicenseType(t *testing.T) {
	svc := NewOrganizationService(nil, nil, nil, nil, nil, logrus.New())

	bad := "enterprise"
	_, err := svc.Update(context.Background(), "lillestrom-il", &UpdateOrganizationRequest{LicenseType: &bad})
	require.Error(t, err)
	ve, ok := IsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "license_type", ve.Field)
}

func TestValidationResultWireFormat(t *testing.T) {
	result := ValidationResult{
		Valid:       false,
		LicenseType: models.LicenseTypeStandard,
		Reason:      ValidationReasonExpired,
	}

	data, err := json.Marshal(&result)
	require.NoError(t, err)
	// Booking apps read the license type from "plan"
	assert.Contains(t, string(data), `"plan":"standard"`)
	assert.NotContains(t, string(data), "license_type")
}

func TestValidateSlugMismatchStillReportsPlan(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewOrganizationService(repository.NewOrganizationRepository(db), nil, nil, nil, nil, testLogger())

	mock.ExpectQuery(`SELECT (.+) FROM "organizations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "slug", "license_key", "license_type", "is_active", "expires_at"}).
			AddRow(uuid.New().String(), "Lillestrøm IL", "lillestrom-il", "abc123", models.LicenseTypeStandard, true, time.Now().AddDate(1, 0, 0)))
	mock.ExpectQuery(`SELECT (.+) FROM "organization_modules"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	result, err := svc.Validate(context.Background(), &ValidateRequest{
		LicenseKey: "abc123",
		OrgSlug:    "annen-klubb",
	})
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, ValidationReasonMismatch, result.Reason)
	assert.Equal(t, models.LicenseTypeStandard, result.LicenseType)
	assert.Nil(t, result.ExpiresAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidateUnknownKeyOmitsPlan(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewOrganizationService(repository.NewOrganizationRepository(db), nil, nil, nil, nil, testLogger())

	mock.ExpectQuery(`SELECT (.+) FROM "organizations"`).
		WillReturnError(gorm.ErrRecordNotFound)

	result, err := svc.Validate(context.Background(), &ValidateRequest{
		LicenseKey: "no-such-key",
		OrgSlug:    "lillestrom-il",
	})
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, ValidationReasonMismatch, result.Reason)
	assert.Empty(t, result.LicenseType)
	assert.NoError(t, mock.ExpectationsWereMet())
}
