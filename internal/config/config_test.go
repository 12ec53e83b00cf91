package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewReadsNATSURL(t *testing.T) {
	t.Setenv("NATS_URL", "nats://broker:4222")
	cfg := New()
	assert.Equal(t, "nats://broker:4222", cfg.NATS.URL)
}

func TestNewNATSURLDefault(t *testing.T) {
	t.Setenv("NATS_URL", "")
	cfg := New()
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
}

func TestNewReadsInvoiceDueDays(t *testing.T) {
	t.Setenv("INVOICE_DEFAULT_DUE_DAYS", "21")
	cfg := New()
	assert.Equal(t, 21, cfg.Invoice.DefaultDueDays)
}

func TestNewInvoiceDueDaysDefault(t *testing.T) {
	t.Setenv("INVOICE_DEFAULT_DUE_DAYS", "")
	cfg := New()
	assert.Equal(t, 14, cfg.Invoice.DefaultDueDays)
}
