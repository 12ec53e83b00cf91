package services

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"license-service/internal/config"
	"license-service/internal/models"
)

func sampleEmailData() *invoiceEmailData {
	return &invoiceEmailData{
		CustomerName:  "Lillestrøm IL",
		InvoiceNumber: "INV-2025-007",
		Amount:        "3 600 kr",
		DueDate:       "15.02.2025",
		Period:        "januar – mars 2025",
	}
}

func TestRenderTemplateReplacesAllTokens(t *testing.T) {
	data := sampleEmailData()
	out := renderTemplate("{customerName} {invoiceNumber} {amount} {dueDate} {period}", data)

	assert.Equal(t, "Lillestrøm IL INV-2025-007 3 600 kr 15.02.2025 januar – mars 2025", out)

	// Repeated tokens are all replaced
	out = renderTemplate("{amount} og {amount}", data)
	assert.Equal(t, "3 600 kr og 3 600 kr", out)
}

func TestDefaultTemplatesLeaveNoTokens(t *testing.T) {
	data := sampleEmailData()
	for _, tmpl := range []string{defaultEmailSubject, defaultEmailGreeting, defaultEmailBody, defaultEmailFooter} {
		rendered := renderTemplate(tmpl, data)
		assert.NotContains(t, rendered, "{")
		assert.NotContains(t, rendered, "}")
	}
}

func TestTemplateOrDefault(t *testing.T) {
	assert.Equal(t, "custom", templateOrDefault("custom", "fallback"))
	assert.Equal(t, "fallback", templateOrDefault("", "fallback"))
	assert.Equal(t, "fallback", templateOrDefault("   ", "fallback"))
}

func TestBuildInvoiceText(t *testing.T) {
	data := sampleEmailData()
	text := buildInvoiceText("Hei,", "Her er fakturaen.", "Mvh", data)

	assert.Contains(t, text, "Fakturanummer: INV-2025-007")
	assert.Contains(t, text, "Periode: januar – mars 2025")
	assert.Contains(t, text, "Beløp: 3 600 kr")
	assert.Contains(t, text, "Forfallsdato: 15.02.2025")
	assert.True(t, strings.HasPrefix(text, "Hei,"))
	assert.True(t, strings.HasSuffix(text, "Mvh"))
}

func TestBuildInvoiceHTMLEscapesContent(t *testing.T) {
	data := sampleEmailData()
	data.CustomerName = `<script>alert("x")</script>`

	html := buildInvoiceHTML("Hei {name}", "Body\nline two", "Mvh", "Arena & Co", data)
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "Arena &amp; Co")
	assert.Contains(t, html, "Body<br>line two")
	assert.Contains(t, html, "INV-2025-007")
}

func TestSendInvoiceUnconfiguredIsSoftFailure(t *testing.T) {
	svc := NewEmailService(config.SMTPConfig{}, logrus.New())

	invoice := &models.Invoice{InvoiceNumber: "INV-2025-001", DueDate: time.Now()}
	org := &models.Organization{Name: "Test", ContactEmail: "test@example.com"}

	result := svc.SendInvoice(context.Background(), invoice, org, &models.CompanySettings{}, nil)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
}

func TestBuildAlternativeContainsBothParts(t *testing.T) {
	content, boundary, err := buildAlternative("plain body", "<p>html body</p>")
	assert.NoError(t, err)
	assert.NotEmpty(t, boundary)
	assert.Contains(t, content, "text/plain; charset=utf-8")
	assert.Contains(t, content, "text/html; charset=utf-8")
	assert.Contains(t, content, "plain body")
	assert.Contains(t, content, "<p>html body</p>")
	assert.Contains(t, content, "--"+boundary+"--")
}

func TestWrapBase64LineLength(t *testing.T) {
	data := make([]byte, 200)
	for i := range data {
		data[i] = byte(i)
	}

	wrapped := string(wrapBase64(data))
	for _, line := range strings.Split(wrapped, "\r\n") {
		assert.LessOrEqual(t, len(line), 76)
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(wrapped, "\r\n", ""))
	assert.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestConfigured(t *testing.T) {
	assert.False(t, NewEmailService(config.SMTPConfig{}, logrus.New()).Configured())
	assert.False(t, NewEmailService(config.SMTPConfig{Host: "smtp.example.com"}, logrus.New()).Configured())
	assert.True(t, NewEmailService(config.SMTPConfig{Host: "smtp.example.com", Password: "pw"}, logrus.New()).Configured())
}
