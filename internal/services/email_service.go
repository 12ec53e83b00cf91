package services

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"html"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"license-service/internal/config"
	"license-service/internal/models"
)

// Default invoice email templates, used when company settings leave the
// corresponding field empty. Placeholders are replaced per invoice.
const (
	defaultEmailSubject  = "Faktura {invoiceNumber} - Arena"
	defaultEmailGreeting = "Hei {customerName},"
	defaultEmailBody     = "Vedlagt finner du faktura for Arena-abonnementet ditt for {period}.\n\nVennligst betal innen forfallsdato {dueDate}."
	defaultEmailFooter   = "Med vennlig hilsen,\nArena"
)

// EmailResult is the soft-failure outcome of an email operation. SMTP errors
// are reported here instead of as Go errors so callers can surface the
// provider's message without failing the request.
type EmailResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// EmailService sends invoice emails over SMTP.
type EmailService struct {
	cfg    config.SMTPConfig
	logger *logrus.Logger
}

// NewEmailService creates a new email service
func NewEmailService(cfg config.SMTPConfig, logger *logrus.Logger) *EmailService {
	return &EmailService{cfg: cfg, logger: logger}
}

// Configured reports whether SMTP is set up at all.
func (s *EmailService) Configured() bool {
	return s.cfg.Host != "" && s.cfg.Password != ""
}

// invoiceEmailData holds the values substituted into the templates.
type invoiceEmailData struct {
	CustomerName  string
	InvoiceNumber string
	Amount        string
	DueDate       string
	Period        string
}

func renderTemplate(template string, data *invoiceEmailData) string {
	r := strings.NewReplacer(
		"{customerName}", data.CustomerName,
		"{invoiceNumber}", data.InvoiceNumber,
		"{amount}", data.Amount,
		"{dueDate}", data.DueDate,
		"{period}", data.Period,
	)
	return r.Replace(template)
}

func templateOrDefault(custom, fallback string) string {
	if strings.TrimSpace(custom) != "" {
		return custom
	}
	return fallback
}

// SendInvoice renders and sends the invoice email to the organization's
// contact address. A non-empty pdf is attached as {invoiceNumber}.pdf.
func (s *EmailService) SendInvoice(ctx context.Context, invoice *models.Invoice, org *models.Organization, settings *models.CompanySettings, pdf []byte) *EmailResult {
	if !s.Configured() {
		return &EmailResult{Success: false, Error: "SMTP er ikke konfigurert"}
	}

	customerName := org.ContactName
	if customerName == "" {
		customerName = org.Name
	}

	data := &invoiceEmailData{
		CustomerName:  customerName,
		InvoiceNumber: invoice.InvoiceNumber,
		Amount:        FormatAmountNOK(invoice.Amount),
		DueDate:       invoice.DueDate.Format("02.01.2006"),
		Period:        FormatPeriod(invoice.PeriodMonth, invoice.PeriodYear, invoice.PeriodMonths),
	}

	subject := renderTemplate(templateOrDefault(settings.EmailSubject, defaultEmailSubject), data)
	greeting := renderTemplate(templateOrDefault(settings.EmailGreeting, defaultEmailGreeting), data)
	bodyText := renderTemplate(templateOrDefault(settings.EmailBody, defaultEmailBody), data)
	footer := renderTemplate(templateOrDefault(settings.EmailFooter, defaultEmailFooter), data)

	companyName := settings.CompanyName
	if companyName == "" {
		companyName = s.cfg.FromName
	}

	textBody := buildInvoiceText(greeting, bodyText, footer, data)
	htmlBody := buildInvoiceHTML(greeting, bodyText, footer, companyName, data)

	attachmentName := ""
	if len(pdf) > 0 {
		attachmentName = invoice.InvoiceNumber + ".pdf"
	}

	if err := s.sendMultipart(ctx, org.ContactEmail, subject, textBody, htmlBody, attachmentName, pdf); err != nil {
		return &EmailResult{Success: false, Error: err.Error()}
	}
	return &EmailResult{Success: true}
}

// SendTest sends a test invoice email with sample data.
func (s *EmailService) SendTest(ctx context.Context, to string) *EmailResult {
	invoice := &models.Invoice{
		InvoiceNumber: "TEST-001",
		Amount:        999,
		PeriodMonth:   1,
		PeriodYear:    2026,
		PeriodMonths:  1,
		DueDate:       time.Now(),
	}
	org := &models.Organization{Name: "Test Bruker", ContactName: "Test Bruker", ContactEmail: to}
	return s.SendInvoice(ctx, invoice, org, &models.CompanySettings{}, nil)
}

// TestConnection verifies that the SMTP server accepts our credentials
// without sending anything.
func (s *EmailService) TestConnection(ctx context.Context) *EmailResult {
	if !s.Configured() {
		return &EmailResult{Success: false, Error: "SMTP er ikke konfigurert"}
	}

	client, err := s.dial(ctx)
	if err != nil {
		return &EmailResult{Success: false, Error: err.Error()}
	}
	defer client.Quit()

	if ok, _ := client.Extension("AUTH"); ok {
		auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return &EmailResult{Success: false, Error: err.Error()}
		}
	}
	return &EmailResult{Success: true}
}

// dial connects to the SMTP server. Port 465 gets implicit TLS, anything
// else starts plain and upgrades via STARTTLS when offered.
func (s *EmailService) dial(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(s.cfg.Host, s.cfg.Port)
	dialer := &net.Dialer{}

	if s.cfg.Port == "465" {
		conn, err := tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{ServerName: s.cfg.Host})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to SMTP server: %w", err)
		}
		client, err := smtp.NewClient(conn, s.cfg.Host)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create SMTP client: %w", err)
		}
		return client, nil
	}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}
	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
			client.Close()
			return nil, fmt.Errorf("STARTTLS failed: %w", err)
		}
	}
	return client, nil
}

// buildAlternative renders the text+html body as a multipart/alternative
// block and returns the content together with its boundary.
func buildAlternative(textBody, htmlBody string) (string, string, error) {
	var alt strings.Builder
	writer := multipart.NewWriter(&alt)

	textPart, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=utf-8"},
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to build message: %w", err)
	}
	if _, err := textPart.Write([]byte(textBody)); err != nil {
		return "", "", fmt.Errorf("failed to build message: %w", err)
	}

	htmlPart, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/html; charset=utf-8"},
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to build message: %w", err)
	}
	if _, err := htmlPart.Write([]byte(htmlBody)); err != nil {
		return "", "", fmt.Errorf("failed to build message: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", "", fmt.Errorf("failed to build message: %w", err)
	}
	return alt.String(), writer.Boundary(), nil
}

func (s *EmailService) sendMultipart(ctx context.Context, to, subject, textBody, htmlBody, attachmentName string, attachment []byte) error {
	from := s.cfg.From
	if from == "" {
		from = s.cfg.User
	}
	fromHeader := from
	if s.cfg.FromName != "" {
		fromHeader = fmt.Sprintf("%s <%s>", s.cfg.FromName, from)
	}

	altContent, altBoundary, err := buildAlternative(textBody, htmlBody)
	if err != nil {
		return err
	}

	var body strings.Builder
	contentType := "multipart/alternative; boundary=" + altBoundary
	if len(attachment) > 0 {
		mixed := multipart.NewWriter(&body)
		contentType = "multipart/mixed; boundary=" + mixed.Boundary()

		altPart, err := mixed.CreatePart(textproto.MIMEHeader{
			"Content-Type": {"multipart/alternative; boundary=" + altBoundary},
		})
		if err != nil {
			return fmt.Errorf("failed to build message: %w", err)
		}
		if _, err := altPart.Write([]byte(altContent)); err != nil {
			return fmt.Errorf("failed to build message: %w", err)
		}

		pdfPart, err := mixed.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {"application/pdf"},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", attachmentName)},
		})
		if err != nil {
			return fmt.Errorf("failed to build message: %w", err)
		}
		if _, err := pdfPart.Write(wrapBase64(attachment)); err != nil {
			return fmt.Errorf("failed to build message: %w", err)
		}
		if err := mixed.Close(); err != nil {
			return fmt.Errorf("failed to build message: %w", err)
		}
	} else {
		body.WriteString(altContent)
	}

	var msg strings.Builder
	headers := []string{
		"From: " + fromHeader,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: " + contentType,
	}
	for _, h := range headers {
		msg.WriteString(h + "\r\n")
	}
	msg.WriteString("\r\n")
	msg.WriteString(body.String())

	client, err := s.dial(ctx)
	if err != nil {
		return err
	}
	defer client.Quit()

	if ok, _ := client.Extension("AUTH"); ok {
		auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP auth failed: %w", err)
		}
	}
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("RCPT TO failed: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA failed: %w", err)
	}
	if _, err := w.Write([]byte(msg.String())); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish message: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
	}).Debug("Email delivered to SMTP server")

	return nil
}

// wrapBase64 encodes data with line breaks every 76 characters per RFC 2045.
func wrapBase64(data []byte) []byte {
	encoded := base64.StdEncoding.EncodeToString(data)
	var b strings.Builder
	for len(encoded) > 76 {
		b.WriteString(encoded[:76])
		b.WriteString("\r\n")
		encoded = encoded[76:]
	}
	b.WriteString(encoded)
	return []byte(b.String())
}

func buildInvoiceText(greeting, body, footer string, data *invoiceEmailData) string {
	return strings.Join([]string{
		greeting,
		"",
		body,
		"",
		"Fakturanummer: " + data.InvoiceNumber,
		"Periode: " + data.Period,
		"Beløp: " + data.Amount,
		"Forfallsdato: " + data.DueDate,
		"",
		footer,
	}, "\n")
}

func buildInvoiceHTML(greeting, body, footer, companyName string, data *invoiceEmailData) string {
	esc := html.EscapeString
	nl2br := func(s string) string {
		return strings.ReplaceAll(esc(s), "\n", "<br>")
	}

	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><meta charset="utf-8"><style>
body { font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; }
.container { max-width: 600px; margin: 0 auto; padding: 20px; }
.invoice-box { background: #f9f9f9; border-radius: 8px; padding: 20px; margin: 20px 0; }
.invoice-row { display: flex; justify-content: space-between; padding: 8px 0; border-bottom: 1px solid #eee; }
.invoice-total { font-size: 1.2em; font-weight: bold; color: #22c55e; }
.due-date { background: #fff3cd; padding: 10px; border-radius: 4px; margin-top: 15px; }
.footer { margin-top: 30px; font-size: 0.85em; color: #666; text-align: center; }
</style></head><body><div class="container">`)
	fmt.Fprintf(&b, `<div style="text-align:center;margin-bottom:30px;"><h1 style="color:#3b82f6;margin:0;">%s</h1><p style="color:#666;margin:5px 0;">Faktura</p></div>`, esc(companyName))
	fmt.Fprintf(&b, `<p>%s</p><p>%s</p>`, nl2br(greeting), nl2br(body))
	b.WriteString(`<div class="invoice-box">`)
	fmt.Fprintf(&b, `<div class="invoice-row"><span>Fakturanummer:</span><strong>%s</strong></div>`, esc(data.InvoiceNumber))
	fmt.Fprintf(&b, `<div class="invoice-row"><span>Periode:</span><span>%s</span></div>`, esc(data.Period))
	fmt.Fprintf(&b, `<div class="invoice-row invoice-total"><span>Beløp:</span><span>%s</span></div>`, esc(data.Amount))
	fmt.Fprintf(&b, `<div class="due-date"><strong>Forfallsdato:</strong> %s</div>`, esc(data.DueDate))
	b.WriteString(`</div><p>Har du spørsmål? Svar gjerne på denne e-posten.</p>`)
	fmt.Fprintf(&b, `<div class="footer"><p>%s</p></div>`, nl2br(footer))
	b.WriteString(`</div></body></html>`)
	return b.String()
}
