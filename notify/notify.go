// Package notify composes and delivers the portal's outbound email. Delivery
// is attempted via Microsoft Graph first, falling back to SMTP when Graph
// fails or is not configured. When neither path is available the mail is
// logged and dropped; notification failure must never fail the client
// request that triggered it.
package notify

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
	"sync"

	"hlxportal/apiclients/graph"
	"hlxportal/config"
	"hlxportal/internal/mounts"

	"github.com/charmbracelet/log"
)

//go:embed templates
var templatesFS embed.FS

// GraphSender is the part of the graph client used for delivery, extracted
// for substitution in tests.
type GraphSender interface {
	SendMail(ctx context.Context, from string, message graph.Message) error
}

// smtpSendFunc has the signature of smtp.SendMail, extracted for
// substitution in tests.
type smtpSendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer composes notification emails from templates and delivers them.
type Mailer struct {
	cfg      *config.Config
	graph    GraphSender
	smtpSend smtpSendFunc
	log      *log.Logger

	mount *mounts.FileMount

	mu        sync.RWMutex
	templates *template.Template
}

// NewMailer returns a mailer using the provided graph client (which may be
// nil if Graph is not configured). Templates come from the embedded set
// unless the configuration names a template directory override.
func NewMailer(cfg *config.Config, graphClient GraphSender, logger *log.Logger) (*Mailer, error) {
	mount, err := mounts.New("templates", templatesFS, cfg.Mail.TemplatesPath)
	if err != nil {
		return nil, fmt.Errorf("could not mount mail templates: %w", err)
	}
	m := &Mailer{
		cfg:      cfg,
		graph:    graphClient,
		smtpSend: smtp.SendMail,
		log:      logger,
		mount:    mount,
	}
	if err := m.loadTemplates(); err != nil {
		return nil, err
	}
	return m, nil
}

// loadTemplates parses the template set from the mount. Safe for use while
// the mailer is serving.
func (m *Mailer) loadTemplates() error {
	templates, err := template.ParseFS(m.mount, "*.tmpl")
	if err != nil {
		return fmt.Errorf("could not parse mail templates: %w", err)
	}
	m.mu.Lock()
	m.templates = templates
	m.mu.Unlock()
	return nil
}

// render executes the named template into a string.
func (m *Mailer) render(name string, data any) (string, error) {
	m.mu.RLock()
	templates := m.templates
	m.mu.RUnlock()

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("could not execute template %q: %w", name, err)
	}
	return buf.String(), nil
}

// Send wraps the html body in the firm signature and attempts delivery,
// Graph first then SMTP. Delivery failure on both paths drops the mail with
// a logged error and a nil return.
func (m *Mailer) Send(ctx context.Context, to []string, subject, htmlBody string) error {

	wrapped, err := m.render("signature.tmpl", map[string]any{
		"Body":     template.HTML(htmlBody),
		"FromName": m.cfg.Mail.FromName,
	})
	if err != nil {
		return err
	}

	if m.graph != nil {
		err := m.graph.SendMail(ctx, m.cfg.Mail.FromAddress, graph.NewMessage(subject, wrapped, to...))
		if err == nil {
			m.log.Info("mail sent via graph", "to", to, "subject", subject)
			return nil
		}
		m.log.Warn("graph delivery failed, trying smtp", "to", to, "error", err)
	}

	if m.cfg.SMTP.Configured() {
		err := m.sendSMTP(to, subject, wrapped)
		if err == nil {
			m.log.Info("mail sent via smtp", "to", to, "subject", subject)
			return nil
		}
		m.log.Warn("smtp delivery failed", "to", to, "error", err)
	}

	m.log.Error("mail dropped, no delivery path available", "to", to, "subject", subject)
	return nil
}

// sendSMTP delivers an html mail over the configured SMTP relay.
func (m *Mailer) sendSMTP(to []string, subject, htmlBody string) error {
	smtpCfg := m.cfg.SMTP
	addr := fmt.Sprintf("%s:%d", smtpCfg.Host, smtpCfg.Port)

	var auth smtp.Auth
	if smtpCfg.User != "" {
		auth = smtp.PlainAuth("", smtpCfg.User, smtpCfg.Password, smtpCfg.Host)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", m.cfg.Mail.FromName, m.cfg.Mail.FromAddress)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	return m.smtpSend(addr, auth, m.cfg.Mail.FromAddress, to, msg.Bytes())
}

// DeriveEmail converts fee earner initials to a staff email address, for
// example "AB" to ab@example-firm.com.
func (m *Mailer) DeriveEmail(initials string) string {
	return fmt.Sprintf("%s@%s", strings.ToLower(strings.TrimSpace(initials)), m.cfg.Mail.StaffDomain)
}

// accountsAddress is the recipient for pending bank transfer notifications.
func (m *Mailer) accountsAddress() string {
	return fmt.Sprintf("accounts@%s", m.cfg.Mail.StaffDomain)
}
