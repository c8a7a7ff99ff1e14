package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-hub-api/pkg/config"
)

// SMTPNotifier mails a plain-text digest of each publish to a fixed
// recipient list. Configured only when an SMTP host is present.
type SMTPNotifier struct {
	host       string
	port       int
	username   string
	password   string
	from       string
	recipients []string
	logger     *zap.Logger
}

// NewSMTPNotifier constructs the notifier from SMTP configuration.
func NewSMTPNotifier(cfg config.SMTPConfig, recipients []string, logger *zap.Logger) (*SMTPNotifier, error) {
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	from := strings.TrimSpace(cfg.From)
	if from == "" {
		return nil, fmt.Errorf("smtp from address is required")
	}
	port := cfg.Port
	if port == 0 {
		port = 587
	}
	cleaned := make([]string, 0, len(recipients))
	for _, recipient := range recipients {
		if trimmed := strings.TrimSpace(recipient); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMTPNotifier{
		host:       host,
		port:       port,
		username:   strings.TrimSpace(cfg.Username),
		password:   cfg.Password,
		from:       from,
		recipients: cleaned,
		logger:     logger,
	}, nil
}

// Name identifies the channel in dispatch logs.
func (n *SMTPNotifier) Name() string { return "smtp" }

// Notify sends the digest mail. An empty recipient list is a no-op.
func (n *SMTPNotifier) Notify(_ context.Context, msg Message) error {
	if len(n.recipients) == 0 {
		return nil
	}

	subject := fmt.Sprintf("[Campus Hub] %s", strings.TrimSpace(msg.Title))
	body := strings.Builder{}
	body.WriteString(strings.TrimSpace(msg.Body))
	body.WriteString("\n\n")
	body.WriteString(fmt.Sprintf("Category: %s\n", msg.Category))
	body.WriteString(fmt.Sprintf("Priority: %s\n", msg.Priority))
	body.WriteString(fmt.Sprintf("Recipients: %d\n", msg.Recipients))
	body.WriteString(fmt.Sprintf("Published: %s\n", msg.PublishedAt.Format("2006-01-02 15:04:05 MST")))

	headers := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n",
		n.from, strings.Join(n.recipients, ","), subject)

	addr := fmt.Sprintf("%s:%d", n.host, n.port)
	var auth smtp.Auth
	if n.username != "" {
		auth = smtp.PlainAuth("", n.username, n.password, n.host)
	}
	if err := smtp.SendMail(addr, auth, n.from, n.recipients, []byte(headers+body.String())); err != nil {
		return fmt.Errorf("send digest mail: %w", err)
	}
	return nil
}
