package mailer

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/diagnosis/restaurant-management/pkg/config"
)

// Service delivers verification codes.
type Service interface {
	SendVerificationEmail(ctx context.Context, toEmail, toName, code string) error
}

const verificationSubject = "Verify your email address"

// New picks the delivery backend from EMAIL_PROVIDER.
func New(cfg config.EmailConfig) (Service, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "dev":
		return NewDevMailer(), nil
	case "smtp":
		from := cfg.FromEmail
		if cfg.FromName != "" {
			from = fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromEmail)
		}
		return NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, from, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPUseTLS), nil
	case "mailersend":
		m := NewMailerSend(cfg.MailerSendKey, cfg.FromName, cfg.FromEmail)
		if !m.enabled {
			return nil, fmt.Errorf("mailersend provider requires MAILERSEND_API_KEY and EMAIL_FROM")
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}

func verificationText(toName, code string) string {
	return fmt.Sprintf("Hi %s,\n\nYour verification code is: %s\n\nThe code expires in 15 minutes. If you did not create an account, ignore this email.", toName, code)
}

// verificationHTML escapes both values; names are user supplied.
func verificationHTML(toName, code string) string {
	return fmt.Sprintf(`
		<h2>Confirm your email</h2>
		<p>Hi %s,</p>
		<p>Your verification code is:</p>
		<p><strong style="font-size: 24px; letter-spacing: 4px;">%s</strong></p>
		<p>The code expires in 15 minutes.</p>
		<p>If you didn't create an account with us, please ignore this email.</p>
	`, html.EscapeString(toName), html.EscapeString(code))
}
