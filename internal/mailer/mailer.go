package mailer

import (
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/pos-suite/pos-backend/internal/config"
)

// Mailer sends transactional mail over SMTP. Delivery failures are reported
// to the caller, which treats them as best effort; auth flows never fail
// because the mail server is down.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	appURL string
}

func New(cfg *config.Config) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass),
		from:   cfg.SMTPFrom,
		appURL: strings.TrimRight(cfg.AppURL, "/"),
	}
}

func (m *Mailer) SendVerificationEmail(to, token string) error {
	body := fmt.Sprintf(
		"<p>Welcome! Please verify your email address by opening the link below.</p>"+
			"<p><a href=%q>Verify email</a></p>",
		m.appURL+"/api/auth/verify-email?token="+token,
	)
	return m.send(to, "Verify your email", body)
}

func (m *Mailer) SendPasswordResetEmail(to, token string) error {
	body := fmt.Sprintf(
		"<p>A password reset was requested for your account. The link below is valid for one hour.</p>"+
			"<p><a href=%q>Reset password</a></p>"+
			"<p>If you did not request this, you can ignore this message.</p>",
		m.appURL+"/reset-password?token="+token,
	)
	return m.send(to, "Reset your password", body)
}

func (m *Mailer) send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
