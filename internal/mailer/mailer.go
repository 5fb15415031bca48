package mailer

import (
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/Gen7Fuel/thehub-sub000/internal/config"
)

// Mailer sends operational mail: cash-summary confirmations and
// password-reset tokens.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func New(cfg config.MailConfig) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (m *Mailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return m.dialer.DialAndSend(msg)
}

// SendSubmissionSummary mails the end-of-day numbers after a cash
// summary is submitted.
func (m *Mailer) SendSubmissionSummary(to, site, businessDate, deposit, cashOnHand string) error {
	subject := fmt.Sprintf("[%s] Cash summary submitted for %s", site, businessDate)
	body := fmt.Sprintf(
		"Cash summary for %s on %s has been submitted.\n\nBank deposit: %s\nCash on hand (safe): %s\n",
		site, businessDate, deposit, cashOnHand,
	)
	return m.Send(to, subject, body)
}

// SendPasswordReset mails a reset token to the account's address.
func (m *Mailer) SendPasswordReset(to, token string) error {
	body := fmt.Sprintf(
		"A password reset was requested for your account.\n\nReset token: %s\n\nThe token expires in one hour. Ignore this mail if you did not request it.\n",
		token,
	)
	return m.Send(to, "Password reset", body)
}
