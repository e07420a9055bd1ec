package alert

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/jordan-wright/email"
)

// API notifies a human that a run needs attention.
type API interface {
	Notify(ctx context.Context, incident Incident) error
}

// Incident describes a run that stopped on a fatal error.
type Incident struct {
	RunID    string
	AcadYear string
	Stage    string
	Err      error
	At       time.Time
}

func (i Incident) subject() string {
	return fmt.Sprintf("[nusmods-scraper] run %s failed at %s", i.AcadYear, i.Stage)
}

func (i Incident) body() string {
	return fmt.Sprintf(`The scraper stopped on a fatal error and did not persist this run.

run:      %s
year:     %s
stage:    %s
time:     %s

%s

Previous outputs are untouched. Inspect the upstream page or PDF named above
before re-running.`,
		i.RunID,
		i.AcadYear,
		i.Stage,
		i.At.Format(time.RFC1123),
		i.Err,
	)
}

type SmtpConfig struct {
	Server       string   `json:"server"`
	Port         int      `json:"port"`
	EmailAddress string   `json:"email_address"`
	Password     string   `json:"password"`
	To           []string `json:"to"`
}

func (c SmtpConfig) Enabled() bool {
	return c.Server != "" && len(c.To) > 0
}

// Smtp sends incidents as plain text e-mail.
type Smtp struct {
	config SmtpConfig
}

func NewSmtp(config SmtpConfig) Smtp {
	return Smtp{config: config}
}

func (s Smtp) Notify(ctx context.Context, incident Incident) error {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("nusmods-scraper <%s>", s.config.EmailAddress)
	mail.To = s.config.To
	mail.Subject = incident.subject()
	mail.Text = []byte(incident.body())

	addr := fmt.Sprintf("%s:%d", s.config.Server, s.config.Port)
	err := mail.Send(
		addr,
		smtp.PlainAuth("", s.config.EmailAddress, s.config.Password, s.config.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		return fmt.Errorf("send alert: %w", err)
	}
	return nil
}

// Noop drops every incident, it is used when no SMTP server is configured.
type Noop struct{}

func (Noop) Notify(context.Context, Incident) error {
	return nil
}

// FromConfig returns an Smtp notifier when the config is complete and Noop
// otherwise.
func FromConfig(config SmtpConfig) API {
	if !config.Enabled() {
		return Noop{}
	}
	return NewSmtp(config)
}
