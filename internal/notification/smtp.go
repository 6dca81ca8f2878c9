package notification

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/cockroachdb/errors"
	"golang.org/x/time/rate"
)

const mailTemplates = `
{{define "layout_top"}}<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; }
        .title { color: #2c5282; font-size: 18px; margin-bottom: 5px; }
        .muted { color: #718096; font-size: 14px; }
    </style>
</head>
<body>
    <p>Hello {{.Name}},</p>{{end}}
{{define "layout_bottom"}}
    <p class="muted">University Job Board</p>
</body>
</html>{{end}}

{{define "application_received"}}{{template "layout_top" .}}
    <p>A new application was submitted for <span class="title">{{.Data.JobTitle}}</span>.</p>
    {{if .Data.ApplicantName}}<p>Applicant: {{.Data.ApplicantName}}</p>{{end}}
{{template "layout_bottom" .}}{{end}}

{{define "status_update"}}{{template "layout_top" .}}
    <p>Your application for <span class="title">{{.Data.JobTitle}}</span> is now <b>{{.Data.Status}}</b>.</p>
{{template "layout_bottom" .}}{{end}}

{{define "new_job"}}{{template "layout_top" .}}
    <p>A new position was posted in {{.Data.Department}}:</p>
    <p class="title">{{.Data.JobTitle}}</p>
    {{if .Data.Deadline}}<p class="muted">Apply before {{.Data.Deadline}}</p>{{end}}
{{template "layout_bottom" .}}{{end}}

{{define "deadline_reminder"}}{{template "layout_top" .}}
    <p>The application deadline for <span class="title">{{.Data.JobTitle}}</span> is {{.Data.Deadline}}.</p>
{{template "layout_bottom" .}}{{end}}
`

var templates = template.Must(template.New("mail").Parse(mailTemplates))

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPConfig is the connection detail of the outgoing mail server.
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	From      string
	PerSecond float64
}

// SMTPMailer renders html templates and delivers them through an SMTP server,
// throttled to PerSecond messages.
type SMTPMailer struct {
	config  SMTPConfig
	limiter *rate.Limiter
	send    sendFunc
}

// NewSMTPMailer creates a mailer for config.
func NewSMTPMailer(config SMTPConfig) *SMTPMailer {
	limit := rate.Inf
	if config.PerSecond > 0 {
		limit = rate.Limit(config.PerSecond)
	}
	return &SMTPMailer{
		config:  config,
		limiter: rate.NewLimiter(limit, 1),
		send:    smtp.SendMail,
	}
}

// Send renders and delivers msg.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	body, err := render(msg)
	if err != nil {
		return err
	}
	if err := m.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "waiting for mail rate limiter")
	}

	var auth smtp.Auth
	if m.config.Username != "" {
		auth = smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
	}
	addr := fmt.Sprintf("%s:%d", m.config.Host, m.config.Port)
	if err := m.send(addr, auth, m.config.From, []string{msg.To}, m.envelope(msg, body)); err != nil {
		return errors.Wrapf(err, "sending mail to %s", msg.To)
	}
	return nil
}

// SendBatch delivers every message and reports all failures together.
func (m *SMTPMailer) SendBatch(ctx context.Context, msgs []Message) error {
	var errs []error
	for _, msg := range msgs {
		if err := m.Send(ctx, msg); err != nil {
			errs = append(errs, err)
			if ctx.Err() != nil {
				break
			}
		}
	}
	return errors.Join(errs...)
}

func (m *SMTPMailer) envelope(msg Message, body []byte) []byte {
	var message bytes.Buffer
	fmt.Fprintf(&message, "From: %s\r\n", m.config.From)
	fmt.Fprintf(&message, "To: %s\r\n", msg.To)
	fmt.Fprintf(&message, "Subject: %s\r\n", msg.Subject)
	message.WriteString("MIME-Version: 1.0\r\n")
	message.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	message.WriteString("\r\n")
	message.Write(body)
	return message.Bytes()
}

func render(msg Message) ([]byte, error) {
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, string(msg.Template), msg); err != nil {
		return nil, errors.Wrapf(err, "rendering %s template", msg.Template)
	}
	return body.Bytes(), nil
}
