package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"pesuacademy/internal/assert"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel/codes"
)

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
}

// Sender delivers a notification to whoever is configured to receive it.
type Sender interface {
	Send(ctx context.Context, subject, body string) error
}

// EmailSender sends notifications as plain text emails.
type EmailSender struct {
	config SmtpConfig
	to     []string
}

func NewEmailSender(config SmtpConfig, to []string) EmailSender {
	assert.NotEmptyStr(config.Server)
	assert.NotEmptyStr(config.EmailAddress)
	return EmailSender{config: config, to: to}
}

func (s EmailSender) Send(ctx context.Context, subject, body string) error {
	_, span := tracer.Start(ctx, "EmailSender.Send")
	defer span.End()

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("PESU Academy <%s>", s.config.EmailAddress)
	mail.To = s.to
	mail.Subject = subject
	mail.Text = []byte(body)

	addr := fmt.Sprintf("%s:%d", s.config.Server, s.config.Port)
	err := mail.Send(
		addr,
		smtp.PlainAuth("", s.config.EmailAddress, s.config.Password, s.config.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}
	return nil
}
