// Package notification fans engine events out to email and to the persisted
// in-app inbox. Both effects are best effort.
package notification

import (
	"context"

	"github.com/rs/zerolog/log"

	"UniJobBoard-backend/internal/model"
)

// Message is one outbound email. Template selects the body layout and uses the
// same tags as the persisted notification type.
type Message struct {
	To       string
	Name     string
	Subject  string
	Template model.NotificationType
	Data     map[string]string
}

// Mailer delivers outbound messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
	// SendBatch delivers one templated payload per recipient in a single call.
	SendBatch(ctx context.Context, msgs []Message) error
}

// LogMailer only logs messages. Used when no SMTP server is configured.
type LogMailer struct{}

// Send logs msg.
func (LogMailer) Send(_ context.Context, msg Message) error {
	log.Info().
		Str("to", msg.To).
		Str("template", string(msg.Template)).
		Str("subject", msg.Subject).
		Msg("mail delivery disabled, message not sent")
	return nil
}

// SendBatch logs every message of the batch.
func (m LogMailer) SendBatch(ctx context.Context, msgs []Message) error {
	for _, msg := range msgs {
		_ = m.Send(ctx, msg)
	}
	return nil
}
