package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jhkiehna/pizza-tracker/internal/bus"
)

// Email is a rendered notification.
type Email struct {
	To      string
	Subject string
	Body    string
}

// Mailer sends an email.
type Mailer interface {
	Send(ctx context.Context, e Email) error
}

// LogMailer logs emails instead of sending them.
type LogMailer struct {
	Logger *slog.Logger
}

func (m LogMailer) Send(ctx context.Context, e Email) error {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "email", "to", e.To, "subject", e.Subject, "body", e.Body)
	return nil
}

// EmailSubscriber forwards every delivered message to one address,
// the way an email topic subscription does.
type EmailSubscriber struct {
	address string
	mailer  Mailer
}

// NewEmailSubscriber returns a subscriber mailing to address.
func NewEmailSubscriber(address string, mailer Mailer) *EmailSubscriber {
	return &EmailSubscriber{address: address, mailer: mailer}
}

// HandleMessages sends one email per message, stopping at the first error.
func (s *EmailSubscriber) HandleMessages(ctx context.Context, msgs []bus.Message) error {
	for _, m := range msgs {
		if err := s.mailer.Send(ctx, Render(s.address, m)); err != nil {
			return fmt.Errorf("email %s for message %s: %w", s.address, m.ID, err)
		}
	}
	return nil
}

// Render builds the email for a status message.
func Render(to string, m bus.Message) Email {
	status := m.Attributes[bus.AttrOrderStatus]
	if status == "" {
		status = "Unknown"
	}
	return Email{
		To:      to,
		Subject: fmt.Sprintf("Pizza order %s", status),
		Body:    m.Body,
	}
}
