// Package email provides EmailClient implementations for authsvc.
//
// LogClient records deliveries in a structured log instead of sending them.
// Message bodies carry 2FA codes and never reach the log; they are only held
// in the optional in-memory outbox.
package email

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/MrEthical07/authsvc/credential"
)

// ErrEmptySubject is returned for a message without a subject.
var ErrEmptySubject = errors.New("email: empty subject")

// Message is one delivered email.
type Message struct {
	Recipient string
	Subject   string
	Content   string
}

// LogClient logs the recipient and subject of every message at info level.
// With a positive keep it also retains the most recent messages, content
// included, so a development route or test can read them back.
type LogClient struct {
	logger *slog.Logger

	mu      sync.Mutex
	outbox  []Message
	keepMax int
}

// NewLogClient returns a client logging through logger and keeping up to
// keep messages; keep <= 0 disables the outbox.
func NewLogClient(logger *slog.Logger, keep int) *LogClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogClient{logger: logger, keepMax: keep}
}

func (c *LogClient) SendEmail(ctx context.Context, recipient credential.Email, subject, content string) error {
	if strings.TrimSpace(subject) == "" {
		return ErrEmptySubject
	}

	c.logger.InfoContext(ctx, "email sent",
		"recipient", recipient.String(),
		"subject", subject,
	)

	if c.keepMax <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outbox = append(c.outbox, Message{Recipient: recipient.String(), Subject: subject, Content: content})
	if len(c.outbox) > c.keepMax {
		c.outbox = c.outbox[len(c.outbox)-c.keepMax:]
	}
	return nil
}

// Outbox returns a copy of the retained messages, oldest first.
func (c *LogClient) Outbox() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.outbox...)
}
