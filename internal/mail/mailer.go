package mail

import (
	"context"
)

// Message is a rendered email ready to send.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer defines the interface for delivering account emails through a
// specific channel.
type Mailer interface {
	Name() string
	Send(ctx context.Context, msg *Message) error
}
