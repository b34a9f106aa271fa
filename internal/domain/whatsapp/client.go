package whatsapp

import "context"

// Client sends plain text messages to a WhatsApp number.
// Implementations talk to an external gateway; pairing and sessions are handled there.
type Client interface {
	SendText(ctx context.Context, phone string, text string) error
}
