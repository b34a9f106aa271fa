package billing

import "strings"

const (
	minPhoneDigits = 8
	maxPhoneDigits = 15 // E.164 limit
)

// Client is the customer that receives billing messages.
type Client struct {
	ID    string
	Name  string
	Phone string
}

// NormalizedPhone strips formatting characters and returns the digits only.
// It returns an empty string when the phone cannot be used for messaging.
func (c *Client) NormalizedPhone() string {
	if c == nil {
		return ""
	}
	var b strings.Builder
	for _, r := range c.Phone {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' || r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
			// formatting
		default:
			return ""
		}
	}
	digits := b.String()
	if len(digits) < minPhoneDigits || len(digits) > maxPhoneDigits {
		return ""
	}
	return digits
}

// CanReceiveMessages reports whether the client has a usable phone number.
func (c *Client) CanReceiveMessages() bool {
	return c.NormalizedPhone() != ""
}

// Subscription is the recurring plan an invoice may have been generated from.
type Subscription struct {
	ID         string
	ClientID   string
	PlanName   string
	Amount     float64
	BillingDay int
}
