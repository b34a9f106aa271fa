// internal/app/notification_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"billing_notification_bot/internal/domain/billing"
	"billing_notification_bot/internal/domain/notification"
	"billing_notification_bot/internal/domain/whatsapp"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

var ErrNoPhone = errors.New("client has no usable phone number")

// WhatsAppNotifier renders billing messages and hands them to a WhatsApp client.
// It implements notification.Sender.
type WhatsAppNotifier struct {
	client      whatsapp.Client
	companyName string
	currency    string
	logger      *logrus.Entry
}

func NewWhatsAppNotifier(client whatsapp.Client, companyName, currency string, logger *logrus.Entry) *WhatsAppNotifier {
	if currency == "" {
		currency = "R$"
	}
	return &WhatsAppNotifier{
		client:      client,
		companyName: companyName,
		currency:    currency,
		logger:      logger,
	}
}

// Send delivers the message for a single candidate.
func (n *WhatsAppNotifier) Send(ctx context.Context, c notification.Candidate) error {
	phone := c.Client.NormalizedPhone()
	if phone == "" {
		return ErrNoPhone
	}

	text, err := n.RenderMessage(c)
	if err != nil {
		return err
	}

	log := n.logger.WithFields(logrus.Fields{
		"invoice_id": c.Invoice.ID,
		"client_id":  c.Client.ID,
		"type":       c.Type,
	})
	if err := n.client.SendText(ctx, phone, text); err != nil {
		log.WithError(err).Warn("WhatsApp send failed")
		return fmt.Errorf("whatsapp send: %w", err)
	}
	log.Debug("WhatsApp message accepted")
	return nil
}

// RenderMessage builds the text for a candidate.
func (n *WhatsAppNotifier) RenderMessage(c notification.Candidate) (string, error) {
	var body string
	amount := n.formatAmount(c.Invoice.Amount)
	due := formatDueDate(c.Invoice.DueDate)

	switch c.Type {
	case notification.TypeNewInvoice:
		body = fmt.Sprintf("Sua nova fatura%s no valor de %s já está disponível, com vencimento em %s.",
			planSuffix(c.Subscription), amount, due)
	case notification.TypeReminder:
		when := fmt.Sprintf("vence em %d dias (%s)", c.DaysUntilDue, due)
		switch c.DaysUntilDue {
		case 0:
			when = "vence hoje"
		case 1:
			when = fmt.Sprintf("vence amanhã (%s)", due)
		}
		body = fmt.Sprintf("Lembrete: sua fatura%s no valor de %s %s.", planSuffix(c.Subscription), amount, when)
	case notification.TypeOverdue:
		body = overdueBody(c.Tier, amount, due, planSuffix(c.Subscription))
	default:
		return "", fmt.Errorf("unknown notification type: %s", c.Type)
	}

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("Olá, %s! ", firstName(c.Client)))
	msg.WriteString(body)
	if n.companyName != "" {
		msg.WriteString("\n\n")
		msg.WriteString(n.companyName)
	}
	return msg.String(), nil
}

func overdueBody(tier int, amount, due, plan string) string {
	switch {
	case tier <= 3:
		return fmt.Sprintf("Não identificamos o pagamento da sua fatura%s de %s, vencida em %s. Se já pagou, por favor desconsidere.", plan, amount, due)
	case tier < 15:
		return fmt.Sprintf("Sua fatura%s de %s está vencida há %d dias (vencimento em %s). Regularize para evitar a suspensão do serviço.", plan, amount, tier, due)
	default:
		return fmt.Sprintf("AVISO: sua fatura%s de %s está vencida há %d dias. Entre em contato para regularizar o quanto antes.", plan, amount, tier)
	}
}

// formatAmount renders 1234.5 as "R$ 1.234,50".
func (n *WhatsAppNotifier) formatAmount(v float64) string {
	return n.currency + " " + humanize.FormatFloat("#.###,##", v)
}

func formatDueDate(s string) string {
	if len(s) < len(billing.DateLayout) {
		return s
	}
	// YYYY-MM-DD -> DD/MM/YYYY
	return s[8:10] + "/" + s[5:7] + "/" + s[0:4]
}

func planSuffix(sub *billing.Subscription) string {
	if sub == nil || sub.PlanName == "" {
		return ""
	}
	return fmt.Sprintf(" do plano %s", sub.PlanName)
}

func firstName(c *billing.Client) string {
	name := strings.TrimSpace(c.Name)
	if i := strings.IndexByte(name, ' '); i > 0 {
		return name[:i]
	}
	if name == "" {
		return "cliente"
	}
	return name
}
