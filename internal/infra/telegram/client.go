// internal/infra/telegram/client.go
package telegram

import (
	"fmt"

	"billing_notification_bot/internal/app"
	domaintelegram "billing_notification_bot/internal/domain/telegram"
	"billing_notification_bot/internal/infra/scheduler"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// TelebotAdapter implements domaintelegram.Client on top of a telebot bot.
type TelebotAdapter struct {
	bot *telebot.Bot
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// SendMessage sends text to a chat. Link previews are off unless options say otherwise.
func (tba *TelebotAdapter) SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error {
	if options == nil {
		options = &telebot.SendOptions{DisableWebPagePreview: true}
	}
	_, err := tba.bot.Send(&telebot.Chat{ID: recipientChatID}, text, options)
	return err
}

// CycleAlerter pushes a message to the admin when an unattended cycle fails or has send errors.
// Manual cycles are skipped because the admin already gets the result as a reply.
type CycleAlerter struct {
	client  domaintelegram.Client
	adminID int64
	logger  *logrus.Entry
}

func NewCycleAlerter(client domaintelegram.Client, adminID int64, logger *logrus.Entry) *CycleAlerter {
	return &CycleAlerter{client: client, adminID: adminID, logger: logger}
}

// OnCycle matches scheduler.CycleHook.
func (a *CycleAlerter) OnCycle(trigger scheduler.Trigger, res app.CycleResult) {
	if trigger == scheduler.TriggerManual || (res.Err == nil && res.Errors == 0) {
		return
	}
	text := fmt.Sprintf("⚠️ Ciclo de cobrança (%s): %s\nUse /logs para detalhes.", trigger, FormatCycle(res))
	if err := a.client.SendMessage(a.adminID, text, nil); err != nil {
		a.logger.WithError(err).WithField("cycle_id", res.ID).Warn("Failed to deliver admin alert")
	}
}
