package telegram

import (
	"errors"
	"io"
	"testing"

	"billing_notification_bot/internal/app"
	"billing_notification_bot/internal/infra/scheduler"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"
)

type sentMessage struct {
	chatID int64
	text   string
}

type fakeTelegram struct {
	sent []sentMessage
	err  error
}

func (f *fakeTelegram) SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error {
	f.sent = append(f.sent, sentMessage{chatID: recipientChatID, text: text})
	return f.err
}

func TestCycleAlerter(t *testing.T) {
	l := logrus.New()
	l.SetOutput(io.Discard)

	tests := []struct {
		name    string
		trigger scheduler.Trigger
		res     app.CycleResult
		alert   bool
	}{
		{"clean timer cycle", scheduler.TriggerTimer, app.CycleResult{Processed: 2, Sent: 2}, false},
		{"timer cycle with send errors", scheduler.TriggerTimer, app.CycleResult{Processed: 2, Sent: 1, Errors: 1}, true},
		{"start cycle with source failure", scheduler.TriggerStart, app.CycleResult{Err: errors.New("db down")}, true},
		{"manual cycle with errors", scheduler.TriggerManual, app.CycleResult{Errors: 3}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeTelegram{}
			NewCycleAlerter(client, 99, logrus.NewEntry(l)).OnCycle(tt.trigger, tt.res)

			if !tt.alert {
				assert.Empty(t, client.sent)
				return
			}
			require.Len(t, client.sent, 1)
			assert.Equal(t, int64(99), client.sent[0].chatID)
			assert.Contains(t, client.sent[0].text, string(tt.trigger))
			assert.Contains(t, client.sent[0].text, FormatCycle(tt.res))
		})
	}
}

func TestCycleAlerter_DeliveryFailureIsSwallowed(t *testing.T) {
	l := logrus.New()
	l.SetOutput(io.Discard)
	client := &fakeTelegram{err: errors.New("chat not found")}

	assert.NotPanics(t, func() {
		NewCycleAlerter(client, 1, logrus.NewEntry(l)).OnCycle(scheduler.TriggerTimer, app.CycleResult{Errors: 1})
	})
	assert.Len(t, client.sent, 1)
}
