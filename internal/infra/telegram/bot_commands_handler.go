// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"fmt"
	"strings"

	"billing_notification_bot/internal/infra/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func RegisterBotCommands(
	b *telebot.Bot,
	cfg *config.AppConfig, // For AdminTelegramID
	baseLogger *logrus.Entry,
) {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")

	b.Handle("/start", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/start").WithField("sender_id", senderID)
		logCtx.Info("Processing /start command")

		if senderID == cfg.AdminTelegramID {
			logCtx.Info("User identified as Admin")
			return c.Send(fmt.Sprintf("Olá, %s! Sou o painel de cobranças por WhatsApp. Use /help para ver os comandos.", c.Sender().FirstName))
		}

		logCtx.Info("User is unknown")
		return c.Send("Este bot é de uso restrito da administração.")
	})

	b.Handle("/help", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/help").WithField("sender_id", senderID)
		logCtx.Info("Processing /help command")

		if senderID != cfg.AdminTelegramID {
			logCtx.Info("User is unknown, sending restricted help.")
			return c.Send("Nenhum comando disponível para você.")
		}

		var helpText strings.Builder
		helpText.WriteString("Comandos disponíveis:\n\n")
		helpText.WriteString("`/scheduler_start`\n - Inicia o agendador e executa um ciclo imediatamente.\n\n")
		helpText.WriteString("`/scheduler_stop`\n - Para o agendador. Um ciclo em andamento é interrompido antes do próximo envio.\n\n")
		helpText.WriteString("`/run_cycle`\n - Executa um ciclo agora, mesmo com o agendador parado.\n\n")
		helpText.WriteString("`/status`\n - Estado do agendador e contadores.\n\n")
		helpText.WriteString("`/logs [n]`\n - Últimos registros de atividade.\n\n")
		helpText.WriteString("`/config`\n - Política atual.\n\n")
		helpText.WriteString("`/set <campo> <valor>`\n - Altera a política. Campos: `" + strings.Join(SettableFields(), ", ") + "`.\n\n")
		helpText.WriteString("`/help`\n - Mostra esta mensagem.")
		return c.Send(helpText.String(), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})
}
