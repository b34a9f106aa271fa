package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"billing_notification_bot/internal/app"
	"billing_notification_bot/internal/infra/scheduler"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const (
	msgUnauthorized = "Erro: você não tem permissão para executar este comando."
	defaultLogLimit = 15
	maxLogLimit     = 100
)

// RegisterAdminHandlers registers the scheduler control commands.
// Every command is restricted to the configured admin Telegram ID.
func RegisterAdminHandlers(ctx context.Context, b *telebot.Bot, adminService *app.AdminService, adminTelegramID int64, baseLogger *logrus.Entry) {
	guard := func(command string, next func(c telebot.Context, log *logrus.Entry) error) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			handlerLogger := baseLogger.WithFields(logrus.Fields{
				"handler":   command,
				"sender_id": c.Sender().ID,
			})
			handlerLogger.Info("Command received")
			if c.Sender().ID != adminTelegramID {
				handlerLogger.Warn("Unauthorized access attempt")
				return c.Send(msgUnauthorized)
			}
			return next(c, handlerLogger)
		}
	}

	b.Handle("/scheduler_start", guard("/scheduler_start", func(c telebot.Context, log *logrus.Entry) error {
		status, err := adminService.StartScheduler(ctx, c.Sender().ID)
		if err != nil {
			if errors.Is(err, scheduler.ErrAlreadyRunning) {
				log.WithError(err).Warn("Scheduler already running")
				return c.Send("O agendador já está em execução.")
			}
			return replyError(c, log, "Falha ao iniciar o agendador", err)
		}
		log.Info("Scheduler started by admin")
		return c.Send("Agendador iniciado.\n\n" + FormatStatus(status))
	}))

	b.Handle("/scheduler_stop", guard("/scheduler_stop", func(c telebot.Context, log *logrus.Entry) error {
		if err := adminService.StopScheduler(c.Sender().ID); err != nil {
			if errors.Is(err, scheduler.ErrNotRunning) {
				log.WithError(err).Warn("Scheduler not running")
				return c.Send("O agendador não está em execução.")
			}
			return replyError(c, log, "Falha ao parar o agendador", err)
		}
		log.Info("Scheduler stopped by admin")
		return c.Send("Agendador parado. Um ciclo em andamento será interrompido antes do próximo envio.")
	}))

	b.Handle("/run_cycle", guard("/run_cycle", func(c telebot.Context, log *logrus.Entry) error {
		res, err := adminService.RunCycle(ctx, c.Sender().ID)
		if err != nil {
			if errors.Is(err, scheduler.ErrCycleInProgress) {
				log.WithError(err).Warn("Manual cycle rejected")
				return c.Send("Já existe um ciclo em andamento. Tente novamente em instantes.")
			}
			return replyError(c, log, "Falha ao executar o ciclo", err)
		}
		log.WithFields(logrus.Fields{"sent": res.Sent, "errors": res.Errors}).Info("Manual cycle finished")
		return c.Send("Ciclo manual concluído.\n" + FormatCycle(res))
	}))

	b.Handle("/status", guard("/status", func(c telebot.Context, log *logrus.Entry) error {
		status, err := adminService.Status(c.Sender().ID)
		if err != nil {
			return replyError(c, log, "Falha ao obter o status", err)
		}
		return c.Send(FormatStatus(status))
	}))

	b.Handle("/logs", guard("/logs", func(c telebot.Context, log *logrus.Entry) error {
		limit := defaultLogLimit
		if args := c.Args(); len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return c.Send("Uso: /logs [quantidade]")
			}
			limit = n
		}
		if limit > maxLogLimit {
			limit = maxLogLimit
		}
		entries, err := adminService.Logs(c.Sender().ID, limit)
		if err != nil {
			return replyError(c, log, "Falha ao obter os registros", err)
		}
		if len(entries) == 0 {
			return c.Send("Nenhum registro ainda.")
		}
		return c.Send(FormatLogs(entries))
	}))

	b.Handle("/config", guard("/config", func(c telebot.Context, log *logrus.Entry) error {
		policy, err := adminService.Config(c.Sender().ID)
		if err != nil {
			return replyError(c, log, "Falha ao obter a configuração", err)
		}
		return c.Send(FormatPolicy(policy))
	}))

	b.Handle("/set", guard("/set", func(c telebot.Context, log *logrus.Entry) error {
		args := c.Args()
		// Expected format: /set <field> <value>
		if len(args) != 2 {
			return c.Send("Uso: /set <campo> <valor>\nCampos: " + strings.Join(SettableFields(), ", "))
		}
		update, err := ParseSetCommand(args[0], args[1])
		if err != nil {
			log.WithError(err).Warn("Invalid /set arguments")
			return c.Send(fmt.Sprintf("Erro: %s", err.Error()))
		}
		policy, err := adminService.UpdateConfig(c.Sender().ID, update)
		if err != nil {
			log.WithError(err).Warn("Config update rejected")
			return c.Send(fmt.Sprintf("Configuração rejeitada: %s", err.Error()))
		}
		log.WithField("field", args[0]).Info("Config updated by admin")
		return c.Send("Configuração atualizada. Vale a partir do próximo ciclo.\n\n" + FormatPolicy(policy))
	}))
}

func replyError(c telebot.Context, log *logrus.Entry, prefix string, err error) error {
	if errors.Is(err, app.ErrAdminNotAuthorized) {
		log.WithError(err).Warn("Admin not authorized (service level)")
		return c.Send(msgUnauthorized)
	}
	log.WithError(err).Error(prefix)
	return c.Send(fmt.Sprintf("%s: %s", prefix, err.Error()))
}
