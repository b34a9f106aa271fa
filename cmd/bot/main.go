package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"billing_notification_bot/internal/app"
	"billing_notification_bot/internal/infra/config"
	idb "billing_notification_bot/internal/infra/database"
	"billing_notification_bot/internal/infra/logger"
	"billing_notification_bot/internal/infra/policyfile"
	"billing_notification_bot/internal/infra/scheduler"
	"billing_notification_bot/internal/infra/telegram"
	"billing_notification_bot/internal/infra/whatsapp"

	"gopkg.in/telebot.v3"
)

func main() {
	fmt.Println("Billing Notification Bot starting...")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Could not load application configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg)
	mainLogger := logger.Component("main")
	mainLogger.Infof("Configuration loaded. LogLevel: %s, Environment: %s, Timezone: %s, Admin ID: %d",
		cfg.LogLevel, cfg.Environment, cfg.Location, cfg.AdminTelegramID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Database Connection
	db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		mainLogger.Fatalf("Could not connect to database: %v", err)
	}
	defer db.Close()
	mainLogger.Info("Database connection established successfully.")

	invoiceRepo := idb.NewPostgresInvoiceRepository(db)

	policies, err := app.NewPolicyStore(cfg.Policy)
	if err != nil {
		mainLogger.Fatalf("Invalid notification policy: %v", err)
	}

	clock := app.SystemClock{Location: cfg.Location}
	waClient := whatsapp.NewGatewayClient(cfg.WhatsAppAPIURL, cfg.WhatsAppAPIUser, cfg.WhatsAppAPIPassword,
		cfg.WhatsAppTimeout, logger.Component("whatsapp"))
	notifier := app.NewWhatsAppNotifier(waClient, cfg.CompanyName, cfg.CurrencySymbol, logger.Component("notifier"))

	dedup := app.NewDedupCache()
	activity := app.NewActivityLog(app.DefaultLogCapacity, clock, logger.Component("activity"))
	executor := app.NewCycleExecutor(invoiceRepo, notifier, dedup, activity, clock, logger.Component("cycle"))
	billingScheduler := scheduler.NewBillingScheduler(executor, policies, dedup, activity, clock, logger.Component("scheduler"))
	mainLogger.Info("Billing scheduler initialized.")

	if cfg.PolicyFile != "" {
		watcher := policyfile.NewWatcher(cfg.PolicyFile, billingScheduler, logger.Component("policyfile"))
		if err := watcher.Apply(); err != nil {
			mainLogger.Fatalf("Could not apply policy file %s: %v", cfg.PolicyFile, err)
		}
		go func() {
			if err := watcher.Run(ctx); err != nil {
				mainLogger.WithError(err).Error("Policy file watcher stopped")
			}
		}()
	}

	// Initialize Telegram Bot
	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) { // Global error handler
			entry := logger.Component("telebot").WithError(err)
			if c != nil && c.Sender() != nil && c.Chat() != nil {
				entry = entry.WithField("sender_id", c.Sender().ID).WithField("chat_id", c.Chat().ID)
			}
			entry.Error("Telegram handler error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		mainLogger.Fatalf("Could not create Telegram bot: %v", err)
	}

	alerter := telegram.NewCycleAlerter(telegram.NewTelebotAdapter(bot), cfg.AdminTelegramID, logger.Component("alerts"))
	billingScheduler.OnCycleComplete(alerter.OnCycle)

	adminService := app.NewAdminService(billingScheduler, cfg.AdminTelegramID)
	telegram.RegisterBotCommands(bot, cfg, logger.Component("telegram"))
	telegram.RegisterAdminHandlers(ctx, bot, adminService, cfg.AdminTelegramID, logger.Component("telegram"))
	mainLogger.Info("Admin command handlers registered.")

	go bot.Start()

	if cfg.Autostart {
		go func() {
			if err := billingScheduler.Start(ctx); err != nil && !errors.Is(err, scheduler.ErrAlreadyRunning) {
				mainLogger.WithError(err).Error("Could not start billing scheduler")
			}
		}()
	}

	mainLogger.Info("Application setup complete.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	mainLogger.Info("Shutting down application...")
	bot.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := billingScheduler.Shutdown(shutdownCtx); err != nil {
		mainLogger.WithError(err).Warn("Scheduler did not stop in time")
	}
	cancel()
	mainLogger.Info("Application shut down gracefully.")
}
