package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"billing_notification_bot/internal/domain/notification"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken       string
	DatabaseURL         string
	AdminTelegramID     int64
	WhatsAppAPIURL      string
	WhatsAppAPIUser     string
	WhatsAppAPIPassword string
	WhatsAppTimeout     time.Duration
	LogLevel            string
	Environment         string
	Location            *time.Location
	CompanyName         string
	CurrencySymbol      string
	PolicyFile          string // optional YAML overrides, watched for changes
	Autostart           bool
	Policy              notification.Policy
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from a lookup function so tests can avoid the process env.
func FromEnv(getenv func(string) string) (*AppConfig, error) {
	cfg := &AppConfig{}
	var err error

	cfg.TelegramToken = getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	cfg.DatabaseURL = getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	adminIDStr := getenv("ADMIN_TELEGRAM_ID")
	if adminIDStr == "" {
		return nil, fmt.Errorf("ADMIN_TELEGRAM_ID is not set")
	}
	cfg.AdminTelegramID, err = strconv.ParseInt(adminIDStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
	}

	cfg.WhatsAppAPIURL = strings.TrimRight(getenv("WHATSAPP_API_URL"), "/")
	if cfg.WhatsAppAPIURL == "" {
		return nil, fmt.Errorf("WHATSAPP_API_URL is not set")
	}
	cfg.WhatsAppAPIUser = getenv("WHATSAPP_API_USER")
	cfg.WhatsAppAPIPassword = getenv("WHATSAPP_API_PASSWORD")

	cfg.WhatsAppTimeout = 15 * time.Second
	if v := getenv("WHATSAPP_TIMEOUT"); v != "" {
		cfg.WhatsAppTimeout, err = time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid WHATSAPP_TIMEOUT: %w", err)
		}
	}

	cfg.LogLevel = strings.ToLower(getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.Location = time.Local
	if tz := getenv("TIMEZONE"); tz != "" {
		cfg.Location, err = time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
		}
	}

	cfg.CompanyName = getenv("COMPANY_NAME")
	cfg.CurrencySymbol = getenv("CURRENCY_SYMBOL")
	if cfg.CurrencySymbol == "" {
		cfg.CurrencySymbol = "R$"
	}
	cfg.PolicyFile = getenv("POLICY_FILE")

	if v := getenv("AUTOSTART"); v != "" {
		cfg.Autostart, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid AUTOSTART: %w", err)
		}
	}

	cfg.Policy, err = policyFromEnv(getenv)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// policyFromEnv starts from the defaults and applies every variable that is set.
func policyFromEnv(getenv func(string) string) (notification.Policy, error) {
	var u notification.PolicyUpdate

	if v := getenv("BUSINESS_HOURS_START"); v != "" {
		u.BusinessHoursStart = &v
	}
	if v := getenv("BUSINESS_HOURS_END"); v != "" {
		u.BusinessHoursEnd = &v
	}
	if v := getenv("BUSINESS_WORKDAYS"); v != "" {
		days, err := notification.ParseWorkdays(v)
		if err != nil {
			return notification.Policy{}, fmt.Errorf("invalid BUSINESS_WORKDAYS: %w", err)
		}
		u.Workdays = days
	}
	if v := getenv("REMINDER_LEAD_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return notification.Policy{}, fmt.Errorf("invalid REMINDER_LEAD_DAYS: %w", err)
		}
		u.ReminderLeadDays = &n
	}
	if v := getenv("OVERDUE_ESCALATION_DAYS"); v != "" {
		days, err := notification.ParseDays(v)
		if err != nil {
			return notification.Policy{}, fmt.Errorf("invalid OVERDUE_ESCALATION_DAYS: %w", err)
		}
		u.OverdueEscalationDays = days
	}
	if v := getenv("INTER_MESSAGE_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return notification.Policy{}, fmt.Errorf("invalid INTER_MESSAGE_DELAY: %w", err)
		}
		u.InterMessageDelay = &d
	}
	if v := getenv("CHECK_INTERVAL_MINUTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return notification.Policy{}, fmt.Errorf("invalid CHECK_INTERVAL_MINUTES: %w", err)
		}
		d := time.Duration(n) * time.Minute
		u.CheckInterval = &d
	}

	policy := notification.DefaultPolicy().Apply(u)
	if err := policy.Validate(); err != nil {
		return notification.Policy{}, err
	}
	return policy, nil
}
