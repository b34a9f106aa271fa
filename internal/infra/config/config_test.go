package config

import (
	"testing"
	"time"

	"billing_notification_bot/internal/domain/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func baseEnv() map[string]string {
	return map[string]string{
		"TELEGRAM_TOKEN":    "token",
		"DATABASE_URL":      "postgres://localhost/billing",
		"ADMIN_TELEGRAM_ID": "12345",
		"WHATSAPP_API_URL":  "http://gateway:3000/",
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envOf(baseEnv()))

	require.NoError(t, err)
	assert.Equal(t, int64(12345), cfg.AdminTelegramID)
	assert.Equal(t, "http://gateway:3000", cfg.WhatsAppAPIURL)
	assert.Equal(t, 15*time.Second, cfg.WhatsAppTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "R$", cfg.CurrencySymbol)
	assert.Equal(t, time.Local, cfg.Location)
	assert.False(t, cfg.Autostart)
	assert.Equal(t, notification.DefaultPolicy(), cfg.Policy)
}

func TestFromEnv_RequiredVariables(t *testing.T) {
	for _, key := range []string{"TELEGRAM_TOKEN", "DATABASE_URL", "ADMIN_TELEGRAM_ID", "WHATSAPP_API_URL"} {
		t.Run(key, func(t *testing.T) {
			env := baseEnv()
			delete(env, key)
			_, err := FromEnv(envOf(env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestFromEnv_PolicyOverrides(t *testing.T) {
	env := baseEnv()
	env["BUSINESS_HOURS_START"] = "09:00"
	env["BUSINESS_HOURS_END"] = "17:30"
	env["BUSINESS_WORKDAYS"] = "mon,wed,fri"
	env["REMINDER_LEAD_DAYS"] = "5"
	env["OVERDUE_ESCALATION_DAYS"] = "2,10"
	env["INTER_MESSAGE_DELAY"] = "500ms"
	env["CHECK_INTERVAL_MINUTES"] = "10"
	env["TIMEZONE"] = "UTC"
	env["AUTOSTART"] = "true"

	cfg, err := FromEnv(envOf(env))

	require.NoError(t, err)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.True(t, cfg.Autostart)
	p := cfg.Policy
	assert.Equal(t, "09:00", p.BusinessHours.Start)
	assert.Equal(t, "17:30", p.BusinessHours.End)
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday, time.Friday}, p.BusinessHours.Workdays)
	assert.Equal(t, 5, p.ReminderLeadDays)
	assert.Equal(t, []int{2, 10}, p.OverdueEscalationDays)
	assert.Equal(t, 500*time.Millisecond, p.InterMessageDelay)
	assert.Equal(t, 10*time.Minute, p.CheckInterval)
}

func TestFromEnv_InvalidValues(t *testing.T) {
	tests := map[string]string{
		"ADMIN_TELEGRAM_ID":      "admin",
		"WHATSAPP_TIMEOUT":       "soon",
		"TIMEZONE":               "Mars/Olympus",
		"AUTOSTART":              "maybe",
		"BUSINESS_WORKDAYS":      "someday",
		"REMINDER_LEAD_DAYS":     "three",
		"CHECK_INTERVAL_MINUTES": "0",
		"BUSINESS_HOURS_END":     "07:00",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			env := baseEnv()
			env[key] = value
			_, err := FromEnv(envOf(env))
			assert.Error(t, err)
		})
	}
}

func TestFromEnv_InvalidPolicyIsTyped(t *testing.T) {
	env := baseEnv()
	env["OVERDUE_ESCALATION_DAYS"] = "7,3"

	_, err := FromEnv(envOf(env))

	assert.ErrorIs(t, err, notification.ErrInvalidPolicy)
}
