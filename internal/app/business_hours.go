package app

import (
	"time"

	"billing_notification_bot/internal/domain/notification"
)

// IsWithinBusinessHours reports whether now falls on a workday inside the [start, end] window.
// now must already be in the operating location; no conversion happens here.
func IsWithinBusinessHours(now time.Time, hours notification.BusinessHours) bool {
	if !hours.IsWorkday(now.Weekday()) {
		return false
	}
	minutes := now.Hour()*60 + now.Minute()
	return minutes >= hours.StartMinutes() && minutes <= hours.EndMinutes()
}
