// internal/domain/notification/policy.go
package notification

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ErrInvalidPolicy is returned when a policy or an update to it fails validation.
var ErrInvalidPolicy = errors.New("invalid notification policy")

const clockLayout = "15:04"

// BusinessHours is the window in which clients may be contacted.
// Start and End are "HH:MM" and both bounds are inclusive.
type BusinessHours struct {
	Start    string         `json:"start"`
	End      string         `json:"end"`
	Workdays []time.Weekday `json:"workdays"`
}

// Policy holds the tunable scheduler settings. A cycle copies it once at start.
type Policy struct {
	BusinessHours              BusinessHours `json:"business_hours"`
	ReminderLeadDays           int           `json:"reminder_lead_days"`
	OverdueEscalationDays      []int         `json:"overdue_escalation_days"`
	MaxMessagesPerClientPerDay int           `json:"max_messages_per_client_per_day"`
	InterMessageDelay          time.Duration `json:"inter_message_delay"`
	CheckInterval              time.Duration `json:"check_interval"`
}

// DefaultPolicy returns the settings used when nothing else is configured.
func DefaultPolicy() Policy {
	return Policy{
		BusinessHours: BusinessHours{
			Start:    "08:00",
			End:      "18:00",
			Workdays: []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		},
		ReminderLeadDays:           3,
		OverdueEscalationDays:      []int{1, 3, 7, 15, 30},
		MaxMessagesPerClientPerDay: 1,
		InterMessageDelay:          3 * time.Second,
		CheckInterval:              5 * time.Minute,
	}
}

// Clone returns a deep copy so callers cannot mutate shared slices.
func (p Policy) Clone() Policy {
	out := p
	out.BusinessHours.Workdays = append([]time.Weekday(nil), p.BusinessHours.Workdays...)
	out.OverdueEscalationDays = append([]int(nil), p.OverdueEscalationDays...)
	return out
}

// Validate checks every field and reports all problems at once.
func (p Policy) Validate() error {
	err := validation.ValidateStruct(&p,
		validation.Field(&p.BusinessHours),
		validation.Field(&p.ReminderLeadDays, validation.Min(0), validation.Max(90)),
		validation.Field(&p.OverdueEscalationDays, validation.Required, validation.By(ascendingPositive)),
		// the dedup cache is day-granular, so one message per client per day is all it can enforce
		validation.Field(&p.MaxMessagesPerClientPerDay, validation.Required, validation.In(1).Error("only 1 is supported")),
		validation.Field(&p.InterMessageDelay, validation.Min(time.Duration(0)), validation.Max(5*time.Minute)),
		validation.Field(&p.CheckInterval, validation.Required, validation.By(wholeMinutes)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}
	return nil
}

// Validate implements validation.Validatable.
func (h BusinessHours) Validate() error {
	err := validation.ValidateStruct(&h,
		validation.Field(&h.Start, validation.Required, validation.By(clockTime)),
		validation.Field(&h.End, validation.Required, validation.By(clockTime)),
		validation.Field(&h.Workdays, validation.Required),
	)
	if err != nil {
		return err
	}
	start, _ := ParseClock(h.Start)
	end, _ := ParseClock(h.End)
	if end < start {
		return validation.Errors{"end": errors.New("must not be before start")}
	}
	return nil
}

// StartMinutes returns the window start as minutes after midnight.
func (h BusinessHours) StartMinutes() int {
	m, _ := ParseClock(h.Start)
	return m
}

// EndMinutes returns the window end as minutes after midnight.
func (h BusinessHours) EndMinutes() int {
	m, _ := ParseClock(h.End)
	return m
}

// IsWorkday reports whether d is one of the configured workdays.
func (h BusinessHours) IsWorkday(d time.Weekday) bool {
	for _, w := range h.Workdays {
		if w == d {
			return true
		}
	}
	return false
}

// IsEscalationDay reports whether daysOverdue is one of the escalation tiers.
func (p Policy) IsEscalationDay(daysOverdue int) bool {
	for _, d := range p.OverdueEscalationDays {
		if d == daysOverdue {
			return true
		}
	}
	return false
}

// PolicyUpdate is a partial change to a Policy. Nil fields are left untouched.
type PolicyUpdate struct {
	BusinessHoursStart         *string
	BusinessHoursEnd           *string
	Workdays                   []time.Weekday
	ReminderLeadDays           *int
	OverdueEscalationDays      []int
	MaxMessagesPerClientPerDay *int
	InterMessageDelay          *time.Duration
	CheckInterval              *time.Duration
}

// IsEmpty reports whether the update changes nothing.
func (u PolicyUpdate) IsEmpty() bool {
	return u.BusinessHoursStart == nil && u.BusinessHoursEnd == nil && u.Workdays == nil &&
		u.ReminderLeadDays == nil && u.OverdueEscalationDays == nil &&
		u.MaxMessagesPerClientPerDay == nil && u.InterMessageDelay == nil && u.CheckInterval == nil
}

// Apply returns a copy of p with the update merged in. The result is not validated.
func (p Policy) Apply(u PolicyUpdate) Policy {
	out := p.Clone()
	if u.BusinessHoursStart != nil {
		out.BusinessHours.Start = *u.BusinessHoursStart
	}
	if u.BusinessHoursEnd != nil {
		out.BusinessHours.End = *u.BusinessHoursEnd
	}
	if u.Workdays != nil {
		out.BusinessHours.Workdays = append([]time.Weekday(nil), u.Workdays...)
	}
	if u.ReminderLeadDays != nil {
		out.ReminderLeadDays = *u.ReminderLeadDays
	}
	if u.OverdueEscalationDays != nil {
		out.OverdueEscalationDays = append([]int(nil), u.OverdueEscalationDays...)
	}
	if u.MaxMessagesPerClientPerDay != nil {
		out.MaxMessagesPerClientPerDay = *u.MaxMessagesPerClientPerDay
	}
	if u.InterMessageDelay != nil {
		out.InterMessageDelay = *u.InterMessageDelay
	}
	if u.CheckInterval != nil {
		out.CheckInterval = *u.CheckInterval
	}
	return out
}

// ParseClock converts "HH:MM" to minutes after midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse(clockLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// ParseWorkdays parses a comma separated list such as "mon,tue,wed" or "1,2,3" (0 is Sunday).
func ParseWorkdays(s string) ([]time.Weekday, error) {
	var out []time.Weekday
	seen := make(map[time.Weekday]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		d, ok := weekdayNames[part]
		if !ok {
			n, err := strconv.Atoi(part)
			if err != nil || n < 0 || n > 6 {
				return nil, fmt.Errorf("invalid weekday %q", part)
			}
			d = time.Weekday(n)
		}
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("at least one workday is required")
	}
	return out, nil
}

// ParseDays parses a comma separated list of integers such as "1,3,7,15,30".
func ParseDays(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid day offset %q", part)
		}
		out = append(out, n)
	}
	return out, nil
}

func clockTime(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	_, err := ParseClock(s)
	return err
}

func ascendingPositive(value interface{}) error {
	days, _ := value.([]int)
	for i, d := range days {
		if d <= 0 {
			return errors.New("must contain only positive day offsets")
		}
		if i > 0 && d <= days[i-1] {
			return errors.New("must be strictly ascending")
		}
	}
	return nil
}

func wholeMinutes(value interface{}) error {
	d, _ := value.(time.Duration)
	if d < time.Minute {
		return errors.New("must be at least one minute")
	}
	if d%time.Minute != 0 {
		return errors.New("must be a whole number of minutes")
	}
	return nil
}
