package telegram

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"billing_notification_bot/internal/app"
	"billing_notification_bot/internal/domain/notification"
)

var weekdayShort = map[time.Weekday]string{
	time.Sunday: "dom", time.Monday: "seg", time.Tuesday: "ter", time.Wednesday: "qua",
	time.Thursday: "qui", time.Friday: "sex", time.Saturday: "sáb",
}

var levelIcon = map[notification.LogLevel]string{
	notification.LevelInfo:    "ℹ️",
	notification.LevelSuccess: "✅",
	notification.LevelError:   "❌",
}

// setters maps /set field names to parsers producing a partial policy update.
var setters = map[string]func(value string) (notification.PolicyUpdate, error){
	"start": func(v string) (notification.PolicyUpdate, error) {
		if _, err := notification.ParseClock(v); err != nil {
			return notification.PolicyUpdate{}, err
		}
		return notification.PolicyUpdate{BusinessHoursStart: &v}, nil
	},
	"end": func(v string) (notification.PolicyUpdate, error) {
		if _, err := notification.ParseClock(v); err != nil {
			return notification.PolicyUpdate{}, err
		}
		return notification.PolicyUpdate{BusinessHoursEnd: &v}, nil
	},
	"workdays": func(v string) (notification.PolicyUpdate, error) {
		days, err := notification.ParseWorkdays(v)
		if err != nil {
			return notification.PolicyUpdate{}, err
		}
		return notification.PolicyUpdate{Workdays: days}, nil
	},
	"lead_days": func(v string) (notification.PolicyUpdate, error) {
		n, err := strconv.Atoi(v)
		if err != nil {
			return notification.PolicyUpdate{}, fmt.Errorf("lead_days must be a number")
		}
		return notification.PolicyUpdate{ReminderLeadDays: &n}, nil
	},
	"escalation_days": func(v string) (notification.PolicyUpdate, error) {
		days, err := notification.ParseDays(v)
		if err != nil {
			return notification.PolicyUpdate{}, err
		}
		return notification.PolicyUpdate{OverdueEscalationDays: days}, nil
	},
	"delay": func(v string) (notification.PolicyUpdate, error) {
		d, err := time.ParseDuration(v)
		if err != nil {
			return notification.PolicyUpdate{}, fmt.Errorf("delay must be a duration such as 3s")
		}
		return notification.PolicyUpdate{InterMessageDelay: &d}, nil
	},
	"interval": func(v string) (notification.PolicyUpdate, error) {
		n, err := strconv.Atoi(v)
		if err != nil {
			return notification.PolicyUpdate{}, fmt.Errorf("interval must be a number of minutes")
		}
		d := time.Duration(n) * time.Minute
		return notification.PolicyUpdate{CheckInterval: &d}, nil
	},
}

// SettableFields lists the field names accepted by /set.
func SettableFields() []string {
	fields := make([]string, 0, len(setters))
	for name := range setters {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return fields
}

// ParseSetCommand turns "/set <field> <value>" arguments into a policy update.
func ParseSetCommand(field, value string) (notification.PolicyUpdate, error) {
	parse, ok := setters[strings.ToLower(field)]
	if !ok {
		return notification.PolicyUpdate{}, fmt.Errorf("unknown field %q", field)
	}
	return parse(strings.TrimSpace(value))
}

func FormatStatus(s app.SchedulerStatus) string {
	var b strings.Builder
	state := "parado"
	if s.IsRunning {
		state = "em execução"
	}
	b.WriteString(fmt.Sprintf("Agendador: %s\n", state))
	b.WriteString(fmt.Sprintf("Clientes notificados hoje: %d\n", s.SentToday))
	b.WriteString(fmt.Sprintf("Registros: %d\n", s.LogsCount))
	b.WriteString(fmt.Sprintf("Totais: %d ciclos, %d enviados, %d ignorados, %d erros\n",
		s.Totals.Cycles, s.Totals.Sent, s.Totals.Skipped, s.Totals.Errors))
	if s.LastCycle != nil {
		b.WriteString(fmt.Sprintf("Último ciclo (%s): %s",
			s.LastCycle.StartedAt.Format("02/01 15:04"), FormatCycle(*s.LastCycle)))
	}
	return b.String()
}

func FormatCycle(r app.CycleResult) string {
	switch {
	case r.OutsideHours:
		return "fora do horário comercial, nada enviado"
	case r.Err != nil:
		return fmt.Sprintf("falhou: %v", r.Err)
	}
	s := fmt.Sprintf("%d processadas, %d enviadas, %d ignoradas, %d erros", r.Processed, r.Sent, r.Skipped, r.Errors)
	if r.Cancelled {
		s += " (interrompido)"
	}
	return s
}

func FormatPolicy(p notification.Policy) string {
	days := make([]string, 0, len(p.BusinessHours.Workdays))
	for _, d := range p.BusinessHours.Workdays {
		days = append(days, weekdayShort[d])
	}
	tiers := make([]string, 0, len(p.OverdueEscalationDays))
	for _, d := range p.OverdueEscalationDays {
		tiers = append(tiers, strconv.Itoa(d))
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Horário: %s–%s (%s)\n", p.BusinessHours.Start, p.BusinessHours.End, strings.Join(days, ",")))
	b.WriteString(fmt.Sprintf("Lembrete: até %d dias antes do vencimento\n", p.ReminderLeadDays))
	b.WriteString(fmt.Sprintf("Cobrança de atraso nos dias: %s\n", strings.Join(tiers, ",")))
	b.WriteString(fmt.Sprintf("Máximo por cliente/dia: %d\n", p.MaxMessagesPerClientPerDay))
	b.WriteString(fmt.Sprintf("Intervalo entre mensagens: %s\n", p.InterMessageDelay))
	b.WriteString(fmt.Sprintf("Verificação a cada: %s", p.CheckInterval))
	return b.String()
}

func FormatLogs(entries []notification.LogEntry) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(fmt.Sprintf("%s %s %s\n", e.Timestamp.Format("02/01 15:04:05"), levelIcon[e.Level], e.Message))
	}
	return strings.TrimRight(b.String(), "\n")
}
