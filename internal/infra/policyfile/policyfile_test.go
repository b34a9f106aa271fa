package policyfile

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"billing_notification_bot/internal/domain/notification"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingApplier struct {
	mu      sync.Mutex
	updates []notification.PolicyUpdate
	err     error
}

func (a *recordingApplier) UpdateConfig(u notification.PolicyUpdate) (notification.Policy, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.updates = append(a.updates, u)
	return notification.DefaultPolicy().Apply(u), a.err
}

func (a *recordingApplier) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.updates)
}

func (a *recordingApplier) last() notification.PolicyUpdate {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.updates[len(a.updates)-1]
}

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func TestParse_FullDocument(t *testing.T) {
	doc := []byte(`
business_hours:
  start: "09:00"
  end: "17:00"
  workdays: [mon, tue, wed, thu, fri, sat]
reminder_lead_days: 5
overdue_escalation_days: [1, 5, 10]
max_messages_per_client_per_day: 1
inter_message_delay: 2s
check_interval_minutes: 10
`)

	u, err := Parse(doc)

	require.NoError(t, err)
	require.NotNil(t, u.BusinessHoursStart)
	assert.Equal(t, "09:00", *u.BusinessHoursStart)
	assert.Equal(t, "17:00", *u.BusinessHoursEnd)
	assert.Len(t, u.Workdays, 6)
	assert.Equal(t, time.Saturday, u.Workdays[5])
	assert.Equal(t, 5, *u.ReminderLeadDays)
	assert.Equal(t, []int{1, 5, 10}, u.OverdueEscalationDays)
	assert.Equal(t, 1, *u.MaxMessagesPerClientPerDay)
	assert.Equal(t, 2*time.Second, *u.InterMessageDelay)
	assert.Equal(t, 10*time.Minute, *u.CheckInterval)
}

func TestParse_PartialDocumentLeavesOthersUnset(t *testing.T) {
	u, err := Parse([]byte("reminder_lead_days: 2\n"))

	require.NoError(t, err)
	assert.Equal(t, 2, *u.ReminderLeadDays)
	assert.Nil(t, u.BusinessHoursStart)
	assert.Nil(t, u.CheckInterval)
	assert.Nil(t, u.OverdueEscalationDays)
}

func TestParse_Errors(t *testing.T) {
	for name, doc := range map[string]string{
		"unknown key":      "reminder_days: 2\n",
		"bad duration":     "inter_message_delay: soon\n",
		"bad workday":      "business_hours:\n  workdays: [someday]\n",
		"wrong value type": "reminder_lead_days: many\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestParse_EmptyDocument(t *testing.T) {
	u, err := Parse(nil)

	require.NoError(t, err)
	assert.True(t, u.IsEmpty())
}

func TestWatcher_Apply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("check_interval_minutes: 15\n"), 0o644))
	target := &recordingApplier{}

	require.NoError(t, NewWatcher(path, target, quietLogger()).Apply())

	require.Equal(t, 1, target.count())
	assert.Equal(t, 15*time.Minute, *target.last().CheckInterval)
}

func TestWatcher_ApplySkipsEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("# nothing yet\n"), 0o644))
	target := &recordingApplier{}

	require.NoError(t, NewWatcher(path, target, quietLogger()).Apply())

	assert.Zero(t, target.count())
}

func TestWatcher_ApplyMissingFile(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "absent.yaml"), &recordingApplier{}, quietLogger())

	assert.Error(t, w.Apply())
}

func TestWatcher_RunReappliesOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("reminder_lead_days: 1\n"), 0o644))
	target := &recordingApplier{}
	w := NewWatcher(path, target, quietLogger())
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("reminder_lead_days: 6\n"), 0o644))

	assert.Eventually(t, func() bool { return target.count() > 0 }, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, 6, *target.last().ReminderLeadDays)

	cancel()
	assert.NoError(t, <-done)
}
