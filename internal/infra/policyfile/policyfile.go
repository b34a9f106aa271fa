// Package policyfile loads notification policy overrides from a YAML file and re-applies
// them whenever the file changes.
package policyfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"billing_notification_bot/internal/domain/notification"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"go.yaml.in/yaml/v3"
)

const defaultDebounce = 500 * time.Millisecond

// Document mirrors the YAML layout. Omitted keys leave the current value alone.
type Document struct {
	BusinessHours *struct {
		Start    *string  `yaml:"start"`
		End      *string  `yaml:"end"`
		Workdays []string `yaml:"workdays"`
	} `yaml:"business_hours"`
	ReminderLeadDays           *int    `yaml:"reminder_lead_days"`
	OverdueEscalationDays      []int   `yaml:"overdue_escalation_days"`
	MaxMessagesPerClientPerDay *int    `yaml:"max_messages_per_client_per_day"`
	InterMessageDelay          *string `yaml:"inter_message_delay"`
	CheckIntervalMinutes       *int    `yaml:"check_interval_minutes"`
}

// Parse decodes a YAML document into a policy update. Unknown keys are rejected.
func Parse(data []byte) (notification.PolicyUpdate, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return notification.PolicyUpdate{}, nil
		}
		return notification.PolicyUpdate{}, fmt.Errorf("decode policy file: %w", err)
	}

	var u notification.PolicyUpdate
	if bh := doc.BusinessHours; bh != nil {
		u.BusinessHoursStart = bh.Start
		u.BusinessHoursEnd = bh.End
		if bh.Workdays != nil {
			days, err := notification.ParseWorkdays(strings.Join(bh.Workdays, ","))
			if err != nil {
				return notification.PolicyUpdate{}, fmt.Errorf("business_hours.workdays: %w", err)
			}
			u.Workdays = days
		}
	}
	u.ReminderLeadDays = doc.ReminderLeadDays
	u.OverdueEscalationDays = doc.OverdueEscalationDays
	u.MaxMessagesPerClientPerDay = doc.MaxMessagesPerClientPerDay
	if doc.InterMessageDelay != nil {
		d, err := time.ParseDuration(*doc.InterMessageDelay)
		if err != nil {
			return notification.PolicyUpdate{}, fmt.Errorf("inter_message_delay: %w", err)
		}
		u.InterMessageDelay = &d
	}
	if doc.CheckIntervalMinutes != nil {
		d := time.Duration(*doc.CheckIntervalMinutes) * time.Minute
		u.CheckInterval = &d
	}
	return u, nil
}

// Load reads and parses the file at path.
func Load(path string) (notification.PolicyUpdate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return notification.PolicyUpdate{}, fmt.Errorf("read policy file: %w", err)
	}
	return Parse(data)
}

// Applier receives updates loaded from the file.
type Applier interface {
	UpdateConfig(u notification.PolicyUpdate) (notification.Policy, error)
}

// Watcher re-applies the policy file after it changes on disk.
type Watcher struct {
	path     string
	target   Applier
	logger   *logrus.Entry
	debounce time.Duration
}

func NewWatcher(path string, target Applier, logger *logrus.Entry) *Watcher {
	return &Watcher{path: path, target: target, logger: logger, debounce: defaultDebounce}
}

// Apply loads the file once and hands the update to the target.
func (w *Watcher) Apply() error {
	u, err := Load(w.path)
	if err != nil {
		return err
	}
	if u.IsEmpty() {
		return nil
	}
	if _, err := w.target.UpdateConfig(u); err != nil {
		return err
	}
	return nil
}

// Run watches the file's directory until ctx is done. Editors often replace files
// instead of writing in place, so the directory is watched and events are matched by name.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	dir, file := filepath.Split(w.path)
	if dir == "" {
		dir = "."
	}
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.logger.WithField("path", w.path).Info("Watching policy file")

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return errors.New("policy watcher closed")
			}
			if !strings.EqualFold(filepath.Base(ev.Name), file) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				timer.Reset(w.debounce)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return errors.New("policy watcher closed")
			}
			w.logger.WithError(err).Warn("Policy watcher error")
		case <-timer.C:
			if err := w.Apply(); err != nil {
				w.logger.WithError(err).Warn("Policy file ignored, keeping current policy")
				continue
			}
			w.logger.Info("Policy file re-applied")
		}
	}
}
