package app

import (
	"fmt"
	"sync"

	"billing_notification_bot/internal/domain/notification"

	"github.com/sirupsen/logrus"
)

// DefaultLogCapacity is the number of activity entries kept in memory.
const DefaultLogCapacity = 100

// Totals are counters accumulated since the process started.
type Totals struct {
	Cycles  int
	Sent    int
	Skipped int
	Errors  int
}

// ActivityLog is a bounded ring of recent scheduler events plus running counters.
// Every entry is mirrored to logrus so nothing is lost when the ring wraps.
type ActivityLog struct {
	mu       sync.Mutex
	entries  []notification.LogEntry
	head     int // index of the next write
	size     int
	totals   Totals
	clock    Clock
	logger   *logrus.Entry
	capacity int
}

func NewActivityLog(capacity int, clock Clock, logger *logrus.Entry) *ActivityLog {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &ActivityLog{
		entries:  make([]notification.LogEntry, capacity),
		clock:    clock,
		logger:   logger,
		capacity: capacity,
	}
}

func (l *ActivityLog) Info(format string, args ...interface{}) {
	l.add(notification.LevelInfo, fmt.Sprintf(format, args...))
}

func (l *ActivityLog) Success(format string, args ...interface{}) {
	l.add(notification.LevelSuccess, fmt.Sprintf(format, args...))
}

func (l *ActivityLog) Error(format string, args ...interface{}) {
	l.add(notification.LevelError, fmt.Sprintf(format, args...))
}

func (l *ActivityLog) add(level notification.LogLevel, msg string) {
	entry := notification.LogEntry{Timestamp: l.clock.Now(), Level: level, Message: msg}

	l.mu.Lock()
	l.entries[l.head] = entry
	l.head = (l.head + 1) % l.capacity
	if l.size < l.capacity {
		l.size++
	}
	l.mu.Unlock()

	if l.logger == nil {
		return
	}
	switch level {
	case notification.LevelError:
		l.logger.Error(msg)
	default:
		l.logger.WithField("level_tag", string(level)).Info(msg)
	}
}

// Entries returns up to limit entries, most recent first. limit <= 0 returns all of them.
func (l *ActivityLog) Entries(limit int) []notification.LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if limit <= 0 || limit > l.size {
		limit = l.size
	}
	out := make([]notification.LogEntry, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (l.head - i + l.capacity) % l.capacity
		out = append(out, l.entries[idx])
	}
	return out
}

// Len returns the number of entries currently held.
func (l *ActivityLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.size
}

// RecordCycle adds a finished cycle to the running counters.
func (l *ActivityLog) RecordCycle(res CycleResult) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.totals.Cycles++
	l.totals.Sent += res.Sent
	l.totals.Skipped += res.Skipped
	l.totals.Errors += res.Errors
}

// Totals returns a snapshot of the running counters.
func (l *ActivityLog) Totals() Totals {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totals
}
