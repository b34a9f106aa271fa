package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"billing_notification_bot/internal/app"
	"billing_notification_bot/internal/domain/notification"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

var (
	ErrAlreadyRunning  = errors.New("scheduler is already running")
	ErrNotRunning      = errors.New("scheduler is not running")
	ErrCycleInProgress = errors.New("cycle already in progress")
)

// Trigger tells what started a cycle.
type Trigger string

const (
	TriggerStart  Trigger = "start"
	TriggerTimer  Trigger = "timer"
	TriggerManual Trigger = "manual"
)

// CycleHook is called after every cycle that actually ran, outside any scheduler lock.
type CycleHook func(trigger Trigger, res app.CycleResult)

// BillingScheduler owns the recurring timer and serializes cycles.
// It is the only long-lived stateful piece; everything it knows is lost on restart.
type BillingScheduler struct {
	mu         sync.Mutex // guards the fields below
	running    bool
	cronEngine *cron.Cron
	entryID    cron.EntryID
	interval   time.Duration
	runCtx     context.Context
	cancel     context.CancelFunc
	stopped    context.Context // done once the last cron engine finished its jobs
	lastCycle  *app.CycleResult
	onCycle    CycleHook

	cycleMu sync.Mutex // single-flight guard, held for the whole cycle

	executor *app.CycleExecutor
	policies *app.PolicyStore
	dedup    *app.DedupCache
	activity *app.ActivityLog
	clock    app.Clock
	logger   *logrus.Entry
}

func NewBillingScheduler(
	executor *app.CycleExecutor,
	policies *app.PolicyStore,
	dedup *app.DedupCache,
	activity *app.ActivityLog,
	clock app.Clock,
	logger *logrus.Entry,
) *BillingScheduler {
	return &BillingScheduler{
		executor: executor,
		policies: policies,
		dedup:    dedup,
		activity: activity,
		clock:    clock,
		logger:   logger,
	}
}

// OnCycleComplete registers a hook run after each executed cycle.
func (s *BillingScheduler) OnCycleComplete(hook CycleHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onCycle = hook
}

// Start runs one cycle immediately and then arms the recurring timer.
func (s *BillingScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.activity.Info("Start requested but the scheduler is already running")
		return ErrAlreadyRunning
	}
	if s.cronEngine != nil {
		s.cronEngine.Stop()
		s.cronEngine = nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.running = true
	s.runCtx = runCtx
	s.cancel = cancel
	s.mu.Unlock()

	policy := s.policies.Get()
	s.activity.Info("Scheduler started, checking every %s", policy.CheckInterval)

	if _, err := s.runCycle(runCtx, TriggerStart); err != nil {
		s.logger.WithError(err).Warn("Initial cycle skipped")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.runCtx != runCtx {
		// stopped while the first cycle was running
		return nil
	}
	s.armLocked(runCtx, s.policies.Get().CheckInterval)
	return nil
}

// Stop disarms the timer and cancels the in-flight cycle, which aborts at its next checkpoint.
// It does not wait for that cycle to return.
func (s *BillingScheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		s.activity.Info("Stop requested but the scheduler is not running")
		return ErrNotRunning
	}
	s.running = false
	s.cancel()
	if s.cronEngine != nil {
		s.stopped = s.cronEngine.Stop()
		s.cronEngine = nil
	}
	s.mu.Unlock()

	s.activity.Info("Scheduler stopped")
	return nil
}

// Shutdown stops the scheduler if needed and waits for running timer jobs to return.
func (s *BillingScheduler) Shutdown(ctx context.Context) error {
	if err := s.Stop(); err != nil && !errors.Is(err, ErrNotRunning) {
		return err
	}
	s.mu.Lock()
	stopped := s.stopped
	s.mu.Unlock()
	if stopped == nil {
		return nil
	}
	select {
	case <-stopped.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunManualCycle runs one cycle now, whatever the scheduler state.
// It is rejected with ErrCycleInProgress while another cycle executes.
func (s *BillingScheduler) RunManualCycle(ctx context.Context) (app.CycleResult, error) {
	res, err := s.runCycle(ctx, TriggerManual)
	if err != nil {
		return res, err
	}
	return res, res.Err
}

// UpdateConfig merges u into the policy. The in-flight cycle keeps its snapshot.
func (s *BillingScheduler) UpdateConfig(u notification.PolicyUpdate) (notification.Policy, error) {
	policy, err := s.policies.Update(u)
	if err != nil {
		s.activity.Error("Config update rejected: %v", err)
		return policy, err
	}
	s.activity.Info("Config updated")

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running && s.cronEngine != nil && policy.CheckInterval != s.interval {
		s.cronEngine.Remove(s.entryID)
		s.scheduleLocked(s.runCtx, policy.CheckInterval)
		s.logger.WithField("interval", policy.CheckInterval).Info("Timer re-armed with new interval")
	}
	return policy, nil
}

func (s *BillingScheduler) GetConfig() notification.Policy {
	return s.policies.Get()
}

func (s *BillingScheduler) GetStatus() app.SchedulerStatus {
	s.mu.Lock()
	status := app.SchedulerStatus{IsRunning: s.running}
	if s.lastCycle != nil {
		last := *s.lastCycle
		status.LastCycle = &last
	}
	s.mu.Unlock()

	status.SentToday = s.dedup.CountOn(s.clock.Now())
	status.LogsCount = s.activity.Len()
	status.Totals = s.activity.Totals()
	return status
}

func (s *BillingScheduler) GetLogs(limit int) []notification.LogEntry {
	return s.activity.Entries(limit)
}

func (s *BillingScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *BillingScheduler) armLocked(runCtx context.Context, interval time.Duration) {
	cronLogger := cron.PrintfLogger(s.logger)
	s.cronEngine = cron.New(
		cron.WithLocation(s.clock.Now().Location()),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
	s.scheduleLocked(runCtx, interval)
	s.cronEngine.Start()
}

func (s *BillingScheduler) scheduleLocked(runCtx context.Context, interval time.Duration) {
	s.interval = interval
	s.entryID = s.cronEngine.Schedule(cron.Every(interval), cron.FuncJob(func() {
		s.tick(runCtx)
	}))
}

func (s *BillingScheduler) tick(runCtx context.Context) {
	if runCtx.Err() != nil || !s.IsRunning() {
		return
	}
	if _, err := s.runCycle(runCtx, TriggerTimer); err != nil {
		s.logger.WithError(err).Info("Timer tick skipped")
	}
}

func (s *BillingScheduler) runCycle(ctx context.Context, trigger Trigger) (app.CycleResult, error) {
	if !s.cycleMu.TryLock() {
		return app.CycleResult{}, ErrCycleInProgress
	}
	defer s.cycleMu.Unlock()

	res := s.executor.RunCycle(ctx, s.policies.Get(), s.clock.Now())
	s.activity.RecordCycle(res)
	if res.OutsideHours {
		s.logger.WithField("trigger", trigger).Debug("Cycle skipped outside business hours")
	} else {
		s.activity.Info("Cycle finished (%s): %s", trigger, res)
	}

	s.mu.Lock()
	s.lastCycle = &res
	hook := s.onCycle
	s.mu.Unlock()

	if hook != nil {
		hook(trigger, res)
	}
	return res, nil
}
