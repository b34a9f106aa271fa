package app

import (
	"context"
	"errors"
	"testing"

	"billing_notification_bot/internal/domain/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const adminID int64 = 4242

type MockScheduler struct {
	mock.Mock
}

func (m *MockScheduler) Start(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockScheduler) Stop() error {
	return m.Called().Error(0)
}

func (m *MockScheduler) RunManualCycle(ctx context.Context) (CycleResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(CycleResult), args.Error(1)
}

func (m *MockScheduler) UpdateConfig(u notification.PolicyUpdate) (notification.Policy, error) {
	args := m.Called(u)
	return args.Get(0).(notification.Policy), args.Error(1)
}

func (m *MockScheduler) GetConfig() notification.Policy {
	return m.Called().Get(0).(notification.Policy)
}

func (m *MockScheduler) GetStatus() SchedulerStatus {
	return m.Called().Get(0).(SchedulerStatus)
}

func (m *MockScheduler) GetLogs(limit int) []notification.LogEntry {
	return m.Called(limit).Get(0).([]notification.LogEntry)
}

func TestAdminService_RejectsNonAdmin(t *testing.T) {
	sched := new(MockScheduler)
	svc := NewAdminService(sched, adminID)
	ctx := context.Background()

	_, err := svc.StartScheduler(ctx, 1)
	assert.ErrorIs(t, err, ErrAdminNotAuthorized)
	assert.ErrorIs(t, svc.StopScheduler(1), ErrAdminNotAuthorized)
	_, err = svc.RunCycle(ctx, 1)
	assert.ErrorIs(t, err, ErrAdminNotAuthorized)
	_, err = svc.Status(1)
	assert.ErrorIs(t, err, ErrAdminNotAuthorized)
	_, err = svc.Logs(1, 10)
	assert.ErrorIs(t, err, ErrAdminNotAuthorized)
	_, err = svc.Config(1)
	assert.ErrorIs(t, err, ErrAdminNotAuthorized)
	_, err = svc.UpdateConfig(1, notification.PolicyUpdate{})
	assert.ErrorIs(t, err, ErrAdminNotAuthorized)

	sched.AssertNotCalled(t, "Start", mock.Anything)
	sched.AssertNotCalled(t, "Stop")
	sched.AssertNotCalled(t, "RunManualCycle", mock.Anything)
	sched.AssertNotCalled(t, "UpdateConfig", mock.Anything)
}

func TestAdminService_StartReturnsStatus(t *testing.T) {
	sched := new(MockScheduler)
	ctx := context.Background()
	sched.On("Start", ctx).Return(nil).Once()
	sched.On("GetStatus").Return(SchedulerStatus{IsRunning: true, SentToday: 2}).Once()

	status, err := NewAdminService(sched, adminID).StartScheduler(ctx, adminID)

	require.NoError(t, err)
	assert.True(t, status.IsRunning)
	assert.Equal(t, 2, status.SentToday)
	sched.AssertExpectations(t)
}

func TestAdminService_PassesSchedulerErrors(t *testing.T) {
	sched := new(MockScheduler)
	ctx := context.Background()
	busy := errors.New("cycle already in progress")
	sched.On("RunManualCycle", ctx).Return(CycleResult{}, busy).Once()
	sched.On("Stop").Return(errors.New("not running")).Once()

	svc := NewAdminService(sched, adminID)

	_, err := svc.RunCycle(ctx, adminID)
	assert.ErrorIs(t, err, busy)
	assert.EqualError(t, svc.StopScheduler(adminID), "not running")
	sched.AssertExpectations(t)
}

func TestAdminService_ConfigAndLogs(t *testing.T) {
	sched := new(MockScheduler)
	lead := 5
	update := notification.PolicyUpdate{ReminderLeadDays: &lead}
	updated := notification.DefaultPolicy()
	updated.ReminderLeadDays = lead
	entries := []notification.LogEntry{{Level: notification.LevelInfo, Message: "Scheduler started"}}

	sched.On("UpdateConfig", update).Return(updated, nil).Once()
	sched.On("GetConfig").Return(updated).Once()
	sched.On("GetLogs", 15).Return(entries).Once()

	svc := NewAdminService(sched, adminID)

	got, err := svc.UpdateConfig(adminID, update)
	require.NoError(t, err)
	assert.Equal(t, 5, got.ReminderLeadDays)

	cfg, err := svc.Config(adminID)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.ReminderLeadDays)

	logs, err := svc.Logs(adminID, 15)
	require.NoError(t, err)
	assert.Equal(t, entries, logs)
	sched.AssertExpectations(t)
}
