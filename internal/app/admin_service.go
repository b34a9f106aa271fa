package app

import (
	"context"
	"fmt"

	"billing_notification_bot/internal/domain/notification"
)

// Custom application-level errors for admin service
var ErrAdminNotAuthorized = fmt.Errorf("performing user is not authorized as an admin")

// SchedulerStatus is the snapshot reported to operators.
type SchedulerStatus struct {
	IsRunning bool
	SentToday int
	LogsCount int
	Totals    Totals
	LastCycle *CycleResult
}

// SchedulerControl is the operator surface of the billing scheduler.
type SchedulerControl interface {
	Start(ctx context.Context) error
	Stop() error
	RunManualCycle(ctx context.Context) (CycleResult, error)
	UpdateConfig(u notification.PolicyUpdate) (notification.Policy, error)
	GetConfig() notification.Policy
	GetStatus() SchedulerStatus
	GetLogs(limit int) []notification.LogEntry
}

// AdminService checks that the caller is the configured admin before touching the scheduler.
type AdminService struct {
	scheduler       SchedulerControl
	adminTelegramID int64
}

func NewAdminService(scheduler SchedulerControl, adminID int64) *AdminService {
	return &AdminService{
		scheduler:       scheduler,
		adminTelegramID: adminID,
	}
}

func (s *AdminService) authorize(performingAdminID int64) error {
	if performingAdminID != s.adminTelegramID {
		return ErrAdminNotAuthorized
	}
	return nil
}

func (s *AdminService) StartScheduler(ctx context.Context, performingAdminID int64) (SchedulerStatus, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return SchedulerStatus{}, err
	}
	if err := s.scheduler.Start(ctx); err != nil {
		return s.scheduler.GetStatus(), err
	}
	return s.scheduler.GetStatus(), nil
}

func (s *AdminService) StopScheduler(performingAdminID int64) error {
	if err := s.authorize(performingAdminID); err != nil {
		return err
	}
	return s.scheduler.Stop()
}

func (s *AdminService) RunCycle(ctx context.Context, performingAdminID int64) (CycleResult, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return CycleResult{}, err
	}
	return s.scheduler.RunManualCycle(ctx)
}

func (s *AdminService) Status(performingAdminID int64) (SchedulerStatus, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return SchedulerStatus{}, err
	}
	return s.scheduler.GetStatus(), nil
}

func (s *AdminService) Logs(performingAdminID int64, limit int) ([]notification.LogEntry, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return nil, err
	}
	return s.scheduler.GetLogs(limit), nil
}

func (s *AdminService) Config(performingAdminID int64) (notification.Policy, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return notification.Policy{}, err
	}
	return s.scheduler.GetConfig(), nil
}

func (s *AdminService) UpdateConfig(performingAdminID int64, u notification.PolicyUpdate) (notification.Policy, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return notification.Policy{}, err
	}
	return s.scheduler.UpdateConfig(u)
}
