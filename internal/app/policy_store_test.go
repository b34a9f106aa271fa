package app

import (
	"errors"
	"testing"
	"time"

	"billing_notification_bot/internal/domain/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPolicyStore_RejectsInvalidInitial(t *testing.T) {
	bad := notification.DefaultPolicy()
	bad.OverdueEscalationDays = nil

	_, err := NewPolicyStore(bad)

	assert.True(t, errors.Is(err, notification.ErrInvalidPolicy))
}

func TestPolicyStore_UpdateKeepsPreviousOnError(t *testing.T) {
	store, err := NewPolicyStore(notification.DefaultPolicy())
	require.NoError(t, err)

	lead := 120
	got, err := store.Update(notification.PolicyUpdate{ReminderLeadDays: &lead})

	require.Error(t, err)
	assert.Equal(t, 3, got.ReminderLeadDays)
	assert.Equal(t, 3, store.Get().ReminderLeadDays)
}

func TestPolicyStore_UpdateMergesFields(t *testing.T) {
	store, err := NewPolicyStore(notification.DefaultPolicy())
	require.NoError(t, err)

	interval := 10 * time.Minute
	got, err := store.Update(notification.PolicyUpdate{
		OverdueEscalationDays: []int{2, 5},
		CheckInterval:         &interval,
	})

	require.NoError(t, err)
	assert.Equal(t, []int{2, 5}, got.OverdueEscalationDays)
	assert.Equal(t, interval, store.Get().CheckInterval)
	assert.Equal(t, "08:00", store.Get().BusinessHours.Start)
}

func TestPolicyStore_GetReturnsCopy(t *testing.T) {
	store, err := NewPolicyStore(notification.DefaultPolicy())
	require.NoError(t, err)

	p := store.Get()
	p.OverdueEscalationDays[0] = 99
	p.BusinessHours.Workdays[0] = time.Sunday

	assert.Equal(t, 1, store.Get().OverdueEscalationDays[0])
	assert.Equal(t, time.Monday, store.Get().BusinessHours.Workdays[0])
}
