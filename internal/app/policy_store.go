package app

import (
	"sync"

	"billing_notification_bot/internal/domain/notification"
)

// PolicyStore holds the current policy. Readers always get a copy.
type PolicyStore struct {
	mu     sync.RWMutex
	policy notification.Policy
}

// NewPolicyStore validates the initial policy before accepting it.
func NewPolicyStore(initial notification.Policy) (*PolicyStore, error) {
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	return &PolicyStore{policy: initial.Clone()}, nil
}

func (s *PolicyStore) Get() notification.Policy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy.Clone()
}

// Update merges u into the current policy. On validation failure the previous policy
// stays in effect and is returned together with the error.
func (s *PolicyStore) Update(u notification.PolicyUpdate) (notification.Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	merged := s.policy.Apply(u)
	if err := merged.Validate(); err != nil {
		return s.policy.Clone(), err
	}
	s.policy = merged
	return merged.Clone(), nil
}
