package application

import (
	"context"
	"fmt"
	"time"

	"github.com/chatgeist/credkeeper/internal/domain/model"
	"github.com/chatgeist/credkeeper/internal/domain/port/driven"
)

// StatusReport is the operator-facing view of one store's credential.
type StatusReport struct {
	TimeLeft       time.Duration
	ExpiresAt      time.Time
	Age            model.AgeReport
	Subscription   string
	RecentAttempts []model.RefreshAttempt
}

// StatusService assembles the status query: access-token time-to-expiry,
// refresh-token age band, and the most recent audit rows.
type StatusService struct {
	store    driven.CredentialStore
	attempts driven.AttemptStore
	monitor  *ExpiryMonitor
	now      func() time.Time
}

// NewStatusService creates a StatusService. attempts may be nil; now may
// be nil for time.Now.
func NewStatusService(store driven.CredentialStore, attempts driven.AttemptStore, monitor *ExpiryMonitor, now func() time.Time) *StatusService {
	if now == nil {
		now = time.Now
	}
	return &StatusService{store: store, attempts: attempts, monitor: monitor, now: now}
}

// Report loads the record and assembles the status view. recentN bounds
// the audit rows included; zero omits them.
func (s *StatusService) Report(ctx context.Context, recentN int) (*StatusReport, error) {
	rec, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrConfiguration, err)
	}

	report := &StatusReport{
		TimeLeft:     rec.TimeLeft(s.now()),
		ExpiresAt:    time.UnixMilli(rec.ExpiresAt),
		Age:          s.monitor.Check(rec),
		Subscription: rec.SubscriptionType,
	}

	if s.attempts != nil && recentN > 0 {
		attempts, err := s.attempts.Recent(ctx, recentN)
		if err != nil {
			return nil, fmt.Errorf("load recent attempts: %w", err)
		}
		report.RecentAttempts = attempts
	}

	return report, nil
}
