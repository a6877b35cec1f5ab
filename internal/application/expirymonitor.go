// Package application contains the use-case orchestration services for
// the credential lifecycle: refresh, sync, status, and the per-call
// credential injector.
package application

import (
	"log/slog"
	"sync"
	"time"

	"github.com/chatgeist/credkeeper/internal/domain/model"
)

// ExpiryMonitor is a read-only advisory layer over a record's
// LastSyncedAt. It bands the refresh token's remaining lifetime and logs
// accordingly, but never blocks or alters a refresh outcome.
type ExpiryMonitor struct {
	logger *slog.Logger
	now    func() time.Time

	// The "age tracking never established" warning fires once per
	// process, not once per tick.
	unknownOnce sync.Once
}

// NewExpiryMonitor creates a monitor. logger and now may be nil, which
// selects slog.Default and time.Now.
func NewExpiryMonitor(logger *slog.Logger, now func() time.Time) *ExpiryMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &ExpiryMonitor{logger: logger, now: now}
}

// Check bands the record's refresh-token age and logs the verdict.
func (m *ExpiryMonitor) Check(rec *model.CredentialRecord) model.AgeReport {
	age, ok := rec.RefreshTokenAge(m.now())
	if !ok {
		m.unknownOnce.Do(func() {
			m.logger.Warn("refresh token age tracking never established; run a sync to stamp lastSyncedAt")
		})
		return model.AgeReport{Band: model.AgeBandUnknown}
	}

	daysLeft := int((model.RefreshTokenLifetime - age) / (24 * time.Hour))
	if daysLeft < 0 {
		daysLeft = 0
	}
	report := model.AgeReport{
		Band:     model.BandFor(age),
		Age:      age,
		DaysLeft: daysLeft,
	}

	switch report.Band {
	case model.AgeBandOK:
		m.logger.Info("refresh token age ok",
			"age_days", int(age.Hours()/24),
			"days_left", report.DaysLeft,
		)
	case model.AgeBandWarning:
		m.logger.Warn("refresh token nearing expiry, re-sync soon",
			"age_days", int(age.Hours()/24),
			"days_left", report.DaysLeft,
		)
	case model.AgeBandCritical:
		m.logger.Error("refresh token past expected lifetime; refresh attempts will likely be rejected",
			"age_days", int(age.Hours()/24),
		)
	}

	return report
}
