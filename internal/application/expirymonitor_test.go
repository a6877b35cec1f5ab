package application_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/chatgeist/credkeeper/internal/application"
	"github.com/chatgeist/credkeeper/internal/domain/model"
)

func TestExpiryMonitor_Banding(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		ageDays  int
		wantBand model.AgeBand
	}{
		{name: "10 days old", ageDays: 10, wantBand: model.AgeBandOK},
		{name: "24 days old", ageDays: 24, wantBand: model.AgeBandOK},
		{name: "25 days old", ageDays: 25, wantBand: model.AgeBandWarning},
		{name: "27 days old", ageDays: 27, wantBand: model.AgeBandWarning},
		{name: "30 days old", ageDays: 30, wantBand: model.AgeBandCritical},
		{name: "31 days old", ageDays: 31, wantBand: model.AgeBandCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := application.NewExpiryMonitor(nil, func() time.Time { return now })
			rec := &model.CredentialRecord{
				AccessToken:  "A1",
				RefreshToken: "R1",
				// An expired access token must not affect the band.
				ExpiresAt:    now.Add(-time.Hour).UnixMilli(),
				LastSyncedAt: now.Add(-time.Duration(tt.ageDays) * 24 * time.Hour).UnixMilli(),
			}

			report := m.Check(rec)
			assert.Equal(t, tt.wantBand, report.Band)
		})
	}
}

func TestExpiryMonitor_DaysLeft(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	m := application.NewExpiryMonitor(nil, func() time.Time { return now })

	rec := &model.CredentialRecord{
		AccessToken:  "A1",
		RefreshToken: "R1",
		ExpiresAt:    now.Add(time.Hour).UnixMilli(),
		LastSyncedAt: now.Add(-10 * 24 * time.Hour).UnixMilli(),
	}

	report := m.Check(rec)
	assert.Equal(t, 20, report.DaysLeft)
	assert.Equal(t, 10*24*time.Hour, report.Age)
}

// TestExpiryMonitor_DaysLeftClampedPastLifetime: a token older than its
// lifetime reports zero days left, never a negative count.
func TestExpiryMonitor_DaysLeftClampedPastLifetime(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	m := application.NewExpiryMonitor(nil, func() time.Time { return now })

	rec := &model.CredentialRecord{
		AccessToken:  "A1",
		RefreshToken: "R1",
		ExpiresAt:    now.Add(time.Hour).UnixMilli(),
		LastSyncedAt: now.Add(-35 * 24 * time.Hour).UnixMilli(),
	}

	report := m.Check(rec)
	assert.Equal(t, model.AgeBandCritical, report.Band)
	assert.Equal(t, 0, report.DaysLeft)
}

func TestExpiryMonitor_UnknownWhenNeverSynced(t *testing.T) {
	m := application.NewExpiryMonitor(nil, nil)
	rec := &model.CredentialRecord{
		AccessToken:  "A1",
		RefreshToken: "R1",
		ExpiresAt:    time.Now().Add(time.Hour).UnixMilli(),
	}

	// Checked twice: the band stays unknown both times (the one-time
	// warning is a logging concern, not a result change).
	assert.Equal(t, model.AgeBandUnknown, m.Check(rec).Band)
	assert.Equal(t, model.AgeBandUnknown, m.Check(rec).Band)
}
