package model

import "time"

// AgeBand classifies the refresh token's remaining lifetime. Banding is
// advisory: it never blocks or alters a refresh attempt.
type AgeBand string

const (
	// AgeBandUnknown: LastSyncedAt was never established.
	AgeBandUnknown AgeBand = "unknown"
	// AgeBandOK: under 25 days old, plenty of lifetime left.
	AgeBandOK AgeBand = "ok"
	// AgeBandWarning: 25-30 days old, re-sync soon.
	AgeBandWarning AgeBand = "warning"
	// AgeBandCritical: 30 days or older; refresh attempts should be
	// assumed likely to fail with an auth rejection.
	AgeBandCritical AgeBand = "critical"
)

const (
	// RefreshTokenLifetime is how long the provider honors a refresh
	// token after the last confirmed-fresh login.
	RefreshTokenLifetime = 30 * 24 * time.Hour

	// RefreshTokenWarnAge is where the warning band starts.
	RefreshTokenWarnAge = 25 * 24 * time.Hour
)

// AgeReport is the advisory view over a record's refresh-token age.
type AgeReport struct {
	Band     AgeBand
	Age      time.Duration
	DaysLeft int
}

// BandFor places a refresh-token age into its band.
func BandFor(age time.Duration) AgeBand {
	switch {
	case age >= RefreshTokenLifetime:
		return AgeBandCritical
	case age >= RefreshTokenWarnAge:
		return AgeBandWarning
	default:
		return AgeBandOK
	}
}
