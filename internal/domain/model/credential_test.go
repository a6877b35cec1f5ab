package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

func TestCredentialRecord_Validate(t *testing.T) {
	valid := CredentialRecord{AccessToken: "A", RefreshToken: "R", ExpiresAt: 1}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*CredentialRecord)
	}{
		{name: "missing access token", mutate: func(r *CredentialRecord) { r.AccessToken = "" }},
		{name: "missing refresh token", mutate: func(r *CredentialRecord) { r.RefreshToken = "" }},
		{name: "zero expiresAt", mutate: func(r *CredentialRecord) { r.ExpiresAt = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := valid
			tt.mutate(&rec)
			assert.Error(t, rec.Validate())
		})
	}
}

func TestCredentialRecord_TimeLeft(t *testing.T) {
	rec := CredentialRecord{ExpiresAt: now.Add(45 * time.Minute).UnixMilli()}
	assert.Equal(t, 45*time.Minute, rec.TimeLeft(now))

	expired := CredentialRecord{ExpiresAt: now.Add(-time.Second).UnixMilli()}
	assert.Negative(t, expired.TimeLeft(now))
}

func TestCredentialRecord_RefreshTokenAge(t *testing.T) {
	rec := CredentialRecord{LastSyncedAt: now.Add(-72 * time.Hour).UnixMilli()}
	age, ok := rec.RefreshTokenAge(now)
	require.True(t, ok)
	assert.Equal(t, 72*time.Hour, age)

	_, ok = (&CredentialRecord{}).RefreshTokenAge(now)
	assert.False(t, ok)
}

func TestCredentialRecord_CloneIsDeep(t *testing.T) {
	rec := &CredentialRecord{AccessToken: "A", Scopes: []string{"user:inference"}}
	clone := rec.Clone()

	clone.Scopes[0] = "changed"
	assert.Equal(t, "user:inference", rec.Scopes[0])
}

func TestTokenGrant_Apply(t *testing.T) {
	rec := &CredentialRecord{
		AccessToken:  "A1",
		RefreshToken: "R1",
		ExpiresAt:    now.Add(-time.Minute).UnixMilli(),
		LastSyncedAt: now.Add(-5 * 24 * time.Hour).UnixMilli(),
	}

	t.Run("without rotation", func(t *testing.T) {
		grant := &TokenGrant{AccessToken: "A2", ExpiresIn: 28800}
		out := grant.Apply(rec, now)

		assert.Equal(t, "A2", out.AccessToken)
		assert.Equal(t, now.UnixMilli()+28800_000, out.ExpiresAt)
		assert.Equal(t, "R1", out.RefreshToken)
		assert.Equal(t, rec.LastSyncedAt, out.LastSyncedAt)
		assert.Equal(t, "A1", rec.AccessToken, "Apply must not mutate the input")
	})

	t.Run("with rotation", func(t *testing.T) {
		grant := &TokenGrant{AccessToken: "A2", RefreshToken: "R2", ExpiresIn: 28800}
		out := grant.Apply(rec, now)

		assert.Equal(t, "R2", out.RefreshToken)
		assert.Equal(t, now.UnixMilli(), out.LastSyncedAt)
	})
}

func TestBandFor(t *testing.T) {
	assert.Equal(t, AgeBandOK, BandFor(10*24*time.Hour))
	assert.Equal(t, AgeBandWarning, BandFor(27*24*time.Hour))
	assert.Equal(t, AgeBandCritical, BandFor(31*24*time.Hour))
	assert.Equal(t, AgeBandWarning, BandFor(RefreshTokenWarnAge))
	assert.Equal(t, AgeBandCritical, BandFor(RefreshTokenLifetime))
}
