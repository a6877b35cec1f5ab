// Package model contains the domain entities for credential lifecycle
// management: the OAuth credential record, refresh grants, audit attempts,
// and the refresh-token age bands.
package model

import (
	"errors"
	"fmt"
	"time"
)

// CredentialRecord is the single persistent entity: one OAuth credential
// for the AI provider. The access token authorizes individual API calls
// (~8h lifetime); the refresh token mints new access tokens (~30 days from
// the last confirmed-fresh login). Timestamps are epoch milliseconds to
// match the provider's on-disk format.
type CredentialRecord struct {
	AccessToken      string   `json:"accessToken"`
	RefreshToken     string   `json:"refreshToken"`
	ExpiresAt        int64    `json:"expiresAt"`
	Scopes           []string `json:"scopes"`
	SubscriptionType string   `json:"subscriptionType"`
	RateLimitTier    string   `json:"rateLimitTier,omitempty"`

	// LastSyncedAt marks the last confirmed-healthy login on the primary
	// host (or a refresh-token rotation, which proves the same thing).
	// Used only for refresh-token age estimation, never for access-token
	// validity. Zero when age tracking has never been established.
	LastSyncedAt int64 `json:"lastSyncedAt,omitempty"`
}

// CredentialEnvelope is the canonical on-disk wrapper around a record,
// matching what the provider's CLI writes to its credentials file.
type CredentialEnvelope struct {
	ClaudeAiOauth CredentialRecord `json:"claudeAiOauth"`
}

// Validate checks that the record carries every field required for a
// refresh exchange. Metadata fields (scopes, subscription, tier) are
// opaque pass-through and may be empty.
func (r *CredentialRecord) Validate() error {
	if r.AccessToken == "" {
		return errors.New("missing accessToken")
	}
	if r.RefreshToken == "" {
		return errors.New("missing refreshToken")
	}
	if r.ExpiresAt <= 0 {
		return fmt.Errorf("invalid expiresAt %d", r.ExpiresAt)
	}
	return nil
}

// TimeLeft returns the remaining access-token validity relative to now.
// Negative when the token has already expired.
func (r *CredentialRecord) TimeLeft(now time.Time) time.Duration {
	return time.UnixMilli(r.ExpiresAt).Sub(now)
}

// RefreshTokenAge returns the refresh token's age relative to now and
// whether age tracking is established. ok is false when LastSyncedAt has
// never been set.
func (r *CredentialRecord) RefreshTokenAge(now time.Time) (age time.Duration, ok bool) {
	if r.LastSyncedAt <= 0 {
		return 0, false
	}
	return now.Sub(time.UnixMilli(r.LastSyncedAt)), true
}

// Clone returns a deep copy. Callers of the store mutate a copy and save
// the whole record; partial-field updates are never exposed.
func (r *CredentialRecord) Clone() *CredentialRecord {
	out := *r
	if r.Scopes != nil {
		out.Scopes = append([]string(nil), r.Scopes...)
	}
	return &out
}

// TokenGrant is a successful response from the token endpoint's refresh
// exchange. RefreshToken is empty unless the provider rotated it.
type TokenGrant struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Apply merges the grant into a copy of rec: the access token and its
// expiry always update; a rotated refresh token also resets LastSyncedAt,
// since rotation is evidence the account is reachable and healthy.
func (g *TokenGrant) Apply(rec *CredentialRecord, now time.Time) *CredentialRecord {
	out := rec.Clone()
	out.AccessToken = g.AccessToken
	out.ExpiresAt = now.UnixMilli() + g.ExpiresIn*1000
	if g.RefreshToken != "" {
		out.RefreshToken = g.RefreshToken
		out.LastSyncedAt = now.UnixMilli()
	}
	return out
}
