package driven

import (
	"context"

	"github.com/chatgeist/credkeeper/internal/domain/model"
)

// TokenExchanger performs one refresh exchange against the provider's
// token endpoint. Implementations are interchangeable transport
// strategies (plain HTTP client, browser-engine-driven client) tried in
// a fixed fallback order by the refresh service. Each implementation
// bounds its own timeout.
type TokenExchanger interface {
	// Name identifies the strategy in logs and audit rows.
	Name() string

	// Exchange POSTs the refresh grant and returns the token payload.
	// It wraps model.ErrAuthRejected when the provider explicitly
	// rejects the refresh token; any other failure (timeout, connection
	// error, automation-challenge interstitial) is retryable by the
	// next strategy in order.
	Exchange(ctx context.Context, refreshToken string) (*model.TokenGrant, error)
}
