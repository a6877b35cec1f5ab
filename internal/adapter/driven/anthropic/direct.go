package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/chatgeist/credkeeper/internal/domain/model"
	"github.com/chatgeist/credkeeper/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.TokenExchanger = (*DirectExchanger)(nil)

// maxResponseBytes bounds how much of a response body is read; a real
// token payload is well under 1 KiB, challenge pages can be arbitrarily
// large.
const maxResponseBytes = 1 << 20

// DirectExchanger POSTs the refresh grant with a plain redirect-following
// HTTP client. It is tried first: cheapest when the edge network is not
// challenging automation.
type DirectExchanger struct {
	endpoint string
	clientID string
	client   *http.Client
}

// NewDirectExchanger creates the direct strategy with the given bounded
// timeout. The http.Client follows redirects, which the edge network uses
// when routing the token endpoint.
func NewDirectExchanger(endpoint, clientID string, timeout time.Duration) *DirectExchanger {
	return &DirectExchanger{
		endpoint: endpoint,
		clientID: clientID,
		client:   &http.Client{Timeout: timeout},
	}
}

// Name implements driven.TokenExchanger.
func (e *DirectExchanger) Name() string { return "direct" }

// Exchange implements driven.TokenExchanger.
func (e *DirectExchanger) Exchange(ctx context.Context, refreshToken string) (*model.TokenGrant, error) {
	body, err := json.Marshal(newRefreshRequest(refreshToken, e.clientID))
	if err != nil {
		return nil, fmt.Errorf("marshal refresh grant: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post refresh grant: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}

	grant, err := parseTokenPayload(payload)
	if err != nil {
		return nil, fmt.Errorf("token endpoint returned HTTP %d: %w", resp.StatusCode, err)
	}
	return grant, nil
}
