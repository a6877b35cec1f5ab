// Package anthropic implements the TokenExchanger port against the
// provider's OAuth token endpoint. Two strategies are provided: a direct
// redirect-following HTTP client, and a browser-engine-driven client for
// when the edge network serves an automation challenge instead of a token
// payload.
package anthropic

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/chatgeist/credkeeper/internal/domain/model"
)

const (
	// DefaultTokenEndpoint is the provider's OAuth token endpoint.
	DefaultTokenEndpoint = "https://console.anthropic.com/v1/oauth/token"

	// DefaultClientID is the public OAuth client id of the provider's CLI.
	DefaultClientID = "9d1c250a-e61b-44d9-88ed-5944d1962f5e"

	// DefaultProviderOrigin is the page the browser strategy loads first
	// to acquire challenge-clearing state.
	DefaultProviderOrigin = "https://claude.ai"
)

// errMalformedPayload marks a response body that is neither a token
// payload nor an explicit OAuth error, typically an automation-challenge
// interstitial. The refresh service escalates to the next strategy.
var errMalformedPayload = errors.New("response is not a token payload")

// refreshRequest is the JSON body of the refresh grant.
type refreshRequest struct {
	GrantType    string `json:"grant_type"`
	RefreshToken string `json:"refresh_token"`
	ClientID     string `json:"client_id"`
}

func newRefreshRequest(refreshToken, clientID string) refreshRequest {
	return refreshRequest{
		GrantType:    "refresh_token",
		RefreshToken: refreshToken,
		ClientID:     clientID,
	}
}

// oauthError is the provider's structured failure response.
type oauthError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// rejectsGrant reports whether the error code means the refresh token
// itself was rejected, as opposed to a transient server-side condition.
func (e oauthError) rejectsGrant() bool {
	switch strings.ToLower(e.Error) {
	case "invalid_grant", "not_found", "invalid_request":
		return true
	default:
		return false
	}
}

// parseTokenPayload classifies a token-endpoint response body. It returns
// the grant on success, wraps model.ErrAuthRejected when the provider
// explicitly rejected the refresh token, and errMalformedPayload for
// anything else (non-JSON challenge pages included).
func parseTokenPayload(body []byte) (*model.TokenGrant, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '[') {
		return nil, fmt.Errorf("%w: non-JSON body (%d bytes)", errMalformedPayload, len(body))
	}

	var grant model.TokenGrant
	if err := json.Unmarshal(body, &grant); err == nil && grant.AccessToken != "" && grant.ExpiresIn > 0 {
		return &grant, nil
	}

	var oerr oauthError
	if err := json.Unmarshal(body, &oerr); err == nil && oerr.Error != "" {
		if oerr.rejectsGrant() {
			return nil, fmt.Errorf("%w: %s: %s", model.ErrAuthRejected, oerr.Error, oerr.ErrorDescription)
		}
		return nil, fmt.Errorf("%w: %s: %s", errMalformedPayload, oerr.Error, oerr.ErrorDescription)
	}

	return nil, fmt.Errorf("%w: JSON body missing access_token/expires_in", errMalformedPayload)
}
