package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/chatgeist/credkeeper/internal/domain/model"
	"github.com/chatgeist/credkeeper/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.TokenExchanger = (*BrowserExchanger)(nil)

// BrowserExchanger performs the refresh exchange from inside a headless
// browser. It first loads the provider's site so the edge network's
// challenge runs and deposits its clearing state (cookies, TLS session),
// then issues the same POST via fetch from within that page context.
// This is the escalation path when DirectExchanger gets an interstitial
// instead of a token payload.
type BrowserExchanger struct {
	endpoint string
	clientID string
	origin   string
	timeout  time.Duration
}

// NewBrowserExchanger creates the browser strategy. timeout bounds the
// whole exchange including browser startup and the warm-up navigation.
func NewBrowserExchanger(endpoint, clientID, origin string, timeout time.Duration) *BrowserExchanger {
	return &BrowserExchanger{
		endpoint: endpoint,
		clientID: clientID,
		origin:   origin,
		timeout:  timeout,
	}
}

// Name implements driven.TokenExchanger.
func (e *BrowserExchanger) Name() string { return "browser" }

// Exchange implements driven.TokenExchanger.
func (e *BrowserExchanger) Exchange(ctx context.Context, refreshToken string) (*model.TokenGrant, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	body, err := json.Marshal(newRefreshRequest(refreshToken, e.clientID))
	if err != nil {
		return nil, fmt.Errorf("marshal refresh grant: %w", err)
	}

	// fetch resolves to the raw response text; classification of the body
	// happens back in Go so both strategies share one parser.
	script := fmt.Sprintf(
		`fetch(%q, {method: "POST", headers: {"Content-Type": "application/json"}, body: %q}).then(r => r.text())`,
		e.endpoint, string(body),
	)

	var raw string
	err = chromedp.Run(browserCtx,
		chromedp.Navigate(e.origin),
		chromedp.WaitReady("body", chromedp.ByQuery),
		// The challenge verdict lands shortly after document ready; fetch
		// before it settles and the POST gets the interstitial again.
		chromedp.Sleep(3*time.Second),
		chromedp.Evaluate(script, &raw, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("browser exchange via %s: %w", e.origin, err)
	}

	grant, err := parseTokenPayload([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("browser exchange: %w", err)
	}
	return grant, nil
}
