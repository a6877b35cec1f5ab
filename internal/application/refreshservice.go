package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chatgeist/credkeeper/internal/domain/model"
	"github.com/chatgeist/credkeeper/internal/domain/port/driven"
)

// DefaultRefreshWindow is how close to expiry the access token must be
// before a refresh exchange is attempted. Above it a cycle is a no-op.
const DefaultRefreshWindow = 30 * time.Minute

// RefreshService renews the access token before it expires. It is
// idempotent and safe to invoke at any time; the external scheduler
// guarantees at most one concurrent invocation per execution host, so the
// service does no locking of its own. Failures are never retried within
// one invocation: the next scheduled tick retries naturally, which gives
// implicit backoff.
type RefreshService struct {
	store      driven.CredentialStore
	exchangers []driven.TokenExchanger
	attempts   driven.AttemptStore
	monitor    *ExpiryMonitor
	window     time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// NewRefreshService creates a RefreshService. exchangers are tried in the
// given fallback order, each with its own bounded timeout. attempts may be
// nil to disable auditing; logger and now may be nil for the defaults.
func NewRefreshService(
	store driven.CredentialStore,
	exchangers []driven.TokenExchanger,
	attempts driven.AttemptStore,
	monitor *ExpiryMonitor,
	window time.Duration,
	logger *slog.Logger,
	now func() time.Time,
) *RefreshService {
	if window <= 0 {
		window = DefaultRefreshWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &RefreshService{
		store:      store,
		exchangers: exchangers,
		attempts:   attempts,
		monitor:    monitor,
		window:     window,
		logger:     logger,
		now:        now,
	}
}

// Run performs one refresh cycle and returns the audited attempt. force
// skips the time-left check (the operator's manual-refresh action). The
// returned error classifies the failure; a skip returns a nil error.
func (s *RefreshService) Run(ctx context.Context, force bool) (*model.RefreshAttempt, error) {
	rec, err := s.store.Load(ctx)
	if err != nil {
		// No record means nothing to refresh and nothing to mutate.
		return nil, fmt.Errorf("%w: %v", model.ErrConfiguration, err)
	}

	if s.monitor != nil {
		s.monitor.Check(rec)
	}

	now := s.now()
	timeLeft := rec.TimeLeft(now)

	if !force && timeLeft > s.window {
		attempt := s.record(ctx, model.RefreshAttempt{
			OccurredAt: now,
			Outcome:    model.OutcomeSkipped,
			TimeLeft:   timeLeft,
			Detail:     fmt.Sprintf("access token valid for %s", timeLeft.Round(time.Second)),
		})
		s.logger.Info("refresh skipped, access token still fresh",
			"time_left", timeLeft.Round(time.Second),
		)
		return attempt, nil
	}

	if !force && s.rejectionStands(ctx, rec) {
		attempt := s.record(ctx, model.RefreshAttempt{
			OccurredAt: now,
			Outcome:    model.OutcomeRejected,
			TimeLeft:   timeLeft,
			Detail:     "standing rejection, awaiting re-sync",
		})
		s.logger.Error("refresh token still rejected; awaiting re-login and re-sync")
		return attempt, fmt.Errorf("%w: standing rejection, awaiting re-sync", model.ErrAuthRejected)
	}

	grant, strategy, exchangeErr := s.exchange(ctx, rec.RefreshToken)

	switch {
	case exchangeErr == nil:
		renewed := grant.Apply(rec, now)
		if err := s.store.Save(ctx, renewed); err != nil {
			attempt := s.record(ctx, model.RefreshAttempt{
				OccurredAt: now,
				Outcome:    model.OutcomeFatal,
				Strategy:   strategy,
				TimeLeft:   timeLeft,
				Detail:     err.Error(),
			})
			s.logger.Error("refresh succeeded but persisting failed; previous record remains authoritative",
				"strategy", strategy, "error", err,
			)
			return attempt, err
		}

		attempt := s.record(ctx, model.RefreshAttempt{
			OccurredAt: now,
			Outcome:    model.OutcomeSuccess,
			Strategy:   strategy,
			TimeLeft:   timeLeft,
			Detail:     fmt.Sprintf("rotated=%v", grant.RefreshToken != ""),
		})
		s.logger.Info("access token refreshed",
			"strategy", strategy,
			"expires_at", time.UnixMilli(renewed.ExpiresAt).UTC().Format(time.RFC3339),
			"refresh_token_rotated", grant.RefreshToken != "",
		)
		return attempt, nil

	case errors.Is(exchangeErr, model.ErrAuthRejected):
		attempt := s.record(ctx, model.RefreshAttempt{
			OccurredAt: now,
			Outcome:    model.OutcomeRejected,
			Strategy:   strategy,
			TimeLeft:   timeLeft,
			Detail:     exchangeErr.Error(),
		})
		s.logger.Error("refresh token rejected; re-login and re-sync required",
			"strategy", strategy, "error", exchangeErr,
		)
		return attempt, exchangeErr

	default:
		attempt := s.record(ctx, model.RefreshAttempt{
			OccurredAt: now,
			Outcome:    model.OutcomeTransient,
			Strategy:   strategy,
			TimeLeft:   timeLeft,
			Detail:     exchangeErr.Error(),
		})
		s.logger.Warn("refresh failed, will retry on next scheduled tick",
			"strategy", strategy, "error", exchangeErr,
		)
		return attempt, fmt.Errorf("%w: %v", model.ErrTransientNetwork, exchangeErr)
	}
}

// exchange tries each strategy in the fixed fallback order and returns
// the first valid token payload. An explicit auth rejection stops the
// sequence immediately: escalating transports cannot fix a dead token.
func (s *RefreshService) exchange(ctx context.Context, refreshToken string) (*model.TokenGrant, string, error) {
	var lastErr error
	lastStrategy := ""

	for _, ex := range s.exchangers {
		grant, err := ex.Exchange(ctx, refreshToken)
		if err == nil {
			return grant, ex.Name(), nil
		}
		if errors.Is(err, model.ErrAuthRejected) {
			return nil, ex.Name(), err
		}

		s.logger.Warn("refresh strategy failed, escalating",
			"strategy", ex.Name(), "error", err,
		)
		lastErr = err
		lastStrategy = ex.Name()
	}

	if lastErr == nil {
		lastErr = errors.New("no refresh strategies configured")
	}
	return nil, lastStrategy, lastErr
}

// rejectionStands reports whether the most recent audit row is a rejection
// that no re-sync has cleared. A rejected refresh token stays rejected
// until the record is rewritten, so re-posting it every tick is pointless;
// a SyncAgent push or a token rotation stamps lastSyncedAt after the
// rejection and lifts the latch. Without an audit store the latch cannot
// persist across invocations.
func (s *RefreshService) rejectionStands(ctx context.Context, rec *model.CredentialRecord) bool {
	if s.attempts == nil {
		return false
	}
	recent, err := s.attempts.Recent(ctx, 1)
	if err != nil || len(recent) == 0 {
		return false
	}
	last := recent[0]
	if last.Outcome != model.OutcomeRejected {
		return false
	}
	return rec.LastSyncedAt <= 0 || !time.UnixMilli(rec.LastSyncedAt).After(last.OccurredAt)
}

// record appends the attempt to the audit log. Auditing is best-effort:
// a failed write is logged and the attempt still returned.
func (s *RefreshService) record(ctx context.Context, attempt model.RefreshAttempt) *model.RefreshAttempt {
	if s.attempts != nil {
		if err := s.attempts.Record(ctx, attempt); err != nil {
			s.logger.Warn("recording refresh attempt failed", "error", err)
		}
	}
	return &attempt
}
