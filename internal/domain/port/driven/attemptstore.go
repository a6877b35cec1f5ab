package driven

import (
	"context"

	"github.com/chatgeist/credkeeper/internal/domain/model"
)

// AttemptStore is the audit log of refresh cycles. Recording is
// best-effort: a failed audit write never changes a refresh outcome.
type AttemptStore interface {
	// Record appends one attempt.
	Record(ctx context.Context, attempt model.RefreshAttempt) error

	// Recent returns up to n attempts, newest first.
	Recent(ctx context.Context, n int) ([]model.RefreshAttempt, error)
}
