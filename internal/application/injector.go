package application

import (
	"context"
	"log/slog"

	"github.com/chatgeist/credkeeper/internal/domain/model"
	"github.com/chatgeist/credkeeper/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.WorkerInvoker = (*CredentialInjector)(nil)

// CredentialInjector decorates a WorkerInvoker: immediately before every
// call it loads the store and supplies the current access token for that
// single call only. The token is never cached across calls, since the
// refresher may rotate it concurrently.
//
// If the store cannot be read the call proceeds with whatever ambient
// credential configuration already exists (fail-open): availability over
// strictness, and the only intentionally quiet failure in this subsystem.
type CredentialInjector struct {
	store  driven.CredentialStore
	next   driven.WorkerInvoker
	logger *slog.Logger
}

// NewCredentialInjector wraps next with per-call credential injection.
func NewCredentialInjector(store driven.CredentialStore, next driven.WorkerInvoker, logger *slog.Logger) *CredentialInjector {
	if logger == nil {
		logger = slog.Default()
	}
	return &CredentialInjector{store: store, next: next, logger: logger}
}

// Invoke implements driven.WorkerInvoker.
func (i *CredentialInjector) Invoke(ctx context.Context, call model.WorkerCall) (string, error) {
	rec, err := i.store.Load(ctx)
	if err != nil {
		i.logger.Warn("credential store unreadable, invoking with ambient credentials", "error", err)
		return i.next.Invoke(ctx, call)
	}

	call.AccessToken = rec.AccessToken
	return i.next.Invoke(ctx, call)
}
