package driven

import (
	"context"

	"github.com/chatgeist/credkeeper/internal/domain/model"
)

// WorkerController manages the sandboxed worker process on an execution
// host. A long-running worker does not observe external file changes on
// its own, so after a credential push it must be recycled.
type WorkerController interface {
	// Recycle restarts the worker so it re-reads its environment and the
	// credential store.
	Recycle(ctx context.Context, target model.SyncTarget) error

	// HealthCheck issues a trivial prompt through the recycled worker
	// and returns its free-form reply.
	HealthCheck(ctx context.Context, target model.SyncTarget, prompt string) (string, error)
}

// WorkerInvoker runs one call against the local sandboxed worker. The
// credential injector decorates implementations, loading the store and
// filling call.AccessToken immediately before each invocation.
type WorkerInvoker interface {
	Invoke(ctx context.Context, call model.WorkerCall) (string, error)
}
