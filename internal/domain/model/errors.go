package model

import "errors"

// Error taxonomy for the credential lifecycle. Adapters and services wrap
// these sentinels with fmt.Errorf("...: %w", ...) so callers classify with
// errors.Is and decide retry behavior: transient failures are retried only
// by the next external scheduler tick, never in-loop.
var (
	// ErrNotFound: the backing store location does not exist.
	ErrNotFound = errors.New("credential record not found")

	// ErrCorruptStore: the store exists but fails schema validation. The
	// only recovery is a full re-push from the primary host.
	ErrCorruptStore = errors.New("credential store corrupt")

	// ErrConfiguration: the refresher could not even load its inputs.
	// Fatal for the cycle, no side effects.
	ErrConfiguration = errors.New("configuration error")

	// ErrTransientNetwork: timeout, connection failure, or a refresh still
	// blocked by the automation challenge. The next tick retries naturally.
	ErrTransientNetwork = errors.New("transient network error")

	// ErrAuthRejected: the provider explicitly rejected the refresh token.
	// Fatal until a human re-authenticates and re-syncs.
	ErrAuthRejected = errors.New("refresh token rejected")

	// ErrWrite: the renewed record could not be persisted. The previous
	// record remains authoritative because writes are all-or-nothing.
	ErrWrite = errors.New("credential write failed")

	// ErrSyncTransport: the remote channel was unreachable during a sync.
	// The execution host keeps its previous credential.
	ErrSyncTransport = errors.New("sync transport failed")

	// ErrWorkerRecycle: the worker could not be restarted after a push.
	// The pushed credential stays in place; no health check runs.
	ErrWorkerRecycle = errors.New("worker recycle failed")

	// ErrHealthCheck: the worker did not acknowledge after a sync. The
	// pushed credential stays in place; a human diagnoses.
	ErrHealthCheck = errors.New("worker health check failed")
)
