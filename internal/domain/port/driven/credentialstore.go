// Package driven defines the driven ports (secondary adapters' contracts)
// for the credential lifecycle core. Every component receives an explicit
// injected handle to its collaborators so tests can substitute in-memory
// implementations.
package driven

import (
	"context"

	"github.com/chatgeist/credkeeper/internal/domain/model"
)

// CredentialStore is file-backed persistence of one credential record.
// Implementations must guarantee all-or-nothing visibility: a concurrent
// Load observes either the previous complete record or the new complete
// record, never a mixture. Readers and the refresher are independent
// processes, so this guarantee comes from atomic replacement of the
// backing location, not in-process locking.
type CredentialStore interface {
	// Load returns the current record. It wraps model.ErrNotFound when
	// the backing location is missing and model.ErrCorruptStore when the
	// contents fail schema validation.
	Load(ctx context.Context) (*model.CredentialRecord, error)

	// Save persists the full record atomically and narrows permissions
	// to the owning process. It wraps model.ErrWrite on failure, in
	// which case the previous record remains authoritative.
	Save(ctx context.Context, rec *model.CredentialRecord) error
}
