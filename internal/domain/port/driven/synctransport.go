package driven

import (
	"context"

	"github.com/chatgeist/credkeeper/internal/domain/model"
)

// SyncTransport pushes a full credential record to an execution host's
// store location over a secure remote channel. If interrupted mid-transfer
// the destination keeps either the old complete file or the new complete
// file, never a corrupt partial one: the transfer writes a sibling temp
// file before an atomic rename, and re-applies restrictive permissions
// after.
type SyncTransport interface {
	Push(ctx context.Context, target model.SyncTarget, rec *model.CredentialRecord) error
}
