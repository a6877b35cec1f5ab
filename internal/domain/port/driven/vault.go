package driven

import (
	"context"

	"github.com/chatgeist/credkeeper/internal/domain/model"
)

// CredentialVault is the primary host's secure local secret store. The
// lifecycle core has read-only capability: interactive logins that create
// or renew the vault entry are external.
type CredentialVault interface {
	// Export reads the current record from the vault and validates it is
	// well-formed with all required fields.
	Export(ctx context.Context) (*model.CredentialRecord, error)
}
