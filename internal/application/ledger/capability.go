package ledger

import (
	"github.com/feeledger/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Capability is the explicit proof of authority callers pass into ledger
// operations. Services never consult an ambient session; whoever invokes an
// operation supplies the capability and the service checks it.
type Capability struct {
	// OperatorID identifies the acting operator, recorded on resolutions
	OperatorID uuid.UUID
	// ApprovePayments allows settling, rejecting and bulk-resolving records
	ApprovePayments bool
	// ManageLedger allows enrollment, schedule and discount administration
	ManageLedger bool
}

// RequireApprovePayments returns ErrForbidden unless the capability carries
// the approve-payments grant
func (c Capability) RequireApprovePayments() error {
	if !c.ApprovePayments {
		return shared.ErrForbidden
	}
	return nil
}

// RequireManageLedger returns ErrForbidden unless the capability carries the
// manage-ledger grant
func (c Capability) RequireManageLedger() error {
	if !c.ManageLedger {
		return shared.ErrForbidden
	}
	return nil
}
