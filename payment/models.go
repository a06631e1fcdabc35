package payment

import (
	"github.com/xraph/vitrine/id"
	"github.com/xraph/vitrine/types"
)

// Status is the per-record lifecycle: pending → completed (terminal) or
// pending → failed (terminal; a retry creates a new record).
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Payment is a durable entitlement record for a (user, artifact) pair.
// Multiple historical rows may exist for a pair (failed attempts are kept)
// but at most one may ever be completed. Records are never destroyed.
type Payment struct {
	types.Entity
	ID             id.PaymentID  `json:"id"`
	UserID         id.UserID     `json:"user_id"`
	ArtifactID     id.ArtifactID `json:"artifact_id"`
	Amount         types.Money   `json:"amount"`
	Status         Status        `json:"status"`
	TransactionRef string        `json:"transaction_ref,omitempty"`
	FailureReason  string        `json:"failure_reason,omitempty"`
}

// IsTerminal reports whether the record can no longer transition.
func (p *Payment) IsTerminal() bool {
	return p.Status == StatusCompleted || p.Status == StatusFailed
}

// ListOpts controls payment history listing.
type ListOpts struct {
	Status Status
	Limit  int
	Offset int
}
