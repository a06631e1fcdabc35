package payment

import (
	"context"

	"github.com/xraph/vitrine/id"
	"github.com/xraph/vitrine/types"
)

// Store is the entitlement-record contract. The unified store satisfies it.
//
// Implementations must guarantee that at most one completed record ever
// exists per (user, artifact) pair: MarkCompleted racing on a second pending
// record for an already-completed pair must be a no-op or fail, never a
// second completed row.
type Store interface {
	// RecordAttempt inserts a pending record and returns its ID. No
	// uniqueness is enforced at this step; duplicate pending rows are
	// tolerated.
	RecordAttempt(ctx context.Context, userID id.UserID, artifactID id.ArtifactID, amount types.Money) (id.PaymentID, error)

	// MarkCompleted transitions pending → completed. Idempotent when the
	// record is already completed. Returns a not-found error for unknown
	// record IDs (caller bug, not a user-facing condition).
	MarkCompleted(ctx context.Context, paymentID id.PaymentID, transactionRef string) error

	// MarkFailed transitions pending → failed (terminal). Retries create a
	// new record via RecordAttempt.
	MarkFailed(ctx context.Context, paymentID id.PaymentID, reason string) error

	// HasCompleted reports whether a completed record exists for the pair.
	// Indexed lookup; this is the durable source of truth for access.
	HasCompleted(ctx context.Context, userID id.UserID, artifactID id.ArtifactID) (bool, error)

	// GetPayment retrieves a single record.
	GetPayment(ctx context.Context, paymentID id.PaymentID) (*Payment, error)

	// ListPayments returns a user's payment history, most recent first.
	ListPayments(ctx context.Context, userID id.UserID, opts ListOpts) ([]*Payment, error)
}
