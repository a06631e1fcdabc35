// Package processor defines the external charge collaborator contract and
// a simulated implementation for development and tests.
package processor

import (
	"context"

	"github.com/google/uuid"

	"github.com/xraph/vitrine/id"
	"github.com/xraph/vitrine/types"
)

// Result is the outcome of a charge attempt.
type Result struct {
	Approved       bool
	TransactionRef string
	DeclineReason  string
}

// Processor charges a user for an artifact. The engine treats it as
// opaque: it never retries a charge itself and records whatever outcome
// comes back.
type Processor interface {
	Charge(ctx context.Context, userID id.UserID, artifactID id.ArtifactID, amount types.Money) (Result, error)
}

// Simulated approves every charge and mints a synthetic transaction
// reference. Stands in for a real gateway outside production.
type Simulated struct{}

// NewSimulated creates a simulated processor.
func NewSimulated() *Simulated { return &Simulated{} }

// Charge always approves.
func (s *Simulated) Charge(ctx context.Context, userID id.UserID, artifactID id.ArtifactID, amount types.Money) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	return Result{
		Approved:       true,
		TransactionRef: "txn_" + uuid.NewString(),
	}, nil
}
