// Package entitlement defines the result types the engine hands back to
// callers: access decisions, payment intents, and catalog view entries.
package entitlement

import (
	"github.com/xraph/vitrine/id"
	"github.com/xraph/vitrine/types"
)

// Source identifies which layer answered an access check.
type Source string

const (
	// SourceSession means the cached grant set answered without touching
	// the store.
	SourceSession Source = "session"
	// SourceStore means the durable record answered; the grant was cached
	// on the way out.
	SourceStore Source = "store"
	// SourcePayment means a payment completed during this operation.
	SourcePayment Source = "payment"
	// SourceNone means no layer granted access.
	SourceNone Source = "none"
)

// Decision is the outcome of an access check for one (user, artifact) pair.
type Decision struct {
	Granted    bool          `json:"granted"`
	Source     Source        `json:"source"`
	ArtifactID id.ArtifactID `json:"artifact_id"`
	Reason     string        `json:"reason,omitempty"`
}

// PaymentIntent describes what a payment would unlock and at what price.
// The amount always comes from the catalog, never from the caller.
type PaymentIntent struct {
	ArtifactID id.ArtifactID `json:"artifact_id"`
	Name       string        `json:"name"`
	Amount     types.Money   `json:"amount"`
}

// ArtifactAccess is one catalog entry annotated with the caller's
// entitlement, for rendering a listing with owned/locked states.
type ArtifactAccess struct {
	ArtifactID  id.ArtifactID `json:"artifact_id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	ImageRef    string        `json:"image_ref,omitempty"`
	Price       types.Money   `json:"price"`
	Owned       bool          `json:"owned"`
}
