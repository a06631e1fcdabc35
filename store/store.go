package store

import (
	"context"

	"github.com/xraph/vitrine/artifact"
	"github.com/xraph/vitrine/id"
	"github.com/xraph/vitrine/payment"
	"github.com/xraph/vitrine/types"
	"github.com/xraph/vitrine/user"
)

// Store is the unified storage interface for all Vitrine entities.
// Instead of embedding the sub-interfaces, we explicitly declare all methods
// to avoid naming conflicts.
type Store interface {
	// User methods. GetUserByUsername returns (nil, nil) for unknown
	// usernames; absence is a state, not an error.
	CreateUser(ctx context.Context, u *user.User) error
	GetUser(ctx context.Context, userID id.UserID) (*user.User, error)
	GetUserByUsername(ctx context.Context, username string) (*user.User, error)

	// Artifact methods. GetArtifactByName follows the same (nil, nil)
	// absence contract.
	CreateArtifact(ctx context.Context, a *artifact.Artifact) error
	GetArtifact(ctx context.Context, artifactID id.ArtifactID) (*artifact.Artifact, error)
	GetArtifactByName(ctx context.Context, name string) (*artifact.Artifact, error)
	ListArtifacts(ctx context.Context, opts artifact.ListOpts) ([]*artifact.Artifact, error)

	// Payment methods. Implementations must never allow a second completed
	// record for the same (user, artifact) pair.
	RecordAttempt(ctx context.Context, userID id.UserID, artifactID id.ArtifactID, amount types.Money) (id.PaymentID, error)
	MarkCompleted(ctx context.Context, paymentID id.PaymentID, transactionRef string) error
	MarkFailed(ctx context.Context, paymentID id.PaymentID, reason string) error
	HasCompleted(ctx context.Context, userID id.UserID, artifactID id.ArtifactID) (bool, error)
	GetPayment(ctx context.Context, paymentID id.PaymentID) (*payment.Payment, error)
	ListPayments(ctx context.Context, userID id.UserID, opts payment.ListOpts) ([]*payment.Payment, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
