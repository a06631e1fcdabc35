package vitrine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/vitrine/artifact"
	"github.com/xraph/vitrine/entitlement"
	"github.com/xraph/vitrine/id"
	"github.com/xraph/vitrine/payment"
	"github.com/xraph/vitrine/plugin"
	"github.com/xraph/vitrine/processor"
	"github.com/xraph/vitrine/session"
	"github.com/xraph/vitrine/store"
)

// DefaultStoreTimeout bounds every store call made by the engine.
const DefaultStoreTimeout = 5 * time.Second

// Engine is the entitlement engine: it decides access, produces payment
// intents, and drives the pay-once confirmation transition.
type Engine struct {
	store   store.Store
	catalog artifact.Catalog
	proc    processor.Processor
	plugins *plugin.Registry
	logger  *slog.Logger

	// pairLocks serializes confirmation per (user, artifact) pair. The
	// store's completed-uniqueness constraint backs this up across
	// processes; the lock keeps a single process from double-charging.
	pairLocks sync.Map // string → *sync.Mutex

	storeTimeout time.Duration
}

// New creates a new Engine instance. The catalog defaults to a view over
// the store; the processor defaults to the simulated one.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:        s,
		catalog:      artifact.NewStoreCatalog(s),
		proc:         processor.NewSimulated(),
		plugins:      plugin.NewRegistry(),
		logger:       slog.Default(),
		storeTimeout: DefaultStoreTimeout,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithProcessor sets the payment processor collaborator.
func WithProcessor(p processor.Processor) Option {
	return func(e *Engine) {
		e.proc = p
	}
}

// WithCatalog sets the catalog collaborator.
func WithCatalog(c artifact.Catalog) Option {
	return func(e *Engine) {
		e.catalog = c
	}
}

// WithStoreTimeout bounds each store call.
func WithStoreTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.storeTimeout = d
	}
}

// Start migrates the store and initializes plugins.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.store.Migrate(ctx); err != nil {
		return err
	}

	e.plugins.EmitInit(ctx, e)

	e.logger.Info("vitrine started",
		"store_timeout", e.storeTimeout,
		"plugins", e.plugins.Count(),
	)

	return nil
}

// Stop shuts down the engine.
func (e *Engine) Stop() error {
	ctx := context.Background()
	e.plugins.EmitShutdown(ctx)

	return e.store.Close()
}

// Plugins returns the plugin registry.
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// ──────────────────────────────────────────────────
// Access decisions
// ──────────────────────────────────────────────────

// CheckAccess decides whether the user may view the artifact. The session
// grant cache answers first with no store I/O; on a miss, the durable
// record decides and a positive answer warms the cache. The cache carries
// no negative information, so a miss always falls through to the store.
func (e *Engine) CheckAccess(ctx context.Context, sess *session.Session, userID id.UserID, artifactID id.ArtifactID) (*entitlement.Decision, error) {
	if sess != nil && sess.Contains(artifactID) {
		d := &entitlement.Decision{
			Granted:    true,
			Source:     entitlement.SourceSession,
			ArtifactID: artifactID,
		}
		e.plugins.EmitAccessChecked(ctx, userID, d)
		return d, nil
	}

	ok, err := e.hasCompleted(ctx, userID, artifactID)
	if err != nil {
		return nil, err
	}
	if ok {
		if sess != nil {
			sess.Add(artifactID)
			e.plugins.EmitGrantCached(ctx, userID, artifactID)
		}
		d := &entitlement.Decision{
			Granted:    true,
			Source:     entitlement.SourceStore,
			ArtifactID: artifactID,
		}
		e.plugins.EmitAccessChecked(ctx, userID, d)
		return d, nil
	}

	d := &entitlement.Decision{
		Granted:    false,
		Source:     entitlement.SourceNone,
		ArtifactID: artifactID,
		Reason:     "payment required",
	}
	e.plugins.EmitAccessChecked(ctx, userID, d)
	return d, nil
}

// InitiatePayment produces a payment intent for the artifact. The amount
// always comes from the catalog; client-supplied prices are never
// consulted anywhere in the engine.
func (e *Engine) InitiatePayment(ctx context.Context, artifactID id.ArtifactID) (*entitlement.PaymentIntent, error) {
	a, err := e.resolveArtifact(ctx, artifactID)
	if err != nil {
		return nil, err
	}

	intent := &entitlement.PaymentIntent{
		ArtifactID: a.ID,
		Name:       a.Name,
		Amount:     a.Price,
	}
	e.plugins.EmitPaymentInitiated(ctx, id.Nil, intent)
	return intent, nil
}

// ConfirmPayment runs the pay-once transition: short-circuit on an
// existing completed record, re-resolve the price server-side, record a
// pending attempt, charge the processor, and mark the record completed.
// The whole sequence holds the per-(user, artifact) lock so concurrent
// retries cannot double-charge.
//
// Failures surface as *PaymentError with Retriable set: a retry is always
// safe because the short-circuit answers once any attempt has succeeded.
func (e *Engine) ConfirmPayment(ctx context.Context, sess *session.Session, userID id.UserID, artifactID id.ArtifactID) (*entitlement.Decision, error) {
	lock := e.pairLock(userID, artifactID)
	lock.Lock()
	defer lock.Unlock()

	// Step 0: a prior successful attempt grants without a new charge.
	done, err := e.hasCompleted(ctx, userID, artifactID)
	if err != nil {
		return nil, err
	}
	if done {
		if sess != nil {
			sess.Add(artifactID)
			e.plugins.EmitGrantCached(ctx, userID, artifactID)
		}
		return &entitlement.Decision{
			Granted:    true,
			Source:     entitlement.SourceStore,
			ArtifactID: artifactID,
		}, nil
	}

	a, err := e.resolveArtifact(ctx, artifactID)
	if err != nil {
		return nil, err
	}

	paymentID, err := e.recordAttempt(ctx, userID, artifactID, a)
	if err != nil {
		return nil, &PaymentError{Reason: "recording payment attempt", Retriable: true, Err: err}
	}

	result, chargeErr := e.proc.Charge(ctx, userID, artifactID, a.Price)
	if chargeErr != nil || !result.Approved {
		reason := "processor declined"
		if chargeErr != nil {
			reason = "processor unavailable"
		} else if result.DeclineReason != "" {
			reason = result.DeclineReason
		}
		e.failAttempt(ctx, paymentID, reason)
		return nil, &PaymentError{Reason: reason, Retriable: true, Err: chargeErr}
	}

	if err := e.markCompleted(ctx, paymentID, result.TransactionRef); err != nil {
		if errors.Is(err, ErrPaymentAlreadyComplete) {
			// A sibling record won across processes. The entitlement
			// exists; the duplicate charge is a reconciliation matter.
			e.logger.Warn("duplicate completion refused by store",
				"user_id", userID,
				"artifact_id", artifactID,
				"payment_id", paymentID,
				"transaction_ref", result.TransactionRef,
			)
		} else {
			return nil, &PaymentError{Reason: "persisting completion", Retriable: true, Err: err}
		}
	} else if p, getErr := e.getPayment(ctx, paymentID); getErr == nil {
		e.plugins.EmitPaymentCompleted(ctx, p)
	}

	if sess != nil {
		sess.Add(artifactID)
		e.plugins.EmitGrantCached(ctx, userID, artifactID)
	}
	return &entitlement.Decision{
		Granted:    true,
		Source:     entitlement.SourcePayment,
		ArtifactID: artifactID,
	}, nil
}

// Artifact resolves a catalog artifact. Callers needing the model
// reference after a granted check use this rather than reaching into the
// store.
func (e *Engine) Artifact(ctx context.Context, artifactID id.ArtifactID) (*artifact.Artifact, error) {
	return e.resolveArtifact(ctx, artifactID)
}

// CatalogView returns the full catalog annotated with the caller's
// entitlements, for rendering a museum listing with owned and locked
// artifacts.
func (e *Engine) CatalogView(ctx context.Context, sess *session.Session, userID id.UserID) ([]entitlement.ArtifactAccess, error) {
	sctx, cancel := e.storeCtx(ctx)
	artifacts, err := e.catalog.ListArtifacts(sctx, artifact.ListOpts{})
	cancel()
	if err != nil {
		return nil, mapStoreErr(err)
	}

	view := make([]entitlement.ArtifactAccess, 0, len(artifacts))
	for _, a := range artifacts {
		owned := sess != nil && sess.Contains(a.ID)
		if !owned {
			ok, err := e.hasCompleted(ctx, userID, a.ID)
			if err != nil {
				return nil, err
			}
			if ok && sess != nil {
				sess.Add(a.ID)
				e.plugins.EmitGrantCached(ctx, userID, a.ID)
			}
			owned = ok
		}
		view = append(view, entitlement.ArtifactAccess{
			ArtifactID:  a.ID,
			Name:        a.Name,
			Description: a.Description,
			ImageRef:    a.ImageRef,
			Price:       a.Price,
			Owned:       owned,
		})
	}
	return view, nil
}

// PaymentHistory returns the user's payment records, most recent first.
func (e *Engine) PaymentHistory(ctx context.Context, userID id.UserID, opts payment.ListOpts) ([]*payment.Payment, error) {
	sctx, cancel := e.storeCtx(ctx)
	defer cancel()
	records, err := e.store.ListPayments(sctx, userID, opts)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return records, nil
}

// ──────────────────────────────────────────────────
// Store access helpers
// ──────────────────────────────────────────────────

// storeCtx bounds a store call. Deadline expiry maps to
// ErrStoreUnavailable; the engine never retries internally.
func (e *Engine) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.storeTimeout)
}

func mapStoreErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return err
}

func (e *Engine) hasCompleted(ctx context.Context, userID id.UserID, artifactID id.ArtifactID) (bool, error) {
	sctx, cancel := e.storeCtx(ctx)
	defer cancel()
	ok, err := e.store.HasCompleted(sctx, userID, artifactID)
	if err != nil {
		return false, mapStoreErr(err)
	}
	return ok, nil
}

func (e *Engine) resolveArtifact(ctx context.Context, artifactID id.ArtifactID) (*artifact.Artifact, error) {
	sctx, cancel := e.storeCtx(ctx)
	defer cancel()
	a, err := e.catalog.GetArtifact(sctx, artifactID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return a, nil
}

func (e *Engine) recordAttempt(ctx context.Context, userID id.UserID, artifactID id.ArtifactID, a *artifact.Artifact) (id.PaymentID, error) {
	sctx, cancel := e.storeCtx(ctx)
	defer cancel()
	paymentID, err := e.store.RecordAttempt(sctx, userID, artifactID, a.Price)
	if err != nil {
		return id.Nil, mapStoreErr(err)
	}
	return paymentID, nil
}

func (e *Engine) markCompleted(ctx context.Context, paymentID id.PaymentID, transactionRef string) error {
	sctx, cancel := e.storeCtx(ctx)
	defer cancel()
	if err := e.store.MarkCompleted(sctx, paymentID, transactionRef); err != nil {
		return mapStoreErr(err)
	}
	return nil
}

func (e *Engine) getPayment(ctx context.Context, paymentID id.PaymentID) (*payment.Payment, error) {
	sctx, cancel := e.storeCtx(ctx)
	defer cancel()
	p, err := e.store.GetPayment(sctx, paymentID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return p, nil
}

// failAttempt transitions the record to failed, best-effort. The record
// must never read as completed after a declined charge; leaving it pending
// on a store error is acceptable.
func (e *Engine) failAttempt(ctx context.Context, paymentID id.PaymentID, reason string) {
	sctx, cancel := e.storeCtx(ctx)
	defer cancel()
	if err := e.store.MarkFailed(sctx, paymentID, reason); err != nil {
		e.logger.Warn("failed to mark payment attempt failed",
			"payment_id", paymentID,
			"reason", reason,
			"error", err,
		)
		return
	}
	if p, err := e.getPayment(ctx, paymentID); err == nil {
		e.plugins.EmitPaymentFailed(ctx, p, reason)
	}
}

func (e *Engine) pairLock(userID id.UserID, artifactID id.ArtifactID) *sync.Mutex {
	key := userID.String() + ":" + artifactID.String()
	if lock, ok := e.pairLocks.Load(key); ok {
		return lock.(*sync.Mutex)
	}
	lock, _ := e.pairLocks.LoadOrStore(key, &sync.Mutex{})
	return lock.(*sync.Mutex)
}
