package vitrine_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xraph/vitrine"
	"github.com/xraph/vitrine/artifact"
	"github.com/xraph/vitrine/entitlement"
	"github.com/xraph/vitrine/id"
	"github.com/xraph/vitrine/payment"
	"github.com/xraph/vitrine/processor"
	"github.com/xraph/vitrine/session"
	"github.com/xraph/vitrine/store"
	"github.com/xraph/vitrine/store/memory"
	"github.com/xraph/vitrine/types"
)

// countingStore wraps a real store and counts entitlement lookups, so
// tests can prove the session cache answers without store I/O.
type countingStore struct {
	store.Store
	hasCompletedCalls atomic.Int64
}

func (c *countingStore) HasCompleted(ctx context.Context, userID id.UserID, artifactID id.ArtifactID) (bool, error) {
	c.hasCompletedCalls.Add(1)
	return c.Store.HasCompleted(ctx, userID, artifactID)
}

// countingProcessor approves every charge and records what it was asked
// to charge.
type countingProcessor struct {
	mu      sync.Mutex
	charges []types.Money
}

func (p *countingProcessor) Charge(ctx context.Context, userID id.UserID, artifactID id.ArtifactID, amount types.Money) (processor.Result, error) {
	p.mu.Lock()
	p.charges = append(p.charges, amount)
	p.mu.Unlock()
	return processor.Result{Approved: true, TransactionRef: "txn_test"}, nil
}

func (p *countingProcessor) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.charges)
}

// decliningProcessor declines until approved is flipped.
type decliningProcessor struct {
	approve atomic.Bool
	charges atomic.Int64
}

func (p *decliningProcessor) Charge(ctx context.Context, userID id.UserID, artifactID id.ArtifactID, amount types.Money) (processor.Result, error) {
	p.charges.Add(1)
	if !p.approve.Load() {
		return processor.Result{Approved: false, DeclineReason: "card declined"}, nil
	}
	return processor.Result{Approved: true, TransactionRef: "txn_retry"}, nil
}

type fixture struct {
	engine   *vitrine.Engine
	store    *countingStore
	mem      *memory.Store
	proc     *countingProcessor
	sessions *session.Manager
	userID   id.UserID
	sword    id.ArtifactID
}

func newFixture(t *testing.T, opts ...vitrine.Option) *fixture {
	t.Helper()
	ctx := context.Background()

	mem := memory.New()
	cs := &countingStore{Store: mem}
	proc := &countingProcessor{}

	engineOpts := append([]vitrine.Option{vitrine.WithProcessor(proc)}, opts...)
	engine := vitrine.New(cs, engineOpts...)
	if err := engine.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = engine.Stop() })

	if err := artifact.Seed(ctx, mem, artifact.DefaultCollection()); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	sword, err := mem.GetArtifactByName(ctx, "Ancient Stone Sword")
	if err != nil || sword == nil {
		t.Fatalf("seeded artifact missing: (%v, %v)", sword, err)
	}

	sessions, err := session.NewManager([]byte("engine-test-key-0123456789abcdef"))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	return &fixture{
		engine:   engine,
		store:    cs,
		mem:      mem,
		proc:     proc,
		sessions: sessions,
		userID:   id.NewUserID(),
		sword:    sword.ID,
	}
}

func (f *fixture) newSession(t *testing.T) *session.Session {
	t.Helper()
	s, _, err := f.sessions.Issue(f.userID, "alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return s
}

func TestCheckAccessWithoutRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sess := f.newSession(t)

	d, err := f.engine.CheckAccess(ctx, sess, f.userID, f.sword)
	if err != nil {
		t.Fatalf("CheckAccess: %v", err)
	}
	if d.Granted {
		t.Error("access granted without a completed record")
	}
	if d.Source != entitlement.SourceNone {
		t.Errorf("source %s, want none", d.Source)
	}
}

func TestConfirmGrantsAndCaches(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sess := f.newSession(t)

	d, err := f.engine.ConfirmPayment(ctx, sess, f.userID, f.sword)
	if err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}
	if !d.Granted || d.Source != entitlement.SourcePayment {
		t.Fatalf("decision %+v", d)
	}

	// The recheck must be answered by the cache alone.
	before := f.store.hasCompletedCalls.Load()
	d2, err := f.engine.CheckAccess(ctx, sess, f.userID, f.sword)
	if err != nil {
		t.Fatalf("CheckAccess: %v", err)
	}
	if !d2.Granted || d2.Source != entitlement.SourceSession {
		t.Errorf("decision %+v, want session-sourced grant", d2)
	}
	if calls := f.store.hasCompletedCalls.Load() - before; calls != 0 {
		t.Errorf("%d store lookups on the cached path, want 0", calls)
	}
}

func TestEntitlementSurvivesNewSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sess := f.newSession(t)

	if _, err := f.engine.ConfirmPayment(ctx, sess, f.userID, f.sword); err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}

	fresh := f.newSession(t)
	d, err := f.engine.CheckAccess(ctx, fresh, f.userID, f.sword)
	if err != nil {
		t.Fatalf("CheckAccess: %v", err)
	}
	if !d.Granted || d.Source != entitlement.SourceStore {
		t.Errorf("decision %+v, want store-sourced grant in a fresh session", d)
	}

	// The positive answer warmed the new session's cache.
	if !fresh.Contains(f.sword) {
		t.Error("fresh session cache not warmed")
	}
}

func TestDoubleConfirmChargesOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sess := f.newSession(t)

	if _, err := f.engine.ConfirmPayment(ctx, sess, f.userID, f.sword); err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	d, err := f.engine.ConfirmPayment(ctx, sess, f.userID, f.sword)
	if err != nil {
		t.Fatalf("second confirm: %v", err)
	}
	if !d.Granted {
		t.Error("re-confirmation not granted")
	}
	if got := f.proc.count(); got != 1 {
		t.Errorf("%d charges, want 1", got)
	}

	completed, err := f.mem.ListPayments(ctx, f.userID, payment.ListOpts{Status: payment.StatusCompleted})
	if err != nil {
		t.Fatalf("ListPayments: %v", err)
	}
	if len(completed) != 1 {
		t.Errorf("%d completed records, want 1", len(completed))
	}
}

func TestConcurrentConfirmSingleCharge(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sess := f.newSession(t)

	const n = 8
	var wg sync.WaitGroup
	decisions := make([]*entitlement.Decision, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			decisions[i], errs[i] = f.engine.ConfirmPayment(ctx, sess, f.userID, f.sword)
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("confirm %d: %v", i, errs[i])
		}
		if !decisions[i].Granted {
			t.Errorf("confirm %d not granted", i)
		}
	}
	if got := f.proc.count(); got != 1 {
		t.Errorf("%d charges under concurrency, want 1", got)
	}

	completed, err := f.mem.ListPayments(ctx, f.userID, payment.ListOpts{Status: payment.StatusCompleted})
	if err != nil {
		t.Fatalf("ListPayments: %v", err)
	}
	if len(completed) != 1 {
		t.Errorf("%d completed records, want 1", len(completed))
	}
}

func TestPriceComesFromCatalog(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sess := f.newSession(t)

	intent, err := f.engine.InitiatePayment(ctx, f.sword)
	if err != nil {
		t.Fatalf("InitiatePayment: %v", err)
	}
	if !intent.Amount.Equal(types.USD(500)) {
		t.Errorf("intent amount %v, want $5.00", intent.Amount)
	}

	if _, err := f.engine.ConfirmPayment(ctx, sess, f.userID, f.sword); err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}
	f.proc.mu.Lock()
	charged := f.proc.charges[0]
	f.proc.mu.Unlock()
	if !charged.Equal(types.USD(500)) {
		t.Errorf("charged %v, want the catalog price", charged)
	}

	if _, err := f.engine.InitiatePayment(ctx, id.NewArtifactID()); !errors.Is(err, vitrine.ErrArtifactNotFound) {
		t.Errorf("unknown artifact: got %v, want ErrArtifactNotFound", err)
	}
}

func TestDeclinedChargeIsRetriable(t *testing.T) {
	ctx := context.Background()
	proc := &decliningProcessor{}
	f := newFixture(t, vitrine.WithProcessor(proc))
	sess := f.newSession(t)

	_, err := f.engine.ConfirmPayment(ctx, sess, f.userID, f.sword)
	pe := vitrine.AsPaymentError(err)
	if pe == nil {
		t.Fatalf("got %v, want *PaymentError", err)
	}
	if !pe.Retriable {
		t.Error("declined charge not retriable")
	}
	if !vitrine.IsRetryable(err) {
		t.Error("IsRetryable false for declined charge")
	}

	// The failed attempt never reads as an entitlement.
	d, err := f.engine.CheckAccess(ctx, sess, f.userID, f.sword)
	if err != nil {
		t.Fatalf("CheckAccess: %v", err)
	}
	if d.Granted {
		t.Error("access granted after declined charge")
	}

	failed, err := f.mem.ListPayments(ctx, f.userID, payment.ListOpts{Status: payment.StatusFailed})
	if err != nil {
		t.Fatalf("ListPayments: %v", err)
	}
	if len(failed) != 1 {
		t.Errorf("%d failed records, want 1", len(failed))
	}

	// A retry creates a fresh record and succeeds.
	proc.approve.Store(true)
	d2, err := f.engine.ConfirmPayment(ctx, sess, f.userID, f.sword)
	if err != nil {
		t.Fatalf("retry confirm: %v", err)
	}
	if !d2.Granted {
		t.Error("retry not granted")
	}
	if got := proc.charges.Load(); got != 2 {
		t.Errorf("%d charges across decline and retry, want 2", got)
	}
}

// stalledStore blocks entitlement lookups until the bounded store context
// expires.
type stalledStore struct {
	store.Store
}

func (s *stalledStore) HasCompleted(ctx context.Context, userID id.UserID, artifactID id.ArtifactID) (bool, error) {
	<-ctx.Done()
	return false, ctx.Err()
}

func TestStoreTimeoutMapsToUnavailable(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	engine := vitrine.New(&stalledStore{Store: mem}, vitrine.WithStoreTimeout(20*time.Millisecond))
	if err := engine.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = engine.Stop() })

	_, err := engine.CheckAccess(ctx, nil, id.NewUserID(), id.NewArtifactID())
	if !errors.Is(err, vitrine.ErrStoreUnavailable) {
		t.Fatalf("got %v, want ErrStoreUnavailable", err)
	}
	if !vitrine.IsRetryable(err) {
		t.Error("store unavailability not retryable")
	}
}

func TestCatalogView(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sess := f.newSession(t)

	if _, err := f.engine.ConfirmPayment(ctx, sess, f.userID, f.sword); err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}

	view, err := f.engine.CatalogView(ctx, sess, f.userID)
	if err != nil {
		t.Fatalf("CatalogView: %v", err)
	}
	if len(view) != len(artifact.DefaultCollection()) {
		t.Fatalf("view lists %d artifacts", len(view))
	}
	for _, entry := range view {
		want := entry.ArtifactID == f.sword
		if entry.Owned != want {
			t.Errorf("artifact %s owned=%v, want %v", entry.Name, entry.Owned, want)
		}
		if !entry.Price.IsPositive() {
			t.Errorf("artifact %s has non-positive price", entry.Name)
		}
	}
}
