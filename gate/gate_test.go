package gate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/vitrine"
	"github.com/xraph/vitrine/artifact"
	"github.com/xraph/vitrine/gate"
	"github.com/xraph/vitrine/id"
	"github.com/xraph/vitrine/session"
	"github.com/xraph/vitrine/store/memory"
	"github.com/xraph/vitrine/user"
)

var testKey = []byte("gate-test-signing-key-0123456789")

func newTestGate(t *testing.T) (*gate.Gate, *memory.Store) {
	t.Helper()
	ctx := context.Background()

	s := memory.New()
	engine := vitrine.New(s)
	if err := engine.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = engine.Stop() })

	if err := artifact.Seed(ctx, s, artifact.DefaultCollection()); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	sessions, err := session.NewManager(testKey)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return gate.New(engine, sessions, user.NewBcryptProvider(s)), s
}

func artifactByName(t *testing.T, s *memory.Store, name string) id.ArtifactID {
	t.Helper()
	a, err := s.GetArtifactByName(context.Background(), name)
	if err != nil || a == nil {
		t.Fatalf("GetArtifactByName(%q): (%v, %v)", name, a, err)
	}
	return a.ID
}

func TestRegisterLoginLogout(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGate(t)

	token, err := g.Register(ctx, "alice", "hunter2")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if token == "" {
		t.Fatal("empty token from Register")
	}

	if _, err := g.Register(ctx, "alice", "other"); !errors.Is(err, vitrine.ErrUsernameTaken) {
		t.Errorf("duplicate register: got %v, want ErrUsernameTaken", err)
	}

	if _, err := g.Login(ctx, "alice", "wrong"); !errors.Is(err, vitrine.ErrInvalidCredentials) {
		t.Errorf("bad password: got %v, want ErrInvalidCredentials", err)
	}

	token2, err := g.Login(ctx, "alice", "hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	g.Logout(token2)
	if _, err := g.Museum(ctx, token2); !errors.Is(err, vitrine.ErrUnauthenticated) {
		t.Errorf("after logout: got %v, want ErrUnauthenticated", err)
	}
	// The first session is independent and still live.
	if _, err := g.Museum(ctx, token); err != nil {
		t.Errorf("first session after second logout: %v", err)
	}
}

func TestViewRequiresSession(t *testing.T) {
	ctx := context.Background()
	g, s := newTestGate(t)
	aid := artifactByName(t, s, "Ancient Book")

	if _, err := g.ViewRequest(ctx, "garbage", aid); !errors.Is(err, vitrine.ErrUnauthenticated) {
		t.Errorf("got %v, want ErrUnauthenticated", err)
	}
	if _, err := g.Confirm(ctx, "garbage", aid); !errors.Is(err, vitrine.ErrUnauthenticated) {
		t.Errorf("got %v, want ErrUnauthenticated", err)
	}
	if _, err := g.PaymentPageData(ctx, "garbage", aid); !errors.Is(err, vitrine.ErrUnauthenticated) {
		t.Errorf("got %v, want ErrUnauthenticated", err)
	}
}

func TestViewPayConfirmFlow(t *testing.T) {
	ctx := context.Background()
	g, s := newTestGate(t)
	aid := artifactByName(t, s, "Ancient Stone Sword")

	token, err := g.Register(ctx, "alice", "hunter2")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Unpaid view redirects to payment.
	if _, err := g.ViewRequest(ctx, token, aid); !errors.Is(err, vitrine.ErrPaymentRequired) {
		t.Fatalf("unpaid view: got %v, want ErrPaymentRequired", err)
	}

	// Payment page carries the catalog price.
	intent, err := g.PaymentPageData(ctx, token, aid)
	if err != nil {
		t.Fatalf("PaymentPageData: %v", err)
	}
	if intent.Amount.Amount != 500 || intent.Name != "Ancient Stone Sword" {
		t.Errorf("intent %+v", intent)
	}

	auth, err := g.Confirm(ctx, token, aid)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if auth.ModelRef == "" {
		t.Error("authorization missing model reference")
	}

	// Paid view succeeds and still carries the model reference.
	auth2, err := g.ViewRequest(ctx, token, aid)
	if err != nil {
		t.Fatalf("paid view: %v", err)
	}
	if auth2.ModelRef != auth.ModelRef {
		t.Errorf("model ref changed: %q vs %q", auth2.ModelRef, auth.ModelRef)
	}

	// Unknown artifacts are a 404-equivalent on the payment page.
	if _, err := g.PaymentPageData(ctx, token, id.NewArtifactID()); !errors.Is(err, vitrine.ErrArtifactNotFound) {
		t.Errorf("unknown artifact intent: got %v, want ErrArtifactNotFound", err)
	}
}

func TestMuseumOwnedFlags(t *testing.T) {
	ctx := context.Background()
	g, s := newTestGate(t)
	aid := artifactByName(t, s, "T-Rex Skull")

	token, err := g.Register(ctx, "alice", "hunter2")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := g.Confirm(ctx, token, aid); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	view, err := g.Museum(ctx, token)
	if err != nil {
		t.Fatalf("Museum: %v", err)
	}
	if len(view) != len(artifact.DefaultCollection()) {
		t.Fatalf("museum lists %d artifacts", len(view))
	}
	owned := 0
	for _, entry := range view {
		if entry.Owned {
			owned++
			if entry.ArtifactID != aid {
				t.Errorf("unexpected owned artifact %s", entry.ArtifactID)
			}
		}
	}
	if owned != 1 {
		t.Errorf("%d owned artifacts, want 1", owned)
	}
}

func TestEntitlementSurvivesLogout(t *testing.T) {
	ctx := context.Background()
	g, s := newTestGate(t)
	aid := artifactByName(t, s, "Beetle Totem")

	token, err := g.Register(ctx, "alice", "hunter2")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := g.Confirm(ctx, token, aid); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	g.Logout(token)

	token2, err := g.Login(ctx, "alice", "hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := g.ViewRequest(ctx, token2, aid); err != nil {
		t.Errorf("view in fresh session: %v", err)
	}
}
