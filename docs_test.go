package vitrine_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/xraph/vitrine"
	"github.com/xraph/vitrine/artifact"
	"github.com/xraph/vitrine/entitlement"
	"github.com/xraph/vitrine/gate"
	"github.com/xraph/vitrine/session"
	"github.com/xraph/vitrine/store/memory"
	"github.com/xraph/vitrine/user"
)

// TestDocumentationExamples verifies that the examples in the documentation compile
func TestDocumentationExamples(t *testing.T) {
	// Test Quick Start example from README
	t.Run("QuickStartExample", func(t *testing.T) {
		// Create store (memory for demo, use SQLite or PostgreSQL in production)
		store := memory.New()

		// Initialize the engine
		engine := vitrine.New(store,
			vitrine.WithLogger(slog.Default()),
		)

		// Start the engine
		ctx := context.Background()
		if err := engine.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer engine.Stop()

		// Provision the exhibit catalog
		if err := artifact.Seed(ctx, store, artifact.DefaultCollection()); err != nil {
			t.Fatal(err)
		}

		// Register a visitor
		auth := user.NewBcryptProvider(store)
		userID, err := auth.Register(ctx, "alice", "hunter2")
		if err != nil {
			t.Fatal(err)
		}

		// Open a session for the visitor
		sessions, err := session.NewManager([]byte("documentation-example-key"))
		if err != nil {
			t.Fatal(err)
		}
		sess, _, err := sessions.Issue(userID, "alice")
		if err != nil {
			t.Fatal(err)
		}

		// Pick an artifact from the exhibit
		a, err := store.GetArtifactByName(ctx, "Ancient Stone Sword")
		if err != nil || a == nil {
			t.Fatalf("GetArtifactByName: (%v, %v)", a, err)
		}

		// First visit: access is denied until payment
		d, err := engine.CheckAccess(ctx, sess, userID, a.ID)
		if err != nil {
			t.Fatal(err)
		}
		if d.Granted {
			t.Fatal("access granted before payment")
		}

		// Pay once to unlock the artifact forever
		d, err = engine.ConfirmPayment(ctx, sess, userID, a.ID)
		if err != nil {
			t.Fatal(err)
		}
		if !d.Granted || d.Source != entitlement.SourcePayment {
			t.Fatalf("decision after payment: %+v", d)
		}

		// Subsequent checks answer from the session cache
		d, err = engine.CheckAccess(ctx, sess, userID, a.ID)
		if err != nil {
			t.Fatal(err)
		}
		if !d.Granted || d.Source != entitlement.SourceSession {
			t.Fatalf("cached decision: %+v", d)
		}
	})

	// Test the Gate example for presentation layers
	t.Run("GateExample", func(t *testing.T) {
		ctx := context.Background()

		store := memory.New()
		engine := vitrine.New(store)
		if err := engine.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer engine.Stop()

		if err := artifact.Seed(ctx, store, artifact.DefaultCollection()); err != nil {
			t.Fatal(err)
		}

		sessions, err := session.NewManager([]byte("documentation-example-key"))
		if err != nil {
			t.Fatal(err)
		}
		g := gate.New(engine, sessions, user.NewBcryptProvider(store))

		token, err := g.Register(ctx, "bob", "correct horse battery staple")
		if err != nil {
			t.Fatal(err)
		}

		view, err := g.Museum(ctx, token)
		if err != nil {
			t.Fatal(err)
		}
		if len(view) == 0 {
			t.Fatal("empty museum view")
		}

		authz, err := g.Confirm(ctx, token, view[0].ArtifactID)
		if err != nil {
			t.Fatal(err)
		}
		if authz.ModelRef == "" {
			t.Fatal("authorization missing model reference")
		}
	})
}
