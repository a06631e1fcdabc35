// Package vitrine provides a pay-once access-entitlement engine for
// digital museum collections.
//
// Vitrine is designed as a library, not a service. Import it directly
// into your Go application. It provides:
//
//   - Two-tier access checks: a per-session grant cache answers the hot
//     path; durable payment records remain the source of truth
//   - A pay-once confirmation transition that never double-charges, even
//     under concurrent retries
//   - Pluggable stores (memory, SQLite, PostgreSQL), payment processors
//     and catalogs
//   - Signed session tokens with key-rotation invalidation
//   - Lifecycle plugins for audit trails and metrics
//
// # Quick Start
//
// Create an engine with your preferred store:
//
//	import (
//	    "github.com/xraph/vitrine"
//	    "github.com/xraph/vitrine/store/sqlite"
//	)
//
//	store, err := sqlite.New("vitrine.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	engine := vitrine.New(store)
//	if err := engine.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Stop()
//
// # Core Concepts
//
// Artifacts live in a catalog with server-resolved prices:
//
//	if err := artifact.Seed(ctx, store, artifact.DefaultCollection()); err != nil {
//	    log.Fatal(err)
//	}
//
// Access is decided per (user, artifact) pair:
//
//	d, err := engine.CheckAccess(ctx, sess, userID, artifactID)
//	if d.Granted {
//	    // serve the model
//	}
//
// A payment unlocks an artifact forever:
//
//	d, err := engine.ConfirmPayment(ctx, sess, userID, artifactID)
//
// Confirmation is idempotent: once any attempt for a pair has completed,
// re-confirmation grants without charging again. The session cache is
// purely an optimization; losing it (logout, key rotation, restart)
// never loses access.
//
// # The Gate
//
// The gate package wraps the engine for presentation layers: it resolves
// session tokens, translates decisions into typed errors
// (ErrUnauthenticated, ErrPaymentRequired) and only releases an
// artifact's model reference through a ViewAuthorization.
//
// All monetary calculations use integer arithmetic. The Money type
// represents amounts in the smallest currency unit (cents for USD).
//
// # TypeID
//
// All entities use TypeID for globally unique, type-safe identifiers:
//
//	user_01h2xcejqtf2nbrexx3vqjhp41  // User ID
//	art_01h2xcejqtf2nbrexx3vqjhp41   // Artifact ID
//	pay_01h455vb4pex5vsknk084sn02q   // Payment record ID
//
// TypeIDs are K-sortable, making them ideal for database indexes and
// providing natural time-ordering of entities.
package vitrine
