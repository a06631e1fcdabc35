// Package plugin provides an extensible plugin system for Vitrine.
// Plugins can hook into various lifecycle events to extend functionality.
package plugin

import (
	"context"

	"github.com/xraph/vitrine/entitlement"
	"github.com/xraph/vitrine/id"
	"github.com/xraph/vitrine/payment"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized. The engine is passed as
// interface{} to keep this package free of a dependency on the root.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Access hooks
// ──────────────────────────────────────────────────

// OnAccessChecked is called after every access decision, granted or not.
type OnAccessChecked interface {
	Plugin
	OnAccessChecked(ctx context.Context, userID id.UserID, decision *entitlement.Decision) error
}

// OnGrantCached is called when a durable entitlement is copied into a
// session grant cache.
type OnGrantCached interface {
	Plugin
	OnGrantCached(ctx context.Context, userID id.UserID, artifactID id.ArtifactID) error
}

// ──────────────────────────────────────────────────
// Payment lifecycle hooks
// ──────────────────────────────────────────────────

// OnPaymentInitiated is called when a payment intent is produced.
type OnPaymentInitiated interface {
	Plugin
	OnPaymentInitiated(ctx context.Context, userID id.UserID, intent *entitlement.PaymentIntent) error
}

// OnPaymentCompleted is called when a payment record reaches completed.
type OnPaymentCompleted interface {
	Plugin
	OnPaymentCompleted(ctx context.Context, p *payment.Payment) error
}

// OnPaymentFailed is called when a payment attempt is marked failed.
type OnPaymentFailed interface {
	Plugin
	OnPaymentFailed(ctx context.Context, p *payment.Payment, reason string) error
}
