package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/vitrine/entitlement"
	"github.com/xraph/vitrine/id"
	"github.com/xraph/vitrine/payment"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit             []OnInit
	onShutdown         []OnShutdown
	onAccessChecked    []OnAccessChecked
	onGrantCached      []OnGrantCached
	onPaymentInitiated []OnPaymentInitiated
	onPaymentCompleted []OnPaymentCompleted
	onPaymentFailed    []OnPaymentFailed
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnAccessChecked); ok {
		r.onAccessChecked = append(r.onAccessChecked, v)
	}
	if v, ok := p.(OnGrantCached); ok {
		r.onGrantCached = append(r.onGrantCached, v)
	}
	if v, ok := p.(OnPaymentInitiated); ok {
		r.onPaymentInitiated = append(r.onPaymentInitiated, v)
	}
	if v, ok := p.(OnPaymentCompleted); ok {
		r.onPaymentCompleted = append(r.onPaymentCompleted, v)
	}
	if v, ok := p.(OnPaymentFailed); ok {
		r.onPaymentFailed = append(r.onPaymentFailed, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnAccessChecked)(nil)).Elem(), "OnAccessChecked")
	checkInterface(reflect.TypeOf((*OnGrantCached)(nil)).Elem(), "OnGrantCached")
	checkInterface(reflect.TypeOf((*OnPaymentInitiated)(nil)).Elem(), "OnPaymentInitiated")
	checkInterface(reflect.TypeOf((*OnPaymentCompleted)(nil)).Elem(), "OnPaymentCompleted")
	checkInterface(reflect.TypeOf((*OnPaymentFailed)(nil)).Elem(), "OnPaymentFailed")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, engine)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitAccessChecked emits an access decision event.
func (r *Registry) EmitAccessChecked(ctx context.Context, userID id.UserID, decision *entitlement.Decision) {
	r.mu.RLock()
	plugins := r.onAccessChecked
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnAccessChecked(ctx, userID, decision)
		}); err != nil {
			r.logger.Warn("plugin OnAccessChecked failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitGrantCached emits a grant cached event.
func (r *Registry) EmitGrantCached(ctx context.Context, userID id.UserID, artifactID id.ArtifactID) {
	r.mu.RLock()
	plugins := r.onGrantCached
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnGrantCached(ctx, userID, artifactID)
		}); err != nil {
			r.logger.Warn("plugin OnGrantCached failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPaymentInitiated emits a payment initiated event.
func (r *Registry) EmitPaymentInitiated(ctx context.Context, userID id.UserID, intent *entitlement.PaymentIntent) {
	r.mu.RLock()
	plugins := r.onPaymentInitiated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPaymentInitiated(ctx, userID, intent)
		}); err != nil {
			r.logger.Warn("plugin OnPaymentInitiated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPaymentCompleted emits a payment completed event.
func (r *Registry) EmitPaymentCompleted(ctx context.Context, pay *payment.Payment) {
	r.mu.RLock()
	plugins := r.onPaymentCompleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPaymentCompleted(ctx, pay)
		}); err != nil {
			r.logger.Warn("plugin OnPaymentCompleted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPaymentFailed emits a payment failed event.
func (r *Registry) EmitPaymentFailed(ctx context.Context, pay *payment.Payment, reason string) {
	r.mu.RLock()
	plugins := r.onPaymentFailed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPaymentFailed(ctx, pay, reason)
		}); err != nil {
			r.logger.Warn("plugin OnPaymentFailed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the access or payment path.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
