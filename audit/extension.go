// Package audit bridges Vitrine lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not depend on
// any particular backend. A slog-based Recorder ships in this package;
// callers with an external trail inject their own adapter at wiring time.
package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/vitrine/entitlement"
	"github.com/xraph/vitrine/id"
	"github.com/xraph/vitrine/payment"
	"github.com/xraph/vitrine/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin             = (*Extension)(nil)
	_ plugin.OnAccessChecked    = (*Extension)(nil)
	_ plugin.OnGrantCached      = (*Extension)(nil)
	_ plugin.OnPaymentInitiated = (*Extension)(nil)
	_ plugin.OnPaymentCompleted = (*Extension)(nil)
	_ plugin.OnPaymentFailed    = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a backend-neutral audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// SlogRecorder writes audit events to a structured logger. The default
// backend when no external trail is wired.
func SlogRecorder(logger *slog.Logger) Recorder {
	return RecorderFunc(func(ctx context.Context, event *AuditEvent) error {
		logger.InfoContext(ctx, "audit",
			"action", event.Action,
			"resource", event.Resource,
			"resource_id", event.ResourceID,
			"category", event.Category,
			"outcome", event.Outcome,
			"severity", event.Severity,
			"reason", event.Reason,
			"metadata", event.Metadata,
		)
		return nil
	})
}

// Extension bridges Vitrine lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger

	// Granted access checks are high-volume; off by default.
	auditGranted bool
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Access hooks
// ──────────────────────────────────────────────────

// OnAccessChecked implements plugin.OnAccessChecked. Denied checks are
// always audited; granted checks only when WithGrantedAccess is set.
func (e *Extension) OnAccessChecked(ctx context.Context, userID id.UserID, d *entitlement.Decision) error {
	if d.Granted {
		if !e.auditGranted {
			return nil
		}
		return e.record(ctx, ActionAccessGranted, SeverityInfo, OutcomeSuccess,
			ResourceArtifact, d.ArtifactID.String(), CategoryAccess, nil,
			"user_id", userID.String(),
			"source", string(d.Source),
		)
	}
	return e.record(ctx, ActionAccessDenied, SeverityWarning, OutcomeFailure,
		ResourceArtifact, d.ArtifactID.String(), CategoryAccess, nil,
		"user_id", userID.String(),
		"reason", d.Reason,
	)
}

// OnGrantCached implements plugin.OnGrantCached.
func (e *Extension) OnGrantCached(ctx context.Context, userID id.UserID, artifactID id.ArtifactID) error {
	return e.record(ctx, ActionGrantCached, SeverityInfo, OutcomeSuccess,
		ResourceArtifact, artifactID.String(), CategoryAccess, nil,
		"user_id", userID.String(),
	)
}

// ──────────────────────────────────────────────────
// Payment lifecycle hooks
// ──────────────────────────────────────────────────

// OnPaymentInitiated implements plugin.OnPaymentInitiated.
func (e *Extension) OnPaymentInitiated(ctx context.Context, userID id.UserID, intent *entitlement.PaymentIntent) error {
	return e.record(ctx, ActionPaymentInitiated, SeverityInfo, OutcomeSuccess,
		ResourceArtifact, intent.ArtifactID.String(), CategoryPayment, nil,
		"user_id", userID.String(),
		"artifact", intent.Name,
		"amount", intent.Amount.String(),
	)
}

// OnPaymentCompleted implements plugin.OnPaymentCompleted.
func (e *Extension) OnPaymentCompleted(ctx context.Context, p *payment.Payment) error {
	return e.record(ctx, ActionPaymentCompleted, SeverityInfo, OutcomeSuccess,
		ResourcePayment, p.ID.String(), CategoryPayment, nil,
		"user_id", p.UserID.String(),
		"artifact_id", p.ArtifactID.String(),
		"amount", p.Amount.String(),
		"transaction_ref", p.TransactionRef,
	)
}

// OnPaymentFailed implements plugin.OnPaymentFailed.
func (e *Extension) OnPaymentFailed(ctx context.Context, p *payment.Payment, reason string) error {
	return e.record(ctx, ActionPaymentFailed, SeverityError, OutcomeFailure,
		ResourcePayment, p.ID.String(), CategoryPayment, nil,
		"user_id", p.UserID.String(),
		"artifact_id", p.ArtifactID.String(),
		"failure_reason", reason,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
