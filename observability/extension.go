// Package observability provides a metrics extension for Vitrine that
// records lifecycle event counts via OpenTelemetry.
package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/vitrine/entitlement"
	"github.com/xraph/vitrine/id"
	"github.com/xraph/vitrine/payment"
	"github.com/xraph/vitrine/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin             = (*MetricsExtension)(nil)
	_ plugin.OnAccessChecked    = (*MetricsExtension)(nil)
	_ plugin.OnGrantCached      = (*MetricsExtension)(nil)
	_ plugin.OnPaymentInitiated = (*MetricsExtension)(nil)
	_ plugin.OnPaymentCompleted = (*MetricsExtension)(nil)
	_ plugin.OnPaymentFailed    = (*MetricsExtension)(nil)
)

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Vitrine plugin to automatically track access and
// payment metrics.
type MetricsExtension struct {
	accessChecks    metric.Int64Counter
	grantsCached    metric.Int64Counter
	paymentsStarted metric.Int64Counter
	paymentsSettled metric.Int64Counter
	paymentAmount   metric.Int64Counter
}

// NewMetricsExtension creates a MetricsExtension using the global meter
// provider. Install an SDK meter provider before the engine starts to
// export the metrics.
func NewMetricsExtension() (*MetricsExtension, error) {
	meter := otel.Meter("github.com/xraph/vitrine")

	e := &MetricsExtension{}
	var err error

	e.accessChecks, err = meter.Int64Counter("vitrine.access.checks",
		metric.WithDescription("Access decisions by outcome and source"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return nil, err
	}

	e.grantsCached, err = meter.Int64Counter("vitrine.grants.cached",
		metric.WithDescription("Durable entitlements copied into session caches"),
		metric.WithUnit("{grant}"),
	)
	if err != nil {
		return nil, err
	}

	e.paymentsStarted, err = meter.Int64Counter("vitrine.payments.initiated",
		metric.WithDescription("Payment intents produced"),
		metric.WithUnit("{payment}"),
	)
	if err != nil {
		return nil, err
	}

	e.paymentsSettled, err = meter.Int64Counter("vitrine.payments.settled",
		metric.WithDescription("Payment records reaching a terminal status"),
		metric.WithUnit("{payment}"),
	)
	if err != nil {
		return nil, err
	}

	e.paymentAmount, err = meter.Int64Counter("vitrine.payments.amount",
		metric.WithDescription("Completed payment volume in minor currency units"),
		metric.WithUnit("{minor_unit}"),
	)
	if err != nil {
		return nil, err
	}

	return e, nil
}

// Name implements plugin.Plugin.
func (e *MetricsExtension) Name() string { return "otel-metrics" }

// OnAccessChecked implements plugin.OnAccessChecked.
func (e *MetricsExtension) OnAccessChecked(ctx context.Context, _ id.UserID, d *entitlement.Decision) error {
	e.accessChecks.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("granted", d.Granted),
		attribute.String("source", string(d.Source)),
	))
	return nil
}

// OnGrantCached implements plugin.OnGrantCached.
func (e *MetricsExtension) OnGrantCached(ctx context.Context, _ id.UserID, _ id.ArtifactID) error {
	e.grantsCached.Add(ctx, 1)
	return nil
}

// OnPaymentInitiated implements plugin.OnPaymentInitiated.
func (e *MetricsExtension) OnPaymentInitiated(ctx context.Context, _ id.UserID, intent *entitlement.PaymentIntent) error {
	e.paymentsStarted.Add(ctx, 1, metric.WithAttributes(
		attribute.String("currency", intent.Amount.Currency),
	))
	return nil
}

// OnPaymentCompleted implements plugin.OnPaymentCompleted.
func (e *MetricsExtension) OnPaymentCompleted(ctx context.Context, p *payment.Payment) error {
	e.paymentsSettled.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", string(payment.StatusCompleted)),
	))
	e.paymentAmount.Add(ctx, p.Amount.Amount, metric.WithAttributes(
		attribute.String("currency", p.Amount.Currency),
	))
	return nil
}

// OnPaymentFailed implements plugin.OnPaymentFailed.
func (e *MetricsExtension) OnPaymentFailed(ctx context.Context, _ *payment.Payment, _ string) error {
	e.paymentsSettled.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", string(payment.StatusFailed)),
	))
	return nil
}
