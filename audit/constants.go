package audit

// Action constants for audit events.
const (
	// Access actions
	ActionAccessGranted = "access.granted"
	ActionAccessDenied  = "access.denied"
	ActionGrantCached   = "grant.cached"

	// Payment actions
	ActionPaymentInitiated = "payment.initiated"
	ActionPaymentCompleted = "payment.completed"
	ActionPaymentFailed    = "payment.failed"
)

// Resource constants for audit events.
const (
	ResourceArtifact = "artifact"
	ResourcePayment  = "payment"
)

// Category constants for audit events.
const (
	CategoryAccess  = "access"
	CategoryPayment = "payment"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
