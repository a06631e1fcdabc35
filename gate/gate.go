// Package gate is the thin façade between a presentation layer and the
// entitlement engine. It owns session resolution and error translation
// and adds no access logic of its own.
package gate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/vitrine"
	"github.com/xraph/vitrine/entitlement"
	"github.com/xraph/vitrine/id"
	"github.com/xraph/vitrine/session"
	"github.com/xraph/vitrine/user"
)

// ViewAuthorization is the gate's positive answer to a view request. The
// model reference is only ever handed out through one of these.
type ViewAuthorization struct {
	ArtifactID id.ArtifactID      `json:"artifact_id"`
	Name       string             `json:"name"`
	ModelRef   string             `json:"model_ref"`
	Source     entitlement.Source `json:"source"`
}

// Gate guards every artifact-facing operation behind a valid session.
type Gate struct {
	engine   *vitrine.Engine
	sessions *session.Manager
	auth     user.Authenticator
	logger   *slog.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) { g.logger = logger }
}

// New creates a Gate over an engine, session manager and authenticator.
func New(engine *vitrine.Engine, sessions *session.Manager, auth user.Authenticator, opts ...Option) *Gate {
	g := &Gate{
		engine:   engine,
		sessions: sessions,
		auth:     auth,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ──────────────────────────────────────────────────
// Authentication surface
// ──────────────────────────────────────────────────

// Login authenticates a visitor and returns a signed session token.
func (g *Gate) Login(ctx context.Context, username, password string) (string, error) {
	userID, err := g.auth.Authenticate(ctx, username, password)
	if err != nil {
		return "", err
	}
	_, token, err := g.sessions.Issue(userID, username)
	if err != nil {
		return "", err
	}
	g.logger.Info("login", "username", username)
	return token, nil
}

// Register creates a visitor account and logs it in.
func (g *Gate) Register(ctx context.Context, username, password string) (string, error) {
	userID, err := g.auth.Register(ctx, username, password)
	if err != nil {
		return "", err
	}
	_, token, err := g.sessions.Issue(userID, username)
	if err != nil {
		return "", err
	}
	g.logger.Info("registered", "username", username)
	return token, nil
}

// Logout revokes the session behind the token, dropping its grant cache.
// Durable entitlements are untouched. Logging out a dead token is a no-op.
func (g *Gate) Logout(token string) {
	sess, err := g.sessions.Resolve(token)
	if err != nil {
		return
	}
	g.sessions.Revoke(sess.ID)
	g.logger.Info("logout", "username", sess.Username)
}

// ──────────────────────────────────────────────────
// Artifact surface
// ──────────────────────────────────────────────────

// ViewRequest authorizes viewing an artifact. Unauthenticated callers get
// ErrUnauthenticated; callers without an entitlement get
// ErrPaymentRequired so they can be redirected to payment.
func (g *Gate) ViewRequest(ctx context.Context, token string, artifactID id.ArtifactID) (*ViewAuthorization, error) {
	sess, err := g.sessions.Resolve(token)
	if err != nil {
		return nil, err
	}

	d, err := g.engine.CheckAccess(ctx, sess, sess.UserID, artifactID)
	if err != nil {
		return nil, err
	}
	if !d.Granted {
		return nil, fmt.Errorf("%w: artifact %s", vitrine.ErrPaymentRequired, artifactID)
	}
	return g.authorize(ctx, artifactID, d.Source)
}

// PaymentPageData returns the intent for rendering a payment page. The
// session must be valid; the price comes from the catalog.
func (g *Gate) PaymentPageData(ctx context.Context, token string, artifactID id.ArtifactID) (*entitlement.PaymentIntent, error) {
	if _, err := g.sessions.Resolve(token); err != nil {
		return nil, err
	}
	return g.engine.InitiatePayment(ctx, artifactID)
}

// Confirm runs the payment confirmation and returns a view authorization
// on success. A *vitrine.PaymentError passes through typed so the caller
// can offer a retry when it is retriable.
func (g *Gate) Confirm(ctx context.Context, token string, artifactID id.ArtifactID) (*ViewAuthorization, error) {
	sess, err := g.sessions.Resolve(token)
	if err != nil {
		return nil, err
	}

	d, err := g.engine.ConfirmPayment(ctx, sess, sess.UserID, artifactID)
	if err != nil {
		return nil, err
	}
	return g.authorize(ctx, artifactID, d.Source)
}

// Museum returns the catalog annotated with the caller's entitlements.
func (g *Gate) Museum(ctx context.Context, token string) ([]entitlement.ArtifactAccess, error) {
	sess, err := g.sessions.Resolve(token)
	if err != nil {
		return nil, err
	}
	return g.engine.CatalogView(ctx, sess, sess.UserID)
}

func (g *Gate) authorize(ctx context.Context, artifactID id.ArtifactID, source entitlement.Source) (*ViewAuthorization, error) {
	a, err := g.engine.Artifact(ctx, artifactID)
	if err != nil {
		return nil, err
	}
	return &ViewAuthorization{
		ArtifactID: a.ID,
		Name:       a.Name,
		ModelRef:   a.ModelRef,
		Source:     source,
	}, nil
}
