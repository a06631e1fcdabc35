package user

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/xraph/vitrine/id"
	"github.com/xraph/vitrine/types"
)

// Provider-level sentinels. The root package re-exports matching values;
// these live here so the provider is usable standalone.
var (
	ErrInvalidCredentials = errors.New("vitrine: invalid username or password")
	ErrUsernameTaken      = errors.New("vitrine: username already taken")
)

// Authenticator is the external authentication collaborator contract.
// The entitlement core treats it as opaque: it only consumes the returned
// user identity.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (id.UserID, error)
	Register(ctx context.Context, username, password string) (id.UserID, error)
}

// Store is the persistence surface the bcrypt provider needs. The unified
// store satisfies it. GetUserByUsername returns (nil, nil) when the username
// is unknown.
type Store interface {
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, userID id.UserID) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
}

// BcryptProvider is the default Authenticator: bcrypt-hashed credentials
// in the unified store.
type BcryptProvider struct {
	store Store
	cost  int
}

// NewBcryptProvider creates a provider with the default bcrypt cost.
func NewBcryptProvider(s Store) *BcryptProvider {
	return &BcryptProvider{store: s, cost: bcrypt.DefaultCost}
}

// Authenticate verifies a username/password pair and returns the user ID.
func (p *BcryptProvider) Authenticate(ctx context.Context, username, password string) (id.UserID, error) {
	if username == "" || password == "" {
		return id.Nil, ErrInvalidCredentials
	}

	u, err := p.store.GetUserByUsername(ctx, username)
	if err != nil {
		return id.Nil, fmt.Errorf("user: authenticate lookup: %w", err)
	}
	if u == nil {
		// Burn a comparison anyway so unknown usernames cost the same
		// as wrong passwords.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$0000000000000000000000000000000000000000000000000000"), []byte(password))
		return id.Nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.CredentialHash), []byte(password)); err != nil {
		return id.Nil, ErrInvalidCredentials
	}
	return u.ID, nil
}

// Register creates a new user with a bcrypt-hashed credential.
func (p *BcryptProvider) Register(ctx context.Context, username, password string) (id.UserID, error) {
	if username == "" || password == "" {
		return id.Nil, ErrInvalidCredentials
	}

	existing, err := p.store.GetUserByUsername(ctx, username)
	if err != nil {
		return id.Nil, fmt.Errorf("user: register lookup: %w", err)
	}
	if existing != nil {
		return id.Nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return id.Nil, fmt.Errorf("user: hash credential: %w", err)
	}

	u := &User{
		Entity:         types.NewEntity(),
		ID:             id.NewUserID(),
		Username:       username,
		CredentialHash: string(hash),
	}
	if err := p.store.CreateUser(ctx, u); err != nil {
		return id.Nil, err
	}
	return u.ID, nil
}
