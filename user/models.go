package user

import (
	"github.com/xraph/vitrine/id"
	"github.com/xraph/vitrine/types"
)

// User is a registered visitor. Created by the authentication provider,
// immutable afterwards; the entitlement engine only ever reads the ID.
type User struct {
	types.Entity
	ID       id.UserID `json:"id"`
	Username string    `json:"username"`

	// CredentialHash is opaque to everything except the provider that
	// wrote it. Never serialized.
	CredentialHash string `json:"-"`
}
