package artifact

import (
	"context"

	"github.com/xraph/vitrine/id"
)

// Catalog is the read-only artifact directory the engine resolves prices
// and model references from. Prices always come from here, never from a
// client-supplied value.
type Catalog interface {
	GetArtifact(ctx context.Context, artifactID id.ArtifactID) (*Artifact, error)
	ListArtifacts(ctx context.Context, opts ListOpts) ([]*Artifact, error)
}

// Store is the persistence surface the StoreCatalog adapter needs. The
// unified store satisfies it. GetArtifactByName returns (nil, nil) when no
// artifact carries the name; absence is a state, not an error.
type Store interface {
	CreateArtifact(ctx context.Context, a *Artifact) error
	GetArtifact(ctx context.Context, artifactID id.ArtifactID) (*Artifact, error)
	GetArtifactByName(ctx context.Context, name string) (*Artifact, error)
	ListArtifacts(ctx context.Context, opts ListOpts) ([]*Artifact, error)
}

// StoreCatalog adapts the unified store into the Catalog contract.
type StoreCatalog struct {
	store Store
}

// NewStoreCatalog wraps a store as a Catalog.
func NewStoreCatalog(s Store) *StoreCatalog {
	return &StoreCatalog{store: s}
}

// GetArtifact resolves an artifact by ID.
func (c *StoreCatalog) GetArtifact(ctx context.Context, artifactID id.ArtifactID) (*Artifact, error) {
	return c.store.GetArtifact(ctx, artifactID)
}

// ListArtifacts lists the catalog.
func (c *StoreCatalog) ListArtifacts(ctx context.Context, opts ListOpts) ([]*Artifact, error) {
	return c.store.ListArtifacts(ctx, opts)
}
