package artifact

import (
	"github.com/xraph/vitrine/id"
	"github.com/xraph/vitrine/types"
)

// Artifact is a catalog entry for a purchasable 3D model. The catalog is
// read-only to the entitlement engine; rows are created by provisioning.
type Artifact struct {
	types.Entity
	ID          id.ArtifactID `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	ImageRef    string        `json:"image_ref"`
	ModelRef    string        `json:"model_ref"`
	Price       types.Money   `json:"price"`
}

// ListOpts controls catalog listing.
type ListOpts struct {
	Limit  int
	Offset int
}
