package artifact

import (
	"context"
	"fmt"

	"github.com/xraph/vitrine/id"
	"github.com/xraph/vitrine/types"
)

// DefaultCollection is the stock museum exhibit used for provisioning demos
// and tests. Every piece unlocks for a flat $5.00.
func DefaultCollection() []Artifact {
	price := types.USD(500)
	return []Artifact{
		{
			Name:        "Ancient Stone Sword",
			Description: "A historical artifact used in battles during the medieval period.",
			ImageRef:    "static/models/artifact2.jpg",
			ModelRef:    "static/models/Ancient-stone-sword-obj.obj",
			Price:       price,
		},
		{
			Name:        "Megalodon Teeth",
			Description: "The fossilized teeth of the prehistoric Megalodon shark.",
			ImageRef:    "static/models/tooth.jpg",
			ModelRef:    "static/models/megalodon teeth.obj",
			Price:       price,
		},
		{
			Name:        "Ancient Book",
			Description: "A preserved book from ancient times with historical significance.",
			ImageRef:    "static/models/book.jpg",
			ModelRef:    "static/models/An_ancient_book_aged.obj",
			Price:       price,
		},
		{
			Name:        "T-Rex Skull",
			Description: "A fossilized skull of the mighty Tyrannosaurus Rex.",
			ImageRef:    "static/models/skull.jpg",
			ModelRef:    "static/models/skull1.obj",
			Price:       price,
		},
		{
			Name:        "Beetle Totem",
			Description: "Totem of Undying.",
			ImageRef:    "static/models/beetle.jpg",
			ModelRef:    "static/models/beetle.obj",
			Price:       price,
		},
	}
}

// Seed provisions artifacts into the store, skipping any whose name already
// exists. It is a one-time provisioning step for the catalog collaborator,
// not part of the entitlement engine.
func Seed(ctx context.Context, s Store, artifacts []Artifact) error {
	for i := range artifacts {
		a := artifacts[i]

		existing, err := s.GetArtifactByName(ctx, a.Name)
		if err != nil {
			return fmt.Errorf("artifact: seed lookup %q: %w", a.Name, err)
		}
		if existing != nil {
			continue
		}

		if a.ID.IsNil() {
			a.ID = id.NewArtifactID()
		}
		a.Entity = types.NewEntity()

		if err := s.CreateArtifact(ctx, &a); err != nil {
			return fmt.Errorf("artifact: seed insert %q: %w", a.Name, err)
		}
	}
	return nil
}
