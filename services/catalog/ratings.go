package catalog

import (
	"github.com/brianvoe/gofakeit/v7"
)

// RatingSource supplies the display-only rating fields the upstreams do not
// carry. Swap in a real ratings service here when one exists.
type RatingSource interface {
	Rating(id string) (rating float64, reviews int)
	Blurb(id string) string
}

// FabricatedRatings fabricates plausible-looking ratings. Values are random
// per call and carry no meaning.
type FabricatedRatings struct{}

var _ RatingSource = (*FabricatedRatings)(nil)

func (FabricatedRatings) Rating(string) (float64, int) {
	return gofakeit.Float64Range(3, 5), gofakeit.Number(10, 500)
}

func (FabricatedRatings) Blurb(string) string {
	return gofakeit.Sentence(12)
}
