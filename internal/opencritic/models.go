package opencritic

import (
	"errors"

	"github.com/gamestracker/internal/domain"
)

type imageVariantWire struct {
	SM string `json:"sm"`
	OG string `json:"og"`
}

type imagesWire struct {
	Box    *imageVariantWire `json:"box"`
	Banner *imageVariantWire `json:"banner"`
}

type platformWire struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
}

// gameWire is a record from the game list endpoints
type gameWire struct {
	ID                 int64          `json:"id"`
	Name               string         `json:"name"`
	Images             *imagesWire    `json:"images"`
	Tier               string         `json:"tier"`
	TopCriticScore     *float64       `json:"topCriticScore"`
	NumReviews         int            `json:"numReviews"`
	PercentRecommended *float64       `json:"percentRecommended"`
	ReleaseDate        string         `json:"releaseDate"`
	FirstReleaseDate   string         `json:"firstReleaseDate"`
	Platforms          []platformWire `json:"Platforms"`
}

var (
	errMissingID   = errors.New("missing id")
	errMissingName = errors.New("missing name")
)

func (w gameWire) validate() error {
	switch {
	case w.ID == 0:
		return errMissingID
	case w.Name == "":
		return errMissingName
	}
	return nil
}

func (w gameWire) toReview() domain.ReviewRecord {
	rec := domain.ReviewRecord{
		ID:                 w.ID,
		Name:               w.Name,
		Tier:               w.Tier,
		TopCriticScore:     nonNegative(w.TopCriticScore),
		NumReviews:         w.NumReviews,
		PercentRecommended: nonNegative(w.PercentRecommended),
		ReleaseDate:        w.ReleaseDate,
	}
	if rec.ReleaseDate == "" {
		rec.ReleaseDate = w.FirstReleaseDate
	}
	if w.Images != nil {
		rec.Images.Box = toVariant(w.Images.Box)
		rec.Images.Banner = toVariant(w.Images.Banner)
	}
	return rec
}

func (w gameWire) toTrending() domain.TrendingGame {
	game := domain.TrendingGame{ReviewRecord: w.toReview()}
	for _, p := range w.Platforms {
		name := p.Name
		if name == "" {
			name = p.ShortName
		}
		game.Platforms = append(game.Platforms, domain.Platform{ID: p.ID, Name: name})
	}
	return game
}

func toVariant(w *imageVariantWire) *domain.ImageVariant {
	if w == nil || (w.SM == "" && w.OG == "") {
		return nil
	}
	return &domain.ImageVariant{SM: w.SM, OG: w.OG}
}

// The upstream reports "no score yet" as -1
func nonNegative(v *float64) *float64 {
	if v == nil || *v < 0 {
		return nil
	}
	return v
}
