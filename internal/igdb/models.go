package igdb

import (
	"errors"

	"github.com/gamestracker/internal/domain"
)

// Wire shapes of the catalog API. Only expanded fields requested by the
// queries in client.go are declared.

type imageWire struct {
	URL string `json:"url"`
}

type platformWire struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type gameSummaryWire struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Summary     string         `json:"summary"`
	Cover       *imageWire     `json:"cover"`
	Screenshots []imageWire    `json:"screenshots"`
	Platforms   []platformWire `json:"platforms"`
	GameStatus  int            `json:"game_status"`
}

// releaseDateWire is a record from the release_dates endpoint
type releaseDateWire struct {
	ID         int64            `json:"id"`
	Date       *int64           `json:"date"`
	Human      string           `json:"human"`
	DateFormat int              `json:"date_format"`
	Platform   *platformWire    `json:"platform"`
	Game       *gameSummaryWire `json:"game"`
}

type nestedReleaseDateWire struct {
	ID         int64         `json:"id"`
	Date       *int64        `json:"date"`
	Human      string        `json:"human"`
	DateFormat int           `json:"date_format"`
	Platform   *platformWire `json:"platform"`
}

type websiteWire struct {
	Category int    `json:"category"`
	URL      string `json:"url"`
}

type externalGameWire struct {
	Category int    `json:"category"`
	UID      string `json:"uid"`
}

// gameWire is a record from the games endpoint
type gameWire struct {
	ID                    int64                   `json:"id"`
	Name                  string                  `json:"name"`
	Summary               string                  `json:"summary"`
	Cover                 *imageWire              `json:"cover"`
	FirstReleaseDate      int64                   `json:"first_release_date"`
	GameStatus            int                     `json:"game_status"`
	Platforms             []platformWire          `json:"platforms"`
	Screenshots           []imageWire             `json:"screenshots"`
	ReleaseDates          []nestedReleaseDateWire `json:"release_dates"`
	Websites              []websiteWire           `json:"websites"`
	ExternalGames         []externalGameWire      `json:"external_games"`
	AggregatedRating      float64                 `json:"aggregated_rating"`
	AggregatedRatingCount int                     `json:"aggregated_rating_count"`
}

type namedWire struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

var (
	errMissingID       = errors.New("missing id")
	errMissingName     = errors.New("missing name")
	errMissingDate     = errors.New("missing date")
	errMissingPlatform = errors.New("missing platform")
	errMissingGame     = errors.New("missing game")
)

func (w releaseDateWire) validate() error {
	switch {
	case w.ID == 0:
		return errMissingID
	case w.Date == nil:
		return errMissingDate
	case w.Platform == nil || w.Platform.ID == 0:
		return errMissingPlatform
	case w.Game == nil || w.Game.ID == 0:
		return errMissingGame
	case w.Game.Name == "":
		return errMissingName
	}
	return nil
}

func (w releaseDateWire) toDomain() domain.ReleaseRecord {
	return domain.ReleaseRecord{
		RecordID:     w.ID,
		GameID:       w.Game.ID,
		PlatformID:   w.Platform.ID,
		PlatformName: w.Platform.Name,
		Date:         *w.Date,
		Human:        w.Human,
		DateFormat:   w.DateFormat,
		Status:       w.Game.GameStatus,
		Game:         w.Game.toDomain(),
	}
}

func (w *gameSummaryWire) toDomain() *domain.GameSummary {
	summary := &domain.GameSummary{
		ID:      w.ID,
		Name:    w.Name,
		Summary: w.Summary,
		Status:  w.GameStatus,
	}
	if w.Cover != nil {
		summary.CoverURL = w.Cover.URL
	}
	for _, s := range w.Screenshots {
		if s.URL != "" {
			summary.Screenshots = append(summary.Screenshots, s.URL)
		}
	}
	for _, p := range w.Platforms {
		if p.Name != "" {
			summary.Platforms = append(summary.Platforms, p.Name)
		}
	}
	return summary
}

func (w gameWire) validate() error {
	switch {
	case w.ID == 0:
		return errMissingID
	case w.Name == "":
		return errMissingName
	}
	return nil
}

func (w gameWire) toDomain() domain.RawGame {
	game := domain.RawGame{
		ID:                    w.ID,
		Name:                  w.Name,
		Summary:               w.Summary,
		FirstReleaseDate:      w.FirstReleaseDate,
		Status:                w.GameStatus,
		AggregatedRating:      w.AggregatedRating,
		AggregatedRatingCount: w.AggregatedRatingCount,
	}
	if w.Cover != nil {
		game.CoverURL = w.Cover.URL
	}
	for _, p := range w.Platforms {
		game.Platforms = append(game.Platforms, domain.Platform{ID: p.ID, Name: p.Name})
	}
	for _, s := range w.Screenshots {
		if s.URL != "" {
			game.Screenshots = append(game.Screenshots, s.URL)
		}
	}
	for _, rd := range w.ReleaseDates {
		// Undated or platformless entries cannot be ranked
		if rd.Date == nil || rd.Platform == nil {
			continue
		}
		game.ReleaseDates = append(game.ReleaseDates, domain.RawReleaseDate{
			ID:         rd.ID,
			Human:      rd.Human,
			Date:       *rd.Date,
			DateFormat: rd.DateFormat,
			Platform:   domain.Platform{ID: rd.Platform.ID, Name: rd.Platform.Name},
		})
	}
	for _, site := range w.Websites {
		game.Websites = append(game.Websites, domain.Website{Category: site.Category, URL: site.URL})
	}
	for _, ext := range w.ExternalGames {
		game.ExternalGames = append(game.ExternalGames, domain.ExternalGame{Category: ext.Category, UID: ext.UID})
	}
	return game
}
