package domain

import (
	"fmt"
	"strings"
	"time"
)

// Release date formats reported by the catalog for each release record.
// Only DateFormatTBD is treated as unconfirmed; the others carry a usable timestamp.
const (
	DateFormatExact   = 0
	DateFormatMonth   = 1
	DateFormatYear    = 2
	DateFormatTBD     = 7
	releaseDateLayout = "January 2, 2006"
)

// Catalog game status values that remove a game from every list.
const (
	GameStatusCancelled = 6
	GameStatusDelisted  = 8
)

// Image sizes understood by the catalog image CDN
const (
	ImageSizeThumb         = "thumb"
	ImageSizeCoverBig      = "cover_big"
	ImageSizeScreenshotBig = "screenshot_big"
)

// Platform identifies a gaming platform
type Platform struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// GameSummary is the slice of game data carried on every release record
type GameSummary struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Summary     string   `json:"summary,omitempty"`
	CoverURL    string   `json:"cover_url,omitempty"`
	Screenshots []string `json:"screenshots,omitempty"`
	Platforms   []string `json:"platforms,omitempty"`
	Status      int      `json:"status,omitempty"`
}

// ReleaseRecord is one platform-scoped release date of one game
type ReleaseRecord struct {
	RecordID     int64        `json:"id"`
	GameID       int64        `json:"game_id"`
	PlatformID   int64        `json:"platform_id"`
	PlatformName string       `json:"platform_name"`
	Date         int64        `json:"date"`
	Human        string       `json:"human"`
	DateFormat   int          `json:"date_format"`
	Status       int          `json:"status,omitempty"`
	Game         *GameSummary `json:"-"`
}

// ReleaseFilter narrows a release list. Zero fields are not applied.
type ReleaseFilter struct {
	PlatformID int64
	GenreID    int64
	StudioID   int64
}

// CacheKey names the snapshot of a list built with this filter
func (f ReleaseFilter) CacheKey(list string) string {
	return fmt.Sprintf("%s:%d:genre=%d:studio=%d", list, f.PlatformID, f.GenreID, f.StudioID)
}

// GameView is the per-game aggregate handed to presentation code
type GameView struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Summary      string          `json:"summary,omitempty"`
	CoverURL     string          `json:"cover_url,omitempty"`
	Screenshots  []string        `json:"screenshots"`
	Platforms    []string        `json:"platforms"`
	ReleaseDate  int64           `json:"release_date"`
	ReleaseDates []ReleaseRecord `json:"release_dates"`
}

// RawReleaseDate is a release date nested inside a game-centric catalog record
type RawReleaseDate struct {
	ID         int64    `json:"id"`
	Human      string   `json:"human"`
	Date       int64    `json:"date"`
	DateFormat int      `json:"date_format"`
	Platform   Platform `json:"platform"`
}

// Website is an external link attached to a game
type Website struct {
	Category int    `json:"category"`
	URL      string `json:"url"`
}

// ExternalGame is a reference to the same game on another service
type ExternalGame struct {
	Category int    `json:"category"`
	UID      string `json:"uid"`
}

// RawGame is the game-centric catalog record
type RawGame struct {
	ID                    int64            `json:"id"`
	Name                  string           `json:"name"`
	Summary               string           `json:"summary,omitempty"`
	CoverURL              string           `json:"cover_url,omitempty"`
	FirstReleaseDate      int64            `json:"first_release_date,omitempty"`
	Status                int              `json:"status,omitempty"`
	Platforms             []Platform       `json:"platforms,omitempty"`
	Screenshots           []string         `json:"screenshots,omitempty"`
	ReleaseDates          []RawReleaseDate `json:"release_dates,omitempty"`
	Websites              []Website        `json:"websites,omitempty"`
	ExternalGames         []ExternalGame   `json:"external_games,omitempty"`
	AggregatedRating      float64          `json:"aggregated_rating,omitempty"`
	AggregatedRatingCount int              `json:"aggregated_rating_count,omitempty"`
}

// Genre is a catalog genre used for filtering
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

// Studio is a catalog company that develops games
type Studio struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// GameDetail is the single-game page model
type GameDetail struct {
	ID                    int64          `json:"id"`
	Name                  string         `json:"name"`
	Summary               string         `json:"summary,omitempty"`
	CoverURL              string         `json:"cover_url,omitempty"`
	Screenshots           []string       `json:"screenshots"`
	Platforms             []string       `json:"platforms"`
	ReleaseDate           int64          `json:"release_date,omitempty"`
	ReleaseLabel          string         `json:"release_label"`
	Websites              []Website      `json:"websites,omitempty"`
	ExternalGames         []ExternalGame `json:"external_games,omitempty"`
	AggregatedRating      float64        `json:"aggregated_rating,omitempty"`
	AggregatedRatingCount int            `json:"aggregated_rating_count,omitempty"`
	Note                  *Note          `json:"note,omitempty"`
}

// ImageURL converts a catalog image URL to the requested size variant.
// Protocol-relative URLs are given an https scheme.
func ImageURL(raw, size string) string {
	if raw == "" {
		return ""
	}
	url := strings.Replace(raw, "t_"+ImageSizeThumb, "t_"+size, 1)
	if strings.HasPrefix(url, "//") {
		url = "https:" + url
	}
	return url
}

// FormatReleaseDate formats a unix timestamp like "January 15, 2025"
func FormatReleaseDate(unix int64) string {
	return time.Unix(unix, 0).UTC().Format(releaseDateLayout)
}

// IsTBD reports whether the record is an unconfirmed release.
// The label test is a best-effort heuristic on the catalog's English labels.
func (r ReleaseRecord) IsTBD() bool {
	if r.DateFormat == DateFormatTBD {
		return true
	}
	return IsTBDLabel(r.Human)
}

// IsTBDLabel reports whether a human readable date label marks an unconfirmed release
func IsTBDLabel(label string) bool {
	lower := strings.ToLower(label)
	return strings.Contains(lower, "tbd") || strings.Contains(lower, "tbc")
}
