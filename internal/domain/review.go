package domain

import "time"

// ImageVariant holds the size variants of a review image
type ImageVariant struct {
	SM string `json:"sm,omitempty"`
	OG string `json:"og,omitempty"`
}

// ReviewImages holds the box and banner art of a reviewed game
type ReviewImages struct {
	Box    *ImageVariant `json:"box,omitempty"`
	Banner *ImageVariant `json:"banner,omitempty"`
}

// ReviewRecord is a game as reported by the review aggregator.
// JSON names follow the upstream shape so clients can consume it unchanged.
type ReviewRecord struct {
	ID                 int64        `json:"id"`
	Name               string       `json:"name"`
	Images             ReviewImages `json:"images"`
	Tier               string       `json:"tier,omitempty"`
	TopCriticScore     *float64     `json:"topCriticScore,omitempty"`
	NumReviews         int          `json:"numReviews"`
	PercentRecommended *float64     `json:"percentRecommended,omitempty"`
	ReleaseDate        string       `json:"releaseDate,omitempty"`
	EnrichedCoverURL   string       `json:"enrichedCoverUrl,omitempty"`
	LinkedCatalogID    int64        `json:"linkedCatalogId,omitempty"`
}

// TrendingGame is a recently released game from the review aggregator
type TrendingGame struct {
	ReviewRecord
	Platforms []Platform `json:"platforms,omitempty"`
}

// Enrichment is catalog data copied onto a review record
type Enrichment struct {
	CoverURL  string
	CatalogID int64
}

// ApplyEnrichment copies catalog data onto the record
func (r *ReviewRecord) ApplyEnrichment(e Enrichment) {
	r.EnrichedCoverURL = e.CoverURL
	r.LinkedCatalogID = e.CatalogID
}

// Feed names shared by the cache, the warmer and the websocket hub
const (
	FeedReviewedThisWeek = "reviewed-this-week"
	FeedRecentlyReleased = "recently-released"
)

// FeedResult carries a feed together with its provenance
type FeedResult[T any] struct {
	Items     []T       `json:"items"`
	FetchedAt time.Time `json:"fetched_at"`
	// Stale is set when the items are a last-known-good copy served after an upstream failure.
	Stale bool `json:"stale"`
}
