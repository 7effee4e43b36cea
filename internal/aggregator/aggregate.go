// Package aggregator folds catalog release records into ranked per-game views
// and enriches review records with catalog data.
package aggregator

import (
	"cmp"
	"slices"
	"time"

	"github.com/gamestracker/internal/domain"
)

// DefaultCap is the result size of the release list views
const DefaultCap = 20

const secondsPerDay = 24 * 60 * 60

// Window describes which release records are valid for a query
type Window struct {
	Now        time.Time
	Days       int
	PlatformID int64
}

// GroupByGame folds release records into one view per distinct game id.
// Views keep the order in which their game first appeared; release dates are sorted ascending.
func GroupByGame(records []domain.ReleaseRecord) []domain.GameView {
	index := make(map[int64]int)
	views := make([]domain.GameView, 0)

	for _, rec := range records {
		i, ok := index[rec.GameID]
		if !ok {
			i = len(views)
			index[rec.GameID] = i
			views = append(views, newView(rec))
		}
		views[i].ReleaseDates = append(views[i].ReleaseDates, rec)
	}

	for i := range views {
		slices.SortStableFunc(views[i].ReleaseDates, func(a, b domain.ReleaseRecord) int {
			return cmp.Compare(a.Date, b.Date)
		})
		views[i].Platforms = platformNames(views[i])
	}
	return views
}

// IsTBD reports whether a record is an unconfirmed release
func IsTBD(rec domain.ReleaseRecord) bool {
	return rec.IsTBD()
}

// Upcoming returns games with a valid release strictly after w.Now and at most
// w.Days ahead, ranked by their soonest release and truncated to limit.
func Upcoming(records []domain.ReleaseRecord, w Window, limit int) []domain.GameView {
	now := w.Now.Unix()
	end := now + int64(w.Days)*secondsPerDay

	valid := filter(records, w, func(date int64) bool {
		return date > now && (w.Days <= 0 || date <= end)
	})

	views := GroupByGame(valid)
	for i := range views {
		views[i].ReleaseDate = soonest(views[i].ReleaseDates)
	}
	sortUpcoming(views)
	return Limit(views, limit)
}

// Recent returns games with a valid release in [w.Now - w.Days, w.Now],
// ranked by their latest release descending and truncated to limit.
func Recent(records []domain.ReleaseRecord, w Window, limit int) []domain.GameView {
	now := w.Now.Unix()
	start := now - int64(w.Days)*secondsPerDay

	valid := filter(records, w, func(date int64) bool {
		return date <= now && (w.Days <= 0 || date >= start)
	})

	views := GroupByGame(valid)
	for i := range views {
		views[i].ReleaseDate = latest(views[i].ReleaseDates)
	}
	sortRecent(views)
	return Limit(views, limit)
}

// StillUpcoming re-applies the upcoming window to views built at an earlier
// time. Release dates that are no longer ahead of w.Now are dropped, and so
// are games left without any.
func StillUpcoming(views []domain.GameView, w Window) []domain.GameView {
	now := w.Now.Unix()
	end := now + int64(w.Days)*secondsPerDay

	kept := recheck(views, func(date int64) bool {
		return date > now && (w.Days <= 0 || date <= end)
	}, soonest)
	sortUpcoming(kept)
	return kept
}

// StillRecent re-applies the recent window to views built at an earlier time
func StillRecent(views []domain.GameView, w Window) []domain.GameView {
	now := w.Now.Unix()
	start := now - int64(w.Days)*secondsPerDay

	kept := recheck(views, func(date int64) bool {
		return date <= now && (w.Days <= 0 || date >= start)
	}, latest)
	sortRecent(kept)
	return kept
}

// FlattenGames converts game-centric catalog records into release records so
// they can go through the same pipeline as the release_dates feed.
func FlattenGames(games []domain.RawGame) []domain.ReleaseRecord {
	var records []domain.ReleaseRecord
	for _, g := range games {
		summary := &domain.GameSummary{
			ID:          g.ID,
			Name:        g.Name,
			Summary:     g.Summary,
			CoverURL:    g.CoverURL,
			Screenshots: g.Screenshots,
			Status:      g.Status,
		}
		for _, p := range g.Platforms {
			summary.Platforms = append(summary.Platforms, p.Name)
		}

		for _, rd := range g.ReleaseDates {
			records = append(records, domain.ReleaseRecord{
				RecordID:     rd.ID,
				GameID:       g.ID,
				PlatformID:   rd.Platform.ID,
				PlatformName: rd.Platform.Name,
				Date:         rd.Date,
				Human:        rd.Human,
				DateFormat:   rd.DateFormat,
				Status:       g.Status,
				Game:         summary,
			})
		}
	}
	return records
}

// Limit truncates items to n. n <= 0 returns every item.
func Limit[T any](items []T, n int) []T {
	if n <= 0 || len(items) <= n {
		return items
	}
	return items[:n]
}

func filter(records []domain.ReleaseRecord, w Window, inWindow func(date int64) bool) []domain.ReleaseRecord {
	valid := make([]domain.ReleaseRecord, 0, len(records))
	for _, rec := range records {
		if w.PlatformID != 0 && rec.PlatformID != w.PlatformID {
			continue
		}
		if rec.IsTBD() {
			continue
		}
		if rec.Status == domain.GameStatusCancelled || rec.Status == domain.GameStatusDelisted {
			continue
		}
		if !inWindow(rec.Date) {
			continue
		}
		valid = append(valid, rec)
	}
	return valid
}

// recheck keeps the release dates of each view that still satisfy inWindow
// and recomputes the representative date from them
func recheck(views []domain.GameView, inWindow func(date int64) bool, pick func([]domain.ReleaseRecord) int64) []domain.GameView {
	kept := make([]domain.GameView, 0, len(views))
	for _, view := range views {
		dates := make([]domain.ReleaseRecord, 0, len(view.ReleaseDates))
		for _, rec := range view.ReleaseDates {
			if inWindow(rec.Date) {
				dates = append(dates, rec)
			}
		}
		if len(dates) == 0 {
			continue
		}
		view.ReleaseDates = dates
		view.ReleaseDate = pick(dates)
		kept = append(kept, view)
	}
	return kept
}

// soonest expects dates sorted ascending
func soonest(dates []domain.ReleaseRecord) int64 {
	return dates[0].Date
}

// latest expects dates sorted ascending
func latest(dates []domain.ReleaseRecord) int64 {
	return dates[len(dates)-1].Date
}

func sortUpcoming(views []domain.GameView) {
	slices.SortStableFunc(views, func(a, b domain.GameView) int {
		return cmp.Or(cmp.Compare(a.ReleaseDate, b.ReleaseDate), cmp.Compare(a.ID, b.ID))
	})
}

func sortRecent(views []domain.GameView) {
	slices.SortStableFunc(views, func(a, b domain.GameView) int {
		return cmp.Or(cmp.Compare(b.ReleaseDate, a.ReleaseDate), cmp.Compare(a.ID, b.ID))
	})
}

func newView(rec domain.ReleaseRecord) domain.GameView {
	view := domain.GameView{
		ID:          rec.GameID,
		Screenshots: []string{},
	}
	if rec.Game == nil {
		return view
	}
	view.Name = rec.Game.Name
	view.Summary = rec.Game.Summary
	view.CoverURL = domain.ImageURL(rec.Game.CoverURL, domain.ImageSizeCoverBig)
	for _, s := range rec.Game.Screenshots {
		view.Screenshots = append(view.Screenshots, domain.ImageURL(s, domain.ImageSizeScreenshotBig))
	}
	view.Platforms = rec.Game.Platforms
	return view
}

// platformNames prefers the game's own platform list and falls back to the
// distinct platforms of its release records.
func platformNames(view domain.GameView) []string {
	if len(view.Platforms) > 0 {
		return view.Platforms
	}
	names := []string{}
	for _, rec := range view.ReleaseDates {
		if rec.PlatformName != "" && !slices.Contains(names, rec.PlatformName) {
			names = append(names, rec.PlatformName)
		}
	}
	return names
}
