package catalog

import (
	"log/slog"

	"marquee/internal/domain"
)

// Selector picks the next-up episode per show from the local index. It
// is stateless across calls; every invocation works the full list of
// in-progress shows.
type Selector struct {
	index           domain.Index
	excludeSpecials bool
	logger          *slog.Logger
}

// NewSelector creates a selector. excludeSpecials only applies to the
// next-unwatched query, never to in-progress episodes.
func NewSelector(index domain.Index, excludeSpecials bool, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{index: index, excludeSpecials: excludeSpecials, logger: logger}
}

// Select returns at most one episode per in-progress show, at most limit
// in total, in show order (last played descending) then episode order.
// For each show the partially watched episode outranks the next unwatched
// one; a show contributing nothing does not consume the limit.
func (s *Selector) Select(tag string, limit int) ([]domain.EpisodeEntry, error) {
	shows, err := s.index.ShowsInProgress(tag)
	if err != nil {
		return nil, err
	}

	var picked []domain.EpisodeEntry
	for _, show := range shows {
		ep, err := s.pick(show.ID)
		if err != nil {
			return nil, err
		}
		if ep == nil {
			continue
		}
		picked = append(picked, *ep)
		if len(picked) >= limit {
			break
		}
	}
	return picked, nil
}

// pick returns the show's single contribution: its lowest in-progress
// episode, or failing that its next unwatched one.
func (s *Selector) pick(showID int64) (*domain.EpisodeEntry, error) {
	inProgress, err := s.index.EpisodesInProgress(showID)
	if err != nil {
		return nil, err
	}
	if len(inProgress) > 0 {
		// Already ordered by season then episode; take the first
		return &inProgress[0], nil
	}
	return s.index.NextUnwatched(showID, s.excludeSpecials)
}

// InProgress returns every partially watched episode of every
// in-progress show, capped at limit, in show-then-episode order.
func (s *Selector) InProgress(tag string, limit int) ([]domain.EpisodeEntry, error) {
	shows, err := s.index.ShowsInProgress(tag)
	if err != nil {
		return nil, err
	}

	var out []domain.EpisodeEntry
	for _, show := range shows {
		eps, err := s.index.EpisodesInProgress(show.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, eps...)
		if len(out) >= limit {
			out = out[:limit]
			break
		}
	}
	return out, nil
}
