package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marquee/internal/domain"
	"marquee/internal/index"
	"marquee/internal/log"
)

func ep(id, showID int64, show string, season, number, playCount, resume int) domain.EpisodeEntry {
	return domain.EpisodeEntry{
		ID:             id,
		ShowID:         showID,
		SourceID:       "src-" + string(rune('a'+id)),
		ShowTitle:      show,
		Title:          "Episode",
		Season:         season,
		Episode:        number,
		PlayCount:      playCount,
		ResumePosition: resume,
		Runtime:        2700,
	}
}

// seedNextUpScenario builds three in-progress shows:
//   - Alpha: one half-watched episode and a later unwatched one
//   - Beta: no partial episode, next unwatched is the S0 special
//   - Gamma: partial episodes in two seasons
func seedNextUpScenario(t *testing.T) *index.MemoryIndex {
	t.Helper()
	idx := index.NewMemory()

	idx.PutShow(domain.ShowEntry{ID: 1, SourceID: "s1", Title: "Alpha", LastPlayed: 300}, "watching")
	idx.PutEpisode(ep(1, 1, "Alpha", 1, 4, 0, 900))
	idx.PutEpisode(ep(2, 1, "Alpha", 1, 5, 0, 0))

	idx.PutShow(domain.ShowEntry{ID: 2, SourceID: "s2", Title: "Beta", LastPlayed: 200}, "watching")
	idx.PutEpisode(ep(3, 2, "Beta", 2, 1, 1, 600)) // watched, keeps the show in progress
	idx.PutEpisode(ep(4, 2, "Beta", 0, 1, 0, 0))   // special
	idx.PutEpisode(ep(5, 2, "Beta", 3, 1, 0, 0))

	idx.PutShow(domain.ShowEntry{ID: 3, SourceID: "s3", Title: "Gamma", LastPlayed: 100}, "watching")
	idx.PutEpisode(ep(6, 3, "Gamma", 2, 8, 0, 120))
	idx.PutEpisode(ep(7, 3, "Gamma", 1, 2, 0, 450))

	return idx
}

func TestSelectorPartialOutranksUnwatched(t *testing.T) {
	idx := seedNextUpScenario(t)
	s := NewSelector(idx, false, log.Null())

	picked, err := s.Select("watching", 10)
	require.NoError(t, err)
	require.Len(t, picked, 3)

	// Shows come in last-played order; each contributes exactly one episode
	assert.Equal(t, int64(1), picked[0].ID, "Alpha contributes its partial episode, not the next unwatched")
	assert.Equal(t, int64(4), picked[1].ID, "Beta has no partial episode and falls back to next unwatched")
	assert.Equal(t, int64(7), picked[2].ID, "Gamma contributes its lowest partial episode")
}

func TestSelectorExcludesSpecialsOnlyFromUnwatched(t *testing.T) {
	idx := seedNextUpScenario(t)
	s := NewSelector(idx, true, log.Null())

	picked, err := s.Select("watching", 10)
	require.NoError(t, err)
	require.Len(t, picked, 3)

	// Beta skips its special and lands on S03E01 instead
	assert.Equal(t, int64(5), picked[1].ID)
	// The partially watched picks are untouched by the filter
	assert.Equal(t, int64(1), picked[0].ID)
	assert.Equal(t, int64(7), picked[2].ID)
}

func TestSelectorLimit(t *testing.T) {
	idx := seedNextUpScenario(t)
	s := NewSelector(idx, false, log.Null())

	picked, err := s.Select("watching", 2)
	require.NoError(t, err)
	require.Len(t, picked, 2)
	assert.Equal(t, int64(1), picked[0].ID)
	assert.Equal(t, int64(4), picked[1].ID)
}

func TestSelectorNonContributingShowDoesNotConsumeLimit(t *testing.T) {
	idx := index.NewMemory()

	// Ranks first by last played, but with specials excluded it has
	// nothing left to offer
	idx.PutShow(domain.ShowEntry{ID: 1, SourceID: "s1", Title: "Stalled", LastPlayed: 900}, "watching")
	idx.PutEpisode(ep(1, 1, "Stalled", 1, 1, 1, 0))
	idx.PutEpisode(ep(2, 1, "Stalled", 0, 1, 0, 0))

	idx.PutShow(domain.ShowEntry{ID: 2, SourceID: "s2", Title: "Ongoing", LastPlayed: 100}, "watching")
	idx.PutEpisode(ep(3, 2, "Ongoing", 1, 1, 0, 300))

	s := NewSelector(idx, true, log.Null())
	picked, err := s.Select("watching", 1)
	require.NoError(t, err)
	require.Len(t, picked, 1)
	assert.Equal(t, int64(3), picked[0].ID, "the stalled show must not use up the only slot")
}

func TestSelectorThreeShowScenario(t *testing.T) {
	idx := index.NewMemory()

	// A: partially watched S01E03
	idx.PutShow(domain.ShowEntry{ID: 1, SourceID: "a", Title: "A", LastPlayed: 300}, "TV Shows")
	idx.PutEpisode(ep(1, 1, "A", 1, 3, 0, 700))

	// B: nothing partial, next unwatched is S02E01
	idx.PutShow(domain.ShowEntry{ID: 2, SourceID: "b", Title: "B", LastPlayed: 200}, "TV Shows")
	idx.PutEpisode(ep(2, 2, "B", 1, 8, 1, 0))
	idx.PutEpisode(ep(3, 2, "B", 2, 1, 0, 0))

	// C: nothing partial and nothing eligible once specials are excluded
	idx.PutShow(domain.ShowEntry{ID: 3, SourceID: "c", Title: "C", LastPlayed: 100}, "TV Shows")
	idx.PutEpisode(ep(4, 3, "C", 1, 1, 1, 0))
	idx.PutEpisode(ep(5, 3, "C", 0, 1, 0, 0))

	s := NewSelector(idx, true, log.Null())
	picked, err := s.Select("TV Shows", 5)
	require.NoError(t, err)

	require.Len(t, picked, 2)
	assert.Equal(t, "A", picked[0].ShowTitle)
	assert.Equal(t, 1, picked[0].Season)
	assert.Equal(t, 3, picked[0].Episode)
	assert.Equal(t, "B", picked[1].ShowTitle)
	assert.Equal(t, 2, picked[1].Season)
	assert.Equal(t, 1, picked[1].Episode)
}

func TestSelectorEmptyIndex(t *testing.T) {
	s := NewSelector(index.NewMemory(), false, log.Null())
	picked, err := s.Select("watching", 10)
	require.NoError(t, err)
	assert.Empty(t, picked)
}

func TestSelectorInProgress(t *testing.T) {
	idx := seedNextUpScenario(t)
	s := NewSelector(idx, false, log.Null())

	eps, err := s.InProgress("watching", 10)
	require.NoError(t, err)
	require.Len(t, eps, 3)

	// All partial episodes, grouped by show, episode order inside a show
	assert.Equal(t, int64(1), eps[0].ID)
	assert.Equal(t, int64(7), eps[1].ID)
	assert.Equal(t, int64(6), eps[2].ID)
}

func TestSelectorInProgressLimit(t *testing.T) {
	idx := seedNextUpScenario(t)
	s := NewSelector(idx, false, log.Null())

	eps, err := s.InProgress("watching", 2)
	require.NoError(t, err)
	assert.Len(t, eps, 2)
}
