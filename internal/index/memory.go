package index

import (
	"sort"
	"sync"

	"marquee/internal/domain"
)

// MemoryIndex is an in-process domain.Index. It backs runs without a
// database file and the package tests.
type MemoryIndex struct {
	mu       sync.RWMutex
	items    map[string]domain.IndexRow // keyed by sourceID + "|" + kind
	shows    []domain.ShowEntry
	tags     map[int64]string // show id to tag
	episodes []domain.EpisodeEntry
}

func NewMemory() *MemoryIndex {
	return &MemoryIndex{
		items: make(map[string]domain.IndexRow),
		tags:  make(map[int64]string),
	}
}

func (m *MemoryIndex) Close() error { return nil }

func (m *MemoryIndex) PutItem(sourceID string, row domain.IndexRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[sourceID+"|"+string(row.Kind)] = row
}

func (m *MemoryIndex) PutShow(entry domain.ShowEntry, tag string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shows = append(m.shows, entry)
	m.tags[entry.ID] = tag
}

func (m *MemoryIndex) PutEpisode(entry domain.EpisodeEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.episodes = append(m.episodes, entry)
}

func (m *MemoryIndex) ByKey(sourceID string, kind domain.ItemKind) (*domain.IndexRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.items[sourceID+"|"+string(kind)]
	if !ok {
		return nil, nil
	}
	out := row
	return &out, nil
}

func (m *MemoryIndex) ShowsByTag(tag string) ([]domain.ShowEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.ShowEntry
	for _, s := range m.shows {
		if m.tags[s.ID] == tag {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MemoryIndex) ShowsInProgress(tag string) ([]domain.ShowEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.ShowEntry
	for _, s := range m.shows {
		if tag != "" && m.tags[s.ID] != tag {
			continue
		}
		var started, remaining bool
		for _, e := range m.episodes {
			if e.ShowID != s.ID {
				continue
			}
			if e.ResumePosition > 0 || e.PlayCount > 0 {
				started = true
			}
			if e.PlayCount < 1 {
				remaining = true
			}
		}
		if started && remaining {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastPlayed > out[j].LastPlayed
	})
	return out, nil
}

func (m *MemoryIndex) EpisodesInProgress(showID int64) ([]domain.EpisodeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.EpisodeEntry
	for _, e := range m.episodes {
		if e.ShowID == showID && e.ResumePosition > 0 && e.PlayCount < 1 {
			out = append(out, e)
		}
	}
	sortByPosition(out)
	return out, nil
}

func (m *MemoryIndex) NextUnwatched(showID int64, excludeSpecials bool) (*domain.EpisodeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var candidates []domain.EpisodeEntry
	for _, e := range m.episodes {
		if e.ShowID != showID || e.PlayCount >= 1 {
			continue
		}
		if excludeSpecials && e.Season == 0 {
			continue
		}
		candidates = append(candidates, e)
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sortByPosition(candidates)
	out := candidates[0]
	return &out, nil
}

func (m *MemoryIndex) RecentEpisodes(limit int, unwatchedOnly bool) ([]domain.EpisodeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.EpisodeEntry
	for _, e := range m.episodes {
		if unwatchedOnly && e.PlayCount >= 1 {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DateAdded > out[j].DateAdded
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortByPosition(eps []domain.EpisodeEntry) {
	sort.SliceStable(eps, func(i, j int) bool {
		if eps[i].Season != eps[j].Season {
			return eps[i].Season < eps[j].Season
		}
		return eps[i].Episode < eps[j].Episode
	})
}
