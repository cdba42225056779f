package domain

// IndexRow is the local playback state tracked for one remote record.
type IndexRow struct {
	LocalID        int64
	Kind           ItemKind
	PlayCount      int
	LastPlayed     *int64
	ResumePosition int // seconds; 0 when not in progress
	Unwatched      int // unwatched leaf count for container rows
}

// ShowEntry is one show row of the local index
type ShowEntry struct {
	ID         int64
	SourceID   string
	Title      string
	LastPlayed int64
}

// EpisodeEntry is one episode row of the local index, carrying everything
// needed to present the episode without a remote round trip.
type EpisodeEntry struct {
	ID             int64
	ShowID         int64
	SourceID       string
	ShowTitle      string
	Title          string
	Season         int
	Episode        int
	Plot           string
	File           string
	Rating         float64
	PlayCount      int
	ResumePosition int // seconds
	Runtime        int // seconds
	Art            map[string]string
	DateAdded      int64
	LastPlayed     int64
}

// Index is the local structured index. Absence of a row is a normal
// outcome, reported as (nil, nil), never an error.
type Index interface {
	// ByKey looks up local state for one remote identity
	ByKey(sourceID string, kind ItemKind) (*IndexRow, error)

	// ShowsByTag returns all shows carrying the tag, most recently
	// added first
	ShowsByTag(tag string) ([]ShowEntry, error)

	// ShowsInProgress returns shows with playback activity and unwatched
	// episodes remaining, filtered by tag, ordered by last played
	// descending
	ShowsInProgress(tag string) ([]ShowEntry, error)

	// EpisodesInProgress returns the partially watched episodes of one
	// show, ordered by season then episode number
	EpisodesInProgress(showID int64) ([]EpisodeEntry, error)

	// NextUnwatched returns the first unwatched episode of a show in
	// episode order, or nil when the show has none. Season 0 is skipped
	// when excludeSpecials is set.
	NextUnwatched(showID int64, excludeSpecials bool) (*EpisodeEntry, error)

	// RecentEpisodes returns episodes ordered by date added descending,
	// optionally restricted to unwatched ones
	RecentEpisodes(limit int, unwatchedOnly bool) ([]EpisodeEntry, error)

	Close() error
}
