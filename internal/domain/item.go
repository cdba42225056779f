package domain

import "fmt"

// ItemKind distinguishes content types as reported by the remote source
type ItemKind string

const (
	KindFolder   ItemKind = "folder"
	KindMovie    ItemKind = "movie"
	KindShow     ItemKind = "show"
	KindSeason   ItemKind = "season"
	KindEpisode  ItemKind = "episode"
	KindClip     ItemKind = "clip"
	KindArtist   ItemKind = "artist"
	KindAlbum    ItemKind = "album"
	KindSong     ItemKind = "song"
	KindPhoto    ItemKind = "photo"
	KindPlaylist ItemKind = "playlist"
)

// Playable reports whether this kind represents directly playable content.
// Folder-like kinds (show, season, album, ...) always browse further.
func (k ItemKind) Playable() bool {
	switch k {
	case KindMovie, KindEpisode, KindSong, KindClip:
		return true
	default:
		return false
	}
}

// Resume holds a saved playback position. Position and Total are seconds.
type Resume struct {
	Position int `json:"position"`
	Total    int `json:"total"`
}

// StreamInfo describes one A/V stream of a playable item
type StreamInfo struct {
	Type     string  `json:"type"` // "video", "audio", "subtitle"
	Codec    string  `json:"codec,omitempty"`
	Width    int     `json:"width,omitempty"`
	Height   int     `json:"height,omitempty"`
	Aspect   float64 `json:"aspect,omitempty"`
	Language string  `json:"language,omitempty"`
}

// CastMember is one entry of an ordered cast list
type CastMember struct {
	Name  string `json:"name"`
	Role  string `json:"role,omitempty"`
	Order int    `json:"order"`
}

// EpisodeRef carries the show hierarchy of an episode item. The three
// fields are present or absent together.
type EpisodeRef struct {
	ShowTitle string `json:"show_title"`
	Season    int    `json:"season"`
	Number    int    `json:"number"`
}

// Code returns the fixed-width episode code, e.g. "S02E05"
func (r EpisodeRef) Code() string {
	return fmt.Sprintf("S%02dE%02d", r.Season, r.Number)
}

// Item is the normalized record every resolver and consumer agrees on.
// It is pure data; all behavior lives in the pipeline that produces it.
type Item struct {
	// Identity
	SourceID string   `json:"source_id"`
	Kind     ItemKind `json:"kind"`

	// Presentation
	Label     string            `json:"label"`
	SortLabel string            `json:"sort_label,omitempty"`
	Plot      string            `json:"plot,omitempty"`
	Tagline   string            `json:"tagline,omitempty"`
	Thumb     string            `json:"thumb,omitempty"`
	Art       map[string]string `json:"art,omitempty"`
	Icon      string            `json:"icon,omitempty"`

	// Playback
	Playable bool         `json:"playable"`
	Path     string       `json:"path,omitempty"`
	Resume   *Resume      `json:"resume,omitempty"`
	Streams  []StreamInfo `json:"streams,omitempty"`

	// Classification
	Genres     []string     `json:"genres,omitempty"`
	Countries  []string     `json:"countries,omitempty"`
	Cast       []CastMember `json:"cast,omitempty"`
	Studio     string       `json:"studio,omitempty"`
	Year       int          `json:"year,omitempty"`
	Rating     float64      `json:"rating,omitempty"`
	PlayCount  int          `json:"play_count,omitempty"`
	DateAdded  int64        `json:"date_added,omitempty"`
	LastPlayed *int64       `json:"last_played,omitempty"` // nil when never played

	// Hierarchy (episodes only)
	Episode *EpisodeRef `json:"episode,omitempty"`

	// Local-index linkage; nil when the local index has no matching row
	LocalID *int64 `json:"local_id,omitempty"`
}

// IsFolder reports whether the item browses further instead of playing
func (i *Item) IsFolder() bool {
	return !i.Playable
}

// EpisodeCode returns the episode code or "" for non-episodes
func (i *Item) EpisodeCode() string {
	if i.Episode == nil {
		return ""
	}
	return i.Episode.Code()
}
