package catalog

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// MediaKind names the content family a request targets and selects the
// resolver handling it.
type MediaKind string

const (
	KindMovies      MediaKind = "movies"
	KindTVShows     MediaKind = "tvshows"
	KindEpisodes    MediaKind = "episodes"
	KindMusicVideos MediaKind = "musicvideos"
	KindPVR         MediaKind = "pvr"
	KindAlbums      MediaKind = "albums"
	KindSongs       MediaKind = "songs"
	KindArtists     MediaKind = "artists"
	KindMedia       MediaKind = "media"
	KindFavourites  MediaKind = "favourites"
	KindHub         MediaKind = "hub"
	KindPlaylists   MediaKind = "playlists"
	KindBrowse      MediaKind = "browse"
	KindWatchLater  MediaKind = "watchlater"
	KindMain        MediaKind = "main"
)

// kindInference maps action substrings to media kinds for old-style
// request paths that encode the kind in the action. Matched in order;
// first hit wins.
var kindInference = []struct {
	substr string
	kind   MediaKind
}{
	{"movies", KindMovies},
	{"shows", KindTVShows},
	{"episode", KindEpisodes},
	{"musicvideos", KindMusicVideos},
	{"pvr", KindPVR},
	{"albums", KindAlbums},
	{"songs", KindSongs},
	{"artists", KindArtists},
	{"media", KindMedia},
	{"favourites", KindFavourites},
	{"favorites", KindFavourites},
}

// randomAliases maps alias kinds to their base kind plus the random flag
var randomAliases = map[MediaKind]MediaKind{
	"randommovies":  KindMovies,
	"randomtvshows": KindTVShows,
}

// Request is the typed form of a flat request option mapping.
type Request struct {
	Kind   MediaKind
	Action string
	Limit  int
	Path   string

	// Discriminators
	Tag        string
	Label      string
	ImdbID     string
	MovieLabel string
	TVLabel    string

	SkipCache bool
	Reload    string // cache invalidation checksum; empty accepts anything
	Randomize bool
	Random    bool // alias-driven random browse variant

	HideWatched bool
}

// ParseDefaults carries configuration the parser folds into a request
type ParseDefaults struct {
	Limit       int
	HideWatched bool
}

// ParseOptions turns a raw string option mapping into a typed Request.
// Option names are case-insensitive on input. The rules mirror the
// behavior navigation front-ends depend on: kind inference from old-style
// action strings, skip-cache overrides for favourites and full listings,
// and the random browse aliases.
func ParseOptions(raw map[string]string, defaults ParseDefaults) Request {
	opts := make(map[string]string, len(raw))
	for k, v := range raw {
		opts[strings.ToLower(k)] = v
	}

	req := Request{
		Kind:        MediaKind(opts["mediatype"]),
		Action:      opts["action"],
		Path:        opts["path"],
		Tag:         opts["tag"],
		Label:       opts["label"],
		ImdbID:      opts["imdbid"],
		MovieLabel:  opts["movie_label"],
		TVLabel:     opts["tv_label"],
		Reload:      opts["reload"],
		SkipCache:   opts["skipcache"] == "true",
		Randomize:   opts["randomize"] == "true",
		HideWatched: defaults.HideWatched,
	}

	if v, ok := opts["limit"]; ok {
		req.Limit = cast.ToInt(v)
	}
	if req.Limit <= 0 {
		req.Limit = defaults.Limit
	}

	// Neither kind nor action means the top-level listing
	if req.Kind == "" && req.Action == "" {
		req.Kind = KindMain
	}

	// Old-style paths encode the kind inside the action string
	if req.Kind == "" && req.Action != "" {
		for _, inf := range kindInference {
			if strings.Contains(req.Action, inf.substr) {
				req.Kind = inf.kind
				req.Action = strings.ReplaceAll(req.Action, string(inf.kind), "")
				req.Action = strings.ReplaceAll(req.Action, inf.substr, "")
				break
			}
		}
	}

	if req.Kind != "" {
		if req.Kind == KindFavourites || strings.Contains(req.Action, "favourite") {
			req.SkipCache = true
		}
		if req.Action == "" {
			if req.Kind == KindFavourites {
				req.Action = "favourites"
			} else {
				req.Action = "listing"
			}
		}
		if strings.Contains(req.Action, "listing") {
			req.SkipCache = true
		}
		if base, ok := randomAliases[req.Kind]; ok && req.Action == "browsegenres" {
			req.Kind = base
			req.Random = true
		}
	}

	// A similar lookup without its external id cannot be keyed sensibly
	if req.Action == "similar" && req.ImdbID == "" {
		req.SkipCache = true
	}

	return req
}

// discriminator returns the type-specific cache key component
func (r Request) discriminator() string {
	switch {
	case r.Action == "similar":
		return r.ImdbID
	case r.Action == "playlist" && r.Kind == KindMedia:
		return r.MovieLabel + r.TVLabel
	default:
		return r.Tag
	}
}

// DeriveKey produces the cache key for a request. It is pure and total:
// equal requests (by kind, action, limit, path and discriminator) always
// produce equal keys.
func DeriveKey(r Request) string {
	return fmt.Sprintf("marquee.widgets.%s.%s.%d.%s.%s",
		r.Kind, r.Action, r.Limit, r.Path, r.discriminator())
}

// ContentKind returns the declared content kind the presentation sink
// should sort and render under.
func (r Request) ContentKind() string {
	switch r.Kind {
	case KindFavourites, KindPVR, KindMedia, KindHub, KindPlaylists, KindBrowse, KindMain:
		return "files"
	case KindWatchLater:
		return "movies"
	default:
		return string(r.Kind)
	}
}
