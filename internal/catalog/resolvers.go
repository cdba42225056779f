package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	sahilm "github.com/sahilm/fuzzy"

	"marquee/internal/domain"
)

// Resolver turns a typed request into raw source records (or finished
// items) for one media kind. Remote reports whether resolution needs the
// remote source, so the dispatcher knows to pass the readiness gate
// first.
type Resolver interface {
	Resolve(ctx context.Context, req Request) ([]Raw, error)
	Remote(req Request) bool
}

// contentGroup buckets media kinds the way the aggregated hub feed and
// playlist types are split
func contentGroup(kind MediaKind) string {
	switch kind {
	case KindMovies, KindTVShows, KindEpisodes, KindMusicVideos:
		return "video"
	case KindAlbums, KindSongs, KindArtists:
		return "audio"
	case "photos":
		return "image"
	default:
		return ""
	}
}

// hubGroups maps remote entry types to content groups
var hubGroups = map[string]string{
	"movie":   "video",
	"show":    "video",
	"episode": "video",
	"clip":    "video",
	"mixed":   "video",
	"artist":  "audio",
	"album":   "audio",
	"track":   "audio",
	"photo":   "image",
}

// folderEntry builds a simple directory item the way main listings do
func folderEntry(label, path, icon string) *domain.Item {
	return &domain.Item{
		Kind:      domain.KindFolder,
		Label:     label,
		SortLabel: label,
		Path:      path,
		Icon:      icon,
		Playable:  false,
	}
}

// EpisodesResolver serves the episode widgets: next-up/on-deck selection,
// in-progress listings and recently added episodes. The selection views
// work entirely off the local index; the on-deck view falls back to the
// remote feed when the extended local mode is disabled.
type EpisodesResolver struct {
	index    domain.Index
	source   Source
	selector *Selector
	nctx     NormalizeContext
	extended bool // resolve on-deck locally instead of the remote feed
	logger   *slog.Logger
}

// NewEpisodesResolver wires the episode widget resolver
func NewEpisodesResolver(index domain.Index, source Source, selector *Selector, nctx NormalizeContext, extendedOnDeck bool, logger *slog.Logger) *EpisodesResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &EpisodesResolver{
		index:    index,
		source:   source,
		selector: selector,
		nctx:     nctx,
		extended: extendedOnDeck,
		logger:   logger,
	}
}

func (r *EpisodesResolver) Remote(req Request) bool {
	switch req.Action {
	case "ondeck":
		return !r.extended
	case "nextup", "inprogress", "recent":
		return false
	default:
		return true
	}
}

func (r *EpisodesResolver) Resolve(ctx context.Context, req Request) ([]Raw, error) {
	switch req.Action {
	case "nextup":
		return r.nextUp(req)
	case "ondeck":
		if r.extended {
			return r.nextUp(req)
		}
		records, err := r.source.GetOnDeck(ctx, req.Path)
		if err != nil {
			return nil, err
		}
		return recordsToRaw(limitRecords(records, req.Limit)), nil
	case "inprogress":
		eps, err := r.selector.InProgress(req.Tag, req.Limit)
		if err != nil {
			return nil, err
		}
		return r.episodeRaws(eps), nil
	case "recent":
		return r.recent(req)
	default:
		records, err := r.source.GetChildren(ctx, req.Path)
		if err != nil {
			return nil, err
		}
		return recordsToRaw(records), nil
	}
}

func (r *EpisodesResolver) nextUp(req Request) ([]Raw, error) {
	eps, err := r.selector.Select(req.Tag, req.Limit)
	if err != nil {
		return nil, err
	}
	return r.episodeRaws(eps), nil
}

// recent lists recently added episodes, restricted to shows carrying the
// request tag
func (r *EpisodesResolver) recent(req Request) ([]Raw, error) {
	shows, err := r.index.ShowsByTag(req.Tag)
	if err != nil {
		return nil, err
	}
	wanted := make(map[int64]bool, len(shows))
	for _, s := range shows {
		wanted[s.ID] = true
	}

	eps, err := r.index.RecentEpisodes(req.Limit*4, req.HideWatched)
	if err != nil {
		return nil, err
	}

	var out []Raw
	for _, e := range eps {
		if !wanted[e.ShowID] {
			continue
		}
		out = append(out, r.episodeRaw(e))
		if len(out) >= req.Limit {
			break
		}
	}
	return out, nil
}

func (r *EpisodesResolver) episodeRaws(eps []domain.EpisodeEntry) []Raw {
	raws := make([]Raw, 0, len(eps))
	for _, e := range eps {
		raws = append(raws, r.episodeRaw(e))
	}
	return raws
}

// episodeRaw builds a finished item from a local index row; these rows
// already reconcile playback state, so they bypass normalization.
func (r *EpisodesResolver) episodeRaw(e domain.EpisodeEntry) Raw {
	ref := &domain.EpisodeRef{ShowTitle: e.ShowTitle, Season: e.Season, Number: e.Episode}
	localID := e.ID
	item := &domain.Item{
		SourceID:  e.SourceID,
		Kind:      domain.KindEpisode,
		Label:     decorateLabel(e.Title, ref, r.nctx),
		SortLabel: e.Title,
		Plot:      e.Plot,
		Playable:  true,
		Path:      e.File,
		Rating:    e.Rating,
		PlayCount: e.PlayCount,
		DateAdded: e.DateAdded,
		Art:       e.Art,
		Icon:      defaultIcons[domain.KindEpisode],
		Episode:   ref,
		LocalID:   &localID,
	}
	if thumb, ok := e.Art["thumb"]; ok {
		item.Thumb = thumb
	}
	if e.LastPlayed > 0 {
		lp := e.LastPlayed
		item.LastPlayed = &lp
	}
	if e.ResumePosition > 0 {
		item.Resume = &domain.Resume{Position: e.ResumePosition, Total: e.Runtime}
	}
	return Raw{Item: item}
}

// LibraryResolver serves section-level listings for one content family:
// full listings by container key and the recently-added feed.
type LibraryResolver struct {
	source Source
}

func NewLibraryResolver(source Source) *LibraryResolver {
	return &LibraryResolver{source: source}
}

func (r *LibraryResolver) Remote(Request) bool { return true }

func (r *LibraryResolver) Resolve(ctx context.Context, req Request) ([]Raw, error) {
	switch req.Action {
	case "recent":
		records, err := r.source.GetRecentlyAdded(ctx, req.Path)
		if err != nil {
			return nil, err
		}
		return recordsToRaw(limitRecords(records, req.Limit)), nil
	default:
		records, err := r.source.GetChildren(ctx, sectionKey(req.Path))
		if err != nil {
			return nil, err
		}
		return recordsToRaw(limitRecords(records, req.Limit)), nil
	}
}

// sectionKey accepts either a full container key or a bare section id
func sectionKey(path string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}
	return fmt.Sprintf("/library/sections/%s/all", path)
}

// HubResolver lists the aggregated hub feed, keeping only entries whose
// type belongs to the requested content group. Entries become folder
// items that dispatch back into the catalog.
type HubResolver struct {
	source Source
	base   string
}

func NewHubResolver(source Source, dispatchBase string) *HubResolver {
	return &HubResolver{source: source, base: dispatchBase}
}

func (r *HubResolver) Remote(Request) bool { return true }

func (r *HubResolver) Resolve(ctx context.Context, req Request) ([]Raw, error) {
	hubs, err := r.source.GetHubs(ctx)
	if err != nil {
		return nil, err
	}

	// No group on the request means a widget wants everything
	group := contentGroup(MediaKind(req.Label))

	var out []Raw
	for _, hub := range hubs {
		if group != "" && hubGroups[hub.Type] != group {
			continue
		}
		path := dispatchBrowse(r.base, hub.Key)
		out = append(out, Raw{Item: folderEntry(hub.Title, path, "DefaultVideo.png")})
	}
	return out, nil
}

// PlaylistsResolver lists playlists of one playlist type as browsable
// folder items
type PlaylistsResolver struct {
	source Source
	base   string
}

func NewPlaylistsResolver(source Source, dispatchBase string) *PlaylistsResolver {
	return &PlaylistsResolver{source: source, base: dispatchBase}
}

func (r *PlaylistsResolver) Remote(Request) bool { return true }

func (r *PlaylistsResolver) Resolve(ctx context.Context, req Request) ([]Raw, error) {
	records, err := r.source.GetPlaylists(ctx)
	if err != nil {
		return nil, err
	}

	var out []Raw
	for _, rec := range records {
		if req.Label != "" && rec.PlaylistType != req.Label {
			continue
		}
		item := folderEntry(rec.Title, dispatchBrowse(r.base, rec.Key), "DefaultPlaylist.png")
		if rec.Composite != "" {
			item.Thumb = rec.Composite
		}
		out = append(out, Raw{Item: item})
	}
	return out, nil
}

// WatchLaterResolver lists the remote watch-later queue. Its entries
// frequently point at service references, which the normalizer turns
// into dispatch-back requests.
type WatchLaterResolver struct {
	source Source
}

func NewWatchLaterResolver(source Source) *WatchLaterResolver {
	return &WatchLaterResolver{source: source}
}

func (r *WatchLaterResolver) Remote(Request) bool { return true }

func (r *WatchLaterResolver) Resolve(ctx context.Context, req Request) ([]Raw, error) {
	records, err := r.source.GetWatchLater(ctx)
	if err != nil {
		return nil, err
	}
	return recordsToRaw(limitRecords(records, req.Limit)), nil
}

// BrowseResolver lists the children of an arbitrary container key
type BrowseResolver struct {
	source Source
}

func NewBrowseResolver(source Source) *BrowseResolver {
	return &BrowseResolver{source: source}
}

func (r *BrowseResolver) Remote(Request) bool { return true }

func (r *BrowseResolver) Resolve(ctx context.Context, req Request) ([]Raw, error) {
	records, err := r.source.GetChildren(ctx, req.Path)
	if err != nil {
		return nil, err
	}
	return recordsToRaw(records), nil
}

// SearchResolver serves "search" and "similar": a server-side search
// pre-filtered with normalized fold matching and ranked by fuzzy score.
type SearchResolver struct {
	source Source
}

func NewSearchResolver(source Source) *SearchResolver {
	return &SearchResolver{source: source}
}

func (r *SearchResolver) Remote(Request) bool { return true }

func (r *SearchResolver) Resolve(ctx context.Context, req Request) ([]Raw, error) {
	query := req.Label
	if query == "" {
		query = req.Tag
	}
	records, err := r.source.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	// Keep plausible candidates, then rank them
	candidates := records[:0:0]
	titles := make([]string, 0, len(records))
	for _, rec := range records {
		if !fuzzy.MatchNormalizedFold(query, rec.Title) {
			continue
		}
		if req.Action == "similar" && strings.EqualFold(rec.Title, query) {
			continue
		}
		candidates = append(candidates, rec)
		titles = append(titles, rec.Title)
	}

	matches := sahilm.Find(query, titles)
	out := make([]Raw, 0, len(matches))
	for _, m := range matches {
		rec := candidates[m.Index]
		out = append(out, Raw{Record: &rec})
		if len(out) >= req.Limit {
			break
		}
	}
	return out, nil
}

// MainResolver produces the top-level listing: one folder per library
// section plus the fixed entries.
type MainResolver struct {
	source Source
	base   string
}

func NewMainResolver(source Source, dispatchBase string) *MainResolver {
	return &MainResolver{source: source, base: dispatchBase}
}

func (r *MainResolver) Remote(Request) bool { return true }

// sectionIcons per section type
var sectionIcons = map[string]string{
	"movie":  "DefaultMovies.png",
	"show":   "DefaultTVShows.png",
	"artist": "DefaultMusicSongs.png",
	"photo":  "DefaultPicture.png",
}

func (r *MainResolver) Resolve(ctx context.Context, req Request) ([]Raw, error) {
	sections, err := r.source.GetSections(ctx)
	if err != nil {
		return nil, err
	}

	var out []Raw
	for _, sec := range sections {
		icon, ok := sectionIcons[sec.Type]
		if !ok {
			icon = "DefaultFolder.png"
		}
		key := fmt.Sprintf("/library/sections/%s/all", sec.Key)
		out = append(out, Raw{Item: folderEntry(sec.Title, dispatchBrowse(r.base, key), icon)})
	}

	out = append(out,
		Raw{Item: folderEntry("Playlists", dispatchAction(r.base, KindPlaylists, ""), "DefaultPlaylist.png")},
		Raw{Item: folderEntry("Hub", dispatchAction(r.base, KindHub, ""), "DefaultVideo.png")},
		Raw{Item: folderEntry("Watch Later", dispatchAction(r.base, KindWatchLater, ""), "DefaultVideo.png")},
	)
	return out, nil
}

// ActionRouter delegates selected actions to dedicated resolvers and
// everything else to a fallback. It lets one media kind serve both its
// section listings and the search-backed views.
type ActionRouter struct {
	fallback Resolver
	routes   map[string]Resolver
}

func NewActionRouter(fallback Resolver, routes map[string]Resolver) *ActionRouter {
	return &ActionRouter{fallback: fallback, routes: routes}
}

func (r *ActionRouter) pick(req Request) Resolver {
	if res, ok := r.routes[req.Action]; ok {
		return res
	}
	return r.fallback
}

func (r *ActionRouter) Remote(req Request) bool {
	return r.pick(req).Remote(req)
}

func (r *ActionRouter) Resolve(ctx context.Context, req Request) ([]Raw, error) {
	return r.pick(req).Resolve(ctx, req)
}

// === shared helpers ===

func recordsToRaw(records []RemoteRecord) []Raw {
	raws := make([]Raw, len(records))
	for i := range records {
		raws[i] = Raw{Record: &records[i]}
	}
	return raws
}

func limitRecords(records []RemoteRecord, limit int) []RemoteRecord {
	if limit > 0 && len(records) > limit {
		return records[:limit]
	}
	return records
}

func dispatchBrowse(base, key string) string {
	return fmt.Sprintf("%s?mediatype=browse&path=%s", base, url.QueryEscape(key))
}

func dispatchAction(base string, kind MediaKind, action string) string {
	if action == "" {
		return fmt.Sprintf("%s?mediatype=%s", base, kind)
	}
	return fmt.Sprintf("%s?mediatype=%s&action=%s", base, kind, action)
}
