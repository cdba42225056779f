package catalog

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/spf13/cast"

	"marquee/internal/domain"
)

// NormalizeError reports a raw record that could not be converted. The
// caller drops the record and continues the batch.
type NormalizeError struct {
	SourceID string
	Reason   string
}

func (e *NormalizeError) Error() string {
	return fmt.Sprintf("cannot normalize record %q: %s", e.SourceID, e.Reason)
}

// NormalizeContext controls optional label decoration
type NormalizeContext struct {
	AppendShowTitle     bool
	AppendSeasonEpisode bool
}

// kindFromType maps remote type tags to item kinds
var kindFromType = map[string]domain.ItemKind{
	"movie":    domain.KindMovie,
	"show":     domain.KindShow,
	"season":   domain.KindSeason,
	"episode":  domain.KindEpisode,
	"clip":     domain.KindClip,
	"artist":   domain.KindArtist,
	"album":    domain.KindAlbum,
	"track":    domain.KindSong,
	"photo":    domain.KindPhoto,
	"playlist": domain.KindPlaylist,
}

// defaultIcons per kind, used when the record carries no art
var defaultIcons = map[domain.ItemKind]string{
	domain.KindMovie:   "DefaultMovies.png",
	domain.KindShow:    "DefaultTVShows.png",
	domain.KindSeason:  "DefaultTVShows.png",
	domain.KindEpisode: "DefaultTVShows.png",
	domain.KindAlbum:   "DefaultMusicAlbums.png",
	domain.KindArtist:  "DefaultMusicArtists.png",
	domain.KindSong:    "DefaultMusicSongs.png",
	domain.KindPhoto:   "DefaultPicture.png",
	domain.KindFolder:  "DefaultFolder.png",
}

// Normalizer converts one raw source record, joined with the local
// index, into a canonical item.
type Normalizer struct {
	index  domain.Index
	server string
	base   string // dispatch-back base, e.g. "plugin://marquee/"
	nctx   NormalizeContext
	logger *slog.Logger
}

// NewNormalizer creates a normalizer bound to one server and index
func NewNormalizer(index domain.Index, serverURL, dispatchBase string, nctx NormalizeContext, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{
		index:  index,
		server: strings.TrimRight(serverURL, "/"),
		base:   dispatchBase,
		nctx:   nctx,
		logger: logger,
	}
}

// Normalize satisfies TransformFunc. Raw elements that already carry an
// item pass through untouched.
func (n *Normalizer) Normalize(raw Raw) (*domain.Item, error) {
	if raw.Item != nil {
		return raw.Item, nil
	}
	if raw.Record == nil {
		return nil, &NormalizeError{Reason: "empty record"}
	}
	return n.normalizeRecord(raw.Record)
}

func (n *Normalizer) normalizeRecord(rec *RemoteRecord) (*domain.Item, error) {
	if rec.RatingKey == "" {
		return nil, &NormalizeError{Reason: "missing identity"}
	}
	kind, ok := kindFromType[rec.Type]
	if !ok {
		return nil, &NormalizeError{SourceID: rec.RatingKey, Reason: "unknown type tag " + rec.Type}
	}

	item := &domain.Item{
		SourceID:  rec.RatingKey,
		Kind:      kind,
		Label:     rec.Title,
		SortLabel: rec.TitleSort,
		Plot:      rec.Summary,
		Tagline:   rec.Tagline,
		Studio:    rec.Studio,
		Year:      rec.Year,
		PlayCount: rec.ViewCount,
		DateAdded: rec.AddedAt,
		Playable:  kind.Playable(),
		Icon:      defaultIcons[kind],
	}
	if item.SortLabel == "" {
		item.SortLabel = item.Label
	}
	if rec.AudienceRating > 0 {
		item.Rating = rec.AudienceRating
	} else if rec.Rating > 0 {
		item.Rating = rec.Rating
	}
	if rec.LastViewedAt > 0 {
		lp := rec.LastViewedAt
		item.LastPlayed = &lp
	}

	item.Art = n.artMap(rec)
	item.Thumb = item.Art["thumb"]
	for _, g := range rec.Genre {
		item.Genres = append(item.Genres, g.Tag)
	}
	for _, c := range rec.Country {
		item.Countries = append(item.Countries, c.Tag)
	}
	for i, r := range rec.Role {
		item.Cast = append(item.Cast, domain.CastMember{Name: r.Tag, Role: r.Role, Order: i})
	}
	item.Streams = mapStreams(rec)

	// Show hierarchy, extracted once and reused for the canonical
	// fields and the label decoration
	if kind == domain.KindEpisode {
		ref := &domain.EpisodeRef{
			ShowTitle: rec.GrandparentTitle,
			Season:    rec.ParentIndex,
			Number:    rec.Index,
		}
		if ref.ShowTitle != "" || ref.Season > 0 || ref.Number > 0 {
			item.Episode = ref
			item.Label = decorateLabel(item.Label, ref, n.nctx)
		}
	}

	item.Path = n.resolvePath(rec, item.Playable)

	if item.Playable && rec.ViewOffset > 0 {
		item.Resume = &domain.Resume{
			Position: rec.ViewOffset / 1000,
			Total:    rec.Duration / 1000,
		}
	}

	n.mergeLocal(item, rec)

	return item, nil
}

// mergeLocal joins locally indexed playback state into the item. The
// local row, when present, already reconciles user playback state and
// wins over the remote fields.
func (n *Normalizer) mergeLocal(item *domain.Item, rec *RemoteRecord) {
	row, err := n.index.ByKey(item.SourceID, item.Kind)
	if err != nil {
		n.logger.Warn("local index lookup failed", "sourceID", item.SourceID, "error", err)
		return
	}
	if row == nil {
		return
	}
	id := row.LocalID
	item.LocalID = &id
	item.PlayCount = row.PlayCount
	if row.LastPlayed != nil {
		item.LastPlayed = row.LastPlayed
	}
	if item.Playable && row.ResumePosition > 0 {
		item.Resume = &domain.Resume{
			Position: row.ResumePosition,
			Total:    rec.Duration / 1000,
		}
	}
}

// resolvePath picks the URI used to play the item or browse further.
// Remote "service" references and absolute external URLs cannot be
// played directly and become dispatch-back requests instead.
func (n *Normalizer) resolvePath(rec *RemoteRecord, playable bool) string {
	if !playable {
		return n.dispatchPath("browse", "", rec.BrowseKey(), 0)
	}
	if strings.HasPrefix(rec.Key, "/system/services") || isExternalURL(rec.Key) {
		return n.dispatchPath("browse", "node", rec.Key, rec.ViewOffset)
	}
	if partKey := firstPartKey(rec); partKey != "" {
		if isExternalURL(partKey) {
			return n.dispatchPath("browse", "node", rec.Key, rec.ViewOffset)
		}
		return n.server + partKey
	}
	// Playable but no media part resolved yet; re-enter by node key
	return n.dispatchPath("browse", "node", rec.Key, rec.ViewOffset)
}

// dispatchPath builds a path that re-enters the request dispatcher
func (n *Normalizer) dispatchPath(kind MediaKind, action, key string, offset int) string {
	params := url.Values{}
	params.Set("mediatype", string(kind))
	if action != "" {
		params.Set("action", action)
	}
	params.Set("path", key)
	if offset > 0 {
		params.Set("offset", cast.ToString(offset))
	}
	return fmt.Sprintf("%s?%s", n.base, params.Encode())
}

func (n *Normalizer) artMap(rec *RemoteRecord) map[string]string {
	art := make(map[string]string)
	put := func(slot, path string) {
		if path == "" {
			return
		}
		if isExternalURL(path) {
			art[slot] = path
			return
		}
		art[slot] = n.server + path
	}
	put("thumb", rec.Thumb)
	put("fanart", rec.Art)
	put("season.poster", rec.ParentThumb)
	put("tvshow.poster", rec.GrandparentThumb)
	put("tvshow.fanart", rec.GrandparentArt)
	if len(art) == 0 {
		return nil
	}
	return art
}

// mapStreams extracts stream descriptors. Stream attributes arrive
// loosely typed; malformed numerics coerce to zero instead of failing
// the record.
func mapStreams(rec *RemoteRecord) []domain.StreamInfo {
	if len(rec.Media) == 0 {
		return nil
	}
	media := rec.Media[0]

	if len(media.Part) > 0 && len(media.Part[0].Stream) > 0 {
		var streams []domain.StreamInfo
		for _, s := range media.Part[0].Stream {
			info := domain.StreamInfo{
				Codec:    cast.ToString(s["codec"]),
				Width:    cast.ToInt(s["width"]),
				Height:   cast.ToInt(s["height"]),
				Aspect:   cast.ToFloat64(s["aspectRatio"]),
				Language: cast.ToString(s["language"]),
			}
			switch cast.ToInt(s["streamType"]) {
			case 1:
				info.Type = "video"
			case 2:
				info.Type = "audio"
			case 3:
				info.Type = "subtitle"
			default:
				continue
			}
			streams = append(streams, info)
		}
		return streams
	}

	// Fall back to the media-level summary attributes
	var streams []domain.StreamInfo
	if media.VideoCodec != "" || media.Width > 0 {
		streams = append(streams, domain.StreamInfo{
			Type:   "video",
			Codec:  media.VideoCodec,
			Width:  media.Width,
			Height: media.Height,
			Aspect: cast.ToFloat64(media.AspectRatio),
		})
	}
	if media.AudioCodec != "" {
		streams = append(streams, domain.StreamInfo{Type: "audio", Codec: media.AudioCodec})
	}
	return streams
}

// decorateLabel applies the optional episode label decorations. Both
// combined give "SxxExx - Show - Title": the episode code stays the
// outermost prefix.
func decorateLabel(label string, ref *domain.EpisodeRef, nctx NormalizeContext) string {
	if ref == nil {
		return label
	}
	if nctx.AppendShowTitle && ref.ShowTitle != "" {
		label = fmt.Sprintf("%s - %s", ref.ShowTitle, label)
	}
	if nctx.AppendSeasonEpisode && ref.Season > 0 && ref.Number > 0 {
		label = fmt.Sprintf("%s - %s", ref.Code(), label)
	}
	return label
}

func isExternalURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

func firstPartKey(rec *RemoteRecord) string {
	if len(rec.Media) == 0 || len(rec.Media[0].Part) == 0 {
		return ""
	}
	return rec.Media[0].Part[0].Key
}
