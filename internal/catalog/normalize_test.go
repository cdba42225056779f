package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marquee/internal/domain"
	"marquee/internal/index"
	"marquee/internal/log"
	"marquee/internal/plex"
)

const (
	testServer = "http://plex.local:32400"
	testBase   = "marquee://catalog"
)

func newTestNormalizer(idx domain.Index, nctx NormalizeContext) *Normalizer {
	if idx == nil {
		idx = index.NewMemory()
	}
	return NewNormalizer(idx, testServer, testBase, nctx, log.Null())
}

func movieRecord() *plex.Metadata {
	return &plex.Metadata{
		RatingKey: "101",
		Key:       "/library/metadata/101",
		Type:      "movie",
		Title:     "Heat",
		Summary:   "A crew of professional thieves.",
		Year:      1995,
		Rating:    8.3,
		Duration:  10200000,
		Thumb:     "/library/metadata/101/thumb",
		Art:       "/library/metadata/101/art",
		Genre:     []plex.Tag{{Tag: "Crime"}, {Tag: "Thriller"}},
		Country:   []plex.Tag{{Tag: "USA"}},
		Role:      []plex.Role{{Tag: "Al Pacino", Role: "Vincent Hanna"}},
		Media: []plex.Media{{
			VideoCodec: "h264",
			Width:      1920,
			Height:     1080,
			Part:       []plex.Part{{Key: "/library/parts/5"}},
		}},
	}
}

func TestNormalizeMovie(t *testing.T) {
	n := newTestNormalizer(nil, NormalizeContext{})
	item, err := n.Normalize(Raw{Record: movieRecord()})
	require.NoError(t, err)

	assert.Equal(t, "101", item.SourceID)
	assert.Equal(t, domain.KindMovie, item.Kind)
	assert.Equal(t, "Heat", item.Label)
	assert.Equal(t, "Heat", item.SortLabel)
	assert.Equal(t, 1995, item.Year)
	assert.Equal(t, 8.3, item.Rating)
	assert.True(t, item.Playable)
	assert.Equal(t, testServer+"/library/parts/5", item.Path)
	assert.Equal(t, testServer+"/library/metadata/101/thumb", item.Thumb)
	assert.Equal(t, testServer+"/library/metadata/101/art", item.Art["fanart"])
	assert.Equal(t, []string{"Crime", "Thriller"}, item.Genres)
	assert.Equal(t, []string{"USA"}, item.Countries)
	require.Len(t, item.Cast, 1)
	assert.Equal(t, "Al Pacino", item.Cast[0].Name)
	assert.Nil(t, item.Resume)
	assert.Nil(t, item.LastPlayed)
}

func TestNormalizeItemPassthrough(t *testing.T) {
	n := newTestNormalizer(nil, NormalizeContext{})
	want := &domain.Item{Label: "already done"}

	item, err := n.Normalize(Raw{Item: want})
	require.NoError(t, err)
	assert.Same(t, want, item)
}

func TestNormalizeRejectsBadRecords(t *testing.T) {
	n := newTestNormalizer(nil, NormalizeContext{})

	tests := []struct {
		name string
		raw  Raw
	}{
		{"empty raw", Raw{}},
		{"missing identity", Raw{Record: &plex.Metadata{Type: "movie", Title: "No Key"}}},
		{"unknown type", Raw{Record: &plex.Metadata{RatingKey: "7", Type: "hologram"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := n.Normalize(tt.raw)
			assert.Nil(t, item)
			var nerr *NormalizeError
			require.ErrorAs(t, err, &nerr)
		})
	}
}

func TestNormalizeAudienceRatingWins(t *testing.T) {
	rec := movieRecord()
	rec.AudienceRating = 9.1

	n := newTestNormalizer(nil, NormalizeContext{})
	item, err := n.Normalize(Raw{Record: rec})
	require.NoError(t, err)
	assert.Equal(t, 9.1, item.Rating)
}

func TestNormalizeResume(t *testing.T) {
	rec := movieRecord()
	rec.ViewOffset = 600000 // ten minutes in

	n := newTestNormalizer(nil, NormalizeContext{})
	item, err := n.Normalize(Raw{Record: rec})
	require.NoError(t, err)

	require.NotNil(t, item.Resume)
	assert.Equal(t, 600, item.Resume.Position)
	assert.Equal(t, 10200, item.Resume.Total)
}

func episodeRecord() *plex.Metadata {
	return &plex.Metadata{
		RatingKey:        "202",
		Key:              "/library/metadata/202",
		Type:             "episode",
		Title:            "Pilot",
		GrandparentTitle: "Titans",
		ParentIndex:      2,
		Index:            5,
		Media: []plex.Media{{
			Part: []plex.Part{{Key: "/library/parts/9"}},
		}},
	}
}

func TestNormalizeEpisodeLabelDecoration(t *testing.T) {
	tests := []struct {
		name string
		nctx NormalizeContext
		want string
	}{
		{"plain", NormalizeContext{}, "Pilot"},
		{"show title", NormalizeContext{AppendShowTitle: true}, "Titans - Pilot"},
		{"episode code", NormalizeContext{AppendSeasonEpisode: true}, "S02E05 - Pilot"},
		{"both", NormalizeContext{AppendShowTitle: true, AppendSeasonEpisode: true}, "S02E05 - Titans - Pilot"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newTestNormalizer(nil, tt.nctx)
			item, err := n.Normalize(Raw{Record: episodeRecord()})
			require.NoError(t, err)

			assert.Equal(t, tt.want, item.Label)
			assert.Equal(t, "Pilot", item.SortLabel, "decoration never touches the sort label")
			require.NotNil(t, item.Episode)
			assert.Equal(t, "S02E05", item.Episode.Code())
		})
	}
}

func TestNormalizeEpisodeCodeNeedsBothNumbers(t *testing.T) {
	rec := episodeRecord()
	rec.ParentIndex = 0 // specials have no usable code

	n := newTestNormalizer(nil, NormalizeContext{AppendSeasonEpisode: true, AppendShowTitle: true})
	item, err := n.Normalize(Raw{Record: rec})
	require.NoError(t, err)
	assert.Equal(t, "Titans - Pilot", item.Label)
}

func TestNormalizeServiceReferenceDispatchesBack(t *testing.T) {
	rec := movieRecord()
	rec.Key = "/system/services/url/lookup?url=youtube"
	rec.Media = nil

	n := newTestNormalizer(nil, NormalizeContext{})
	item, err := n.Normalize(Raw{Record: rec})
	require.NoError(t, err)

	assert.Contains(t, item.Path, testBase+"?")
	assert.Contains(t, item.Path, "mediatype=browse")
	assert.Contains(t, item.Path, "action=node")
}

func TestNormalizeContainerDispatchesBrowse(t *testing.T) {
	rec := &plex.Metadata{
		RatingKey: "33",
		Key:       "/library/metadata/33/children",
		FastKey:   "/library/sections/1/all?genre=9",
		Type:      "show",
		Title:     "Titans",
	}

	n := newTestNormalizer(nil, NormalizeContext{})
	item, err := n.Normalize(Raw{Record: rec})
	require.NoError(t, err)

	assert.False(t, item.Playable)
	assert.Contains(t, item.Path, "mediatype=browse")
	assert.Contains(t, item.Path, "genre%3D9", "fast key wins and is escaped")
}

func TestNormalizeStreamDetails(t *testing.T) {
	rec := movieRecord()
	rec.Media[0].Part[0].Stream = []map[string]any{
		{"streamType": float64(1), "codec": "hevc", "width": float64(3840), "height": float64(2160), "aspectRatio": "1.78"},
		{"streamType": "2", "codec": "ac3", "language": "English"},
		{"streamType": float64(3), "codec": "srt"},
		{"streamType": float64(99), "codec": "ignored"},
	}

	n := newTestNormalizer(nil, NormalizeContext{})
	item, err := n.Normalize(Raw{Record: rec})
	require.NoError(t, err)

	require.Len(t, item.Streams, 3)
	assert.Equal(t, domain.StreamInfo{Type: "video", Codec: "hevc", Width: 3840, Height: 2160, Aspect: 1.78}, item.Streams[0])
	assert.Equal(t, domain.StreamInfo{Type: "audio", Codec: "ac3", Language: "English"}, item.Streams[1])
	assert.Equal(t, domain.StreamInfo{Type: "subtitle", Codec: "srt"}, item.Streams[2])
}

func TestNormalizeStreamSummaryFallback(t *testing.T) {
	rec := movieRecord()

	n := newTestNormalizer(nil, NormalizeContext{})
	item, err := n.Normalize(Raw{Record: rec})
	require.NoError(t, err)

	require.Len(t, item.Streams, 1)
	assert.Equal(t, "video", item.Streams[0].Type)
	assert.Equal(t, "h264", item.Streams[0].Codec)
	assert.Equal(t, 1920, item.Streams[0].Width)
}

func TestNormalizeMergesLocalState(t *testing.T) {
	idx := index.NewMemory()
	lastPlayed := int64(1700000000)
	idx.PutItem("101", domain.IndexRow{
		LocalID:        42,
		Kind:           domain.KindMovie,
		PlayCount:      3,
		LastPlayed:     &lastPlayed,
		ResumePosition: 1200,
	})

	n := newTestNormalizer(idx, NormalizeContext{})
	item, err := n.Normalize(Raw{Record: movieRecord()})
	require.NoError(t, err)

	require.NotNil(t, item.LocalID)
	assert.Equal(t, int64(42), *item.LocalID)
	assert.Equal(t, 3, item.PlayCount)
	require.NotNil(t, item.LastPlayed)
	assert.Equal(t, lastPlayed, *item.LastPlayed)
	require.NotNil(t, item.Resume)
	assert.Equal(t, 1200, item.Resume.Position)
}

func TestNormalizeUnindexedRecordKeepsRemoteState(t *testing.T) {
	rec := movieRecord()
	rec.ViewCount = 2

	n := newTestNormalizer(index.NewMemory(), NormalizeContext{})
	item, err := n.Normalize(Raw{Record: rec})
	require.NoError(t, err)

	assert.Nil(t, item.LocalID)
	assert.Equal(t, 2, item.PlayCount)
}
