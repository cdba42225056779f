package plex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marquee/internal/domain"
	"marquee/internal/log"
)

const sectionsBody = `{"MediaContainer": {"size": 2, "Directory": [
	{"key": "1", "type": "movie", "title": "Movies"},
	{"key": "2", "type": "show", "title": "TV Shows"}
]}}`

const childrenBody = `{"MediaContainer": {"size": 1, "Metadata": [
	{"ratingKey": "101", "key": "/library/metadata/101", "type": "movie",
	 "title": "Heat", "year": 1995, "duration": 10200000,
	 "Media": [{"videoCodec": "h264", "aspectRatio": "1.78",
	            "Part": [{"key": "/library/parts/5",
	                      "Stream": [{"streamType": 1, "codec": "h264", "width": 1920}]}]}]}
]}}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, "token123", log.Null())
}

func TestGetSections(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/library/sections", r.URL.Path)
		assert.Equal(t, "token123", r.Header.Get("X-Plex-Token"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Write([]byte(sectionsBody))
	})

	sections, err := client.GetSections(context.Background())
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, "Movies", sections[0].Title)
	assert.Equal(t, "show", sections[1].Type)
}

func TestGetChildrenLooseTyping(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(childrenBody))
	})

	records, err := client.GetChildren(context.Background(), "/library/sections/1/all")
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "101", rec.RatingKey)
	assert.Equal(t, 1995, rec.Year)
	require.Len(t, rec.Media, 1)
	assert.Equal(t, "1.78", rec.Media[0].AspectRatio, "string aspect ratios survive decoding")
	require.Len(t, rec.Media[0].Part[0].Stream, 1)
}

func TestUnauthorizedIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.GetSections(context.Background())
	require.ErrorIs(t, err, domain.ErrNotAuthenticated)
	assert.Equal(t, int32(1), hits.Load())
}

func TestNotFoundMapsToItemNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.GetRecord(context.Background(), "999")
	require.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestServerErrorsAreRetried(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(sectionsBody))
	})

	sections, err := client.GetSections(context.Background())
	require.NoError(t, err)
	assert.Len(t, sections, 2)
	assert.Equal(t, int32(3), hits.Load())
}

func TestExhaustedRetriesReportUpstreamUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.GetSections(context.Background())
	require.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestMalformedResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	})

	_, err := client.GetSections(context.Background())
	require.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestOnDeckPath(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/library/sections/2/onDeck", r.URL.Path)
		w.Write([]byte(childrenBody))
	})

	records, err := client.GetOnDeck(context.Background(), "2")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestReady(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/identity" && r.Header.Get("X-Plex-Token") == "token123" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	})

	assert.True(t, client.Ready(context.Background()))

	down := NewClient("http://127.0.0.1:1", "token123", log.Null())
	assert.False(t, down.Ready(context.Background()))
}

func TestBrowseKeyPrefersFastKey(t *testing.T) {
	m := Metadata{Key: "/library/metadata/33/children", FastKey: "/library/sections/1/all?genre=9"}
	assert.Equal(t, "/library/sections/1/all?genre=9", m.BrowseKey())

	m.FastKey = ""
	assert.Equal(t, "/library/metadata/33/children", m.BrowseKey())
}

func TestUnwatchedLeaves(t *testing.T) {
	assert.Equal(t, 3, Metadata{LeafCount: 10, ViewedLeafCount: 7}.UnwatchedLeaves())
	assert.Equal(t, 0, Metadata{}.UnwatchedLeaves())
}
