package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindPlayable(t *testing.T) {
	playable := []ItemKind{KindMovie, KindEpisode, KindSong, KindClip}
	for _, k := range playable {
		assert.True(t, k.Playable(), "%s should be playable", k)
	}

	containers := []ItemKind{KindFolder, KindShow, KindSeason, KindArtist, KindAlbum, KindPlaylist, KindPhoto}
	for _, k := range containers {
		assert.False(t, k.Playable(), "%s should not be playable", k)
	}
}

func TestEpisodeRefCode(t *testing.T) {
	assert.Equal(t, "S02E05", EpisodeRef{Season: 2, Number: 5}.Code())
	assert.Equal(t, "S01E10", EpisodeRef{Season: 1, Number: 10}.Code())
	assert.Equal(t, "S11E03", EpisodeRef{Season: 11, Number: 3}.Code())
}
