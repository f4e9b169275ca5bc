package prompt

import (
	"strings"
	"testing"

	"github.com/jaa/songmeta/internal/audio"
	"github.com/stretchr/testify/assert"
)

func TestBuildIsDeterministic(t *testing.T) {
	tags := map[audio.Field]string{
		audio.FieldGenre:  "Pop",
		audio.FieldArtist: "Henry Mancini",
		audio.FieldAlbum:  "Breakfast at Tiffany's",
		audio.FieldTitle:  "moon river",
	}
	rec := audio.NewRecord("/music/02_moon_river.mp3", audio.FormatMP3, tags)

	first := Build(rec)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Build(audio.NewRecord("/music/02_moon_river.mp3", audio.FormatMP3, tags)))
	}
}

func TestBuildEmbedsNameTagsAndSchema(t *testing.T) {
	rec := audio.NewRecord("/music/01 - [HQ] tum_hi_ho.flac", audio.FormatFLAC, map[audio.Field]string{
		audio.FieldTitle:  "tum hi ho",
		audio.FieldArtist: "arijit",
	})

	got := Build(rec)

	assert.Contains(t, got, `song titled "tum hi ho"`)
	assert.Contains(t, got, `"01 - [HQ] tum_hi_ho"`)
	assert.Less(t, strings.Index(got, `- artist: "arijit"`), strings.Index(got, `- title: "tum hi ho"`))
	for _, field := range []string{`"title"`, `"artist"`, `"album"`, `"year"`, `"composer"`, `"genre"`, `"language"`, `"confidence"`} {
		assert.Contains(t, got, field)
	}
	assert.Contains(t, got, "(required)")
	assert.Contains(t, got, "Use null")
	assert.NotContains(t, got, "no existing tags")
}

func TestBuildWithoutTags(t *testing.T) {
	got := Build(audio.NewRecord("yesterday.mp3", audio.FormatMP3, nil))

	assert.Contains(t, got, "The file has no existing tags.")
	assert.Contains(t, got, `song titled "yesterday"`)
}
