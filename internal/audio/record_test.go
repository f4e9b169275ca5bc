package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanName(t *testing.T) {
	cases := map[string]string{
		"01 - Yesterday":         "Yesterday",
		"[Official] Tum_Hi_Ho":   "Tum Hi Ho",
		"03_track.name":          "track name",
		"01. [HD] Song-Name":     "Song Name",
		"Moon   River":           "Moon River",
		"123":                    "123",
		"2001 - A Space Odyssey": "A Space Odyssey",
		"__":                     "__",
		"artist - title (live) ": "artist title (live)",
	}
	for stem, want := range cases {
		assert.Equal(t, want, CleanName(stem), "stem %q", stem)
	}
}

func TestNewRecordDropsBlankTagsAndCopiesMap(t *testing.T) {
	rec := NewRecord("/music/01 - Song.mp3", FormatMP3, map[Field]string{
		FieldTitle:  " Song ",
		FieldArtist: "   ",
	})

	assert.Equal(t, "01 - Song", rec.Stem)
	assert.Equal(t, "Song", rec.CleanName)
	assert.Equal(t, "Song", rec.Tag(FieldTitle))
	assert.True(t, rec.HasIdentity())

	tags := rec.Tags()
	_, hasArtist := tags[FieldArtist]
	assert.False(t, hasArtist)

	tags[FieldTitle] = "mutated"
	assert.Equal(t, "Song", rec.Tag(FieldTitle))
}

func TestRecordWithoutIdentity(t *testing.T) {
	rec := NewRecord("track.flac", FormatFLAC, map[Field]string{FieldAlbum: "Help!"})
	assert.False(t, rec.HasIdentity())
}

func TestNewRecordNormalizesText(t *testing.T) {
	rec := NewRecord("/music/Cafe\u0301 del Mar.mp3", FormatMP3, map[Field]string{
		FieldTitle:  "Caf\xe9 Music",
		FieldArtist: "\xc4\xe3\xba\xc3",
		FieldAlbum:  "Se\u0301ance",
	})

	assert.Equal(t, "Caf\u00e9 del Mar", rec.Stem)
	assert.Equal(t, "Caf\u00e9 Music", rec.Tag(FieldTitle))
	assert.Equal(t, "\u4f60\u597d", rec.Tag(FieldArtist))
	assert.Equal(t, "S\u00e9ance", rec.Tag(FieldAlbum))
}
