package audio

import (
	"maps"
	"path/filepath"
	"regexp"
	"strings"
)

// Field names a tag slot in the format-independent schema.
type Field string

const (
	FieldTitle       Field = "title"
	FieldArtist      Field = "artist"
	FieldAlbum       Field = "album"
	FieldYear        Field = "year"
	FieldComposer    Field = "composer"
	FieldGenre       Field = "genre"
	FieldLanguage    Field = "language"
	FieldAlbumArtist Field = "album_artist"
	FieldTrack       Field = "track"
)

// WritableFields are the fields the writer knows how to store, in write order.
var WritableFields = []Field{
	FieldTitle,
	FieldArtist,
	FieldAlbum,
	FieldYear,
	FieldComposer,
	FieldGenre,
	FieldLanguage,
}

// Record is what the reader learned about one source file.
type Record struct {
	SourcePath string
	Format     Format
	Stem       string
	CleanName  string
	tags       map[Field]string
}

func NewRecord(path string, format Format, tags map[Field]string) Record {
	base := filepath.Base(path)
	stem := normalizeText(strings.TrimSuffix(base, filepath.Ext(base)))
	clean := map[Field]string{}
	for field, value := range tags {
		if value = strings.TrimSpace(normalizeText(value)); value != "" {
			clean[field] = value
		}
	}
	return Record{
		SourcePath: path,
		Format:     format,
		Stem:       stem,
		CleanName:  CleanName(stem),
		tags:       clean,
	}
}

// Tags returns a copy of the tags present in the file.
func (r Record) Tags() map[Field]string {
	return maps.Clone(r.tags)
}

func (r Record) Tag(field Field) string {
	return r.tags[field]
}

// HasIdentity reports whether the file already names its title or artist.
func (r Record) HasIdentity() bool {
	return r.tags[FieldTitle] != "" || r.tags[FieldArtist] != ""
}

var (
	leadingTrackNumber = regexp.MustCompile(`^\d+[\s_\-.]+`)
	leadingBracket     = regexp.MustCompile(`^\[.*?\][\s_\-.]*`)
	separatorRun       = regexp.MustCompile(`[_\-.]+`)
	whitespaceRun      = regexp.MustCompile(`\s+`)
)

// CleanName strips track numbers, a leading [bracketed] prefix and separator
// runs from a filename stem. It falls back to the stem when nothing is left.
func CleanName(stem string) string {
	name := leadingTrackNumber.ReplaceAllString(stem, "")
	name = leadingBracket.ReplaceAllString(name, "")
	name = separatorRun.ReplaceAllString(name, " ")
	name = strings.TrimSpace(whitespaceRun.ReplaceAllString(name, " "))
	if name == "" {
		return strings.TrimSpace(stem)
	}
	return name
}
