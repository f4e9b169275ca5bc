package audio

import (
	"fmt"

	"github.com/Sorrow446/go-mp4tag"
)

const mp4LanguageAtom = "LANGUAGE"

var mp4DeleteNames = map[Field]string{
	FieldTitle:    "title",
	FieldArtist:   "artist",
	FieldAlbum:    "album",
	FieldYear:     "date",
	FieldComposer: "composer",
	FieldGenre:    "customgenre",
	FieldLanguage: mp4LanguageAtom,
}

func writeMP4(path string, u Update) error {
	mp4, err := mp4tag.Open(path)
	if err != nil {
		return fmt.Errorf("open mp4: %w", err)
	}
	defer mp4.Close()

	tags := &mp4tag.MP4Tags{Custom: map[string]string{}}
	u.sortedSet(func(field Field, value string) {
		switch field {
		case FieldTitle:
			tags.Title = value
		case FieldArtist:
			tags.Artist = value
		case FieldAlbum:
			tags.Album = value
		case FieldYear:
			tags.Date = value
		case FieldComposer:
			tags.Composer = value
		case FieldGenre:
			tags.CustomGenre = value
		case FieldLanguage:
			tags.Custom[mp4LanguageAtom] = value
		}
	})

	deletions := make([]string, 0, len(u.Clear))
	for _, field := range u.Clear {
		deletions = append(deletions, mp4DeleteNames[field])
	}

	if err := mp4.Write(tags, deletions); err != nil {
		return fmt.Errorf("write mp4 atoms: %w", err)
	}
	return nil
}
