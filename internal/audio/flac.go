package audio

import (
	"fmt"
	"strings"

	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"
)

var vorbisKeys = map[Field]string{
	FieldTitle:    flacvorbis.FIELD_TITLE,
	FieldArtist:   flacvorbis.FIELD_ARTIST,
	FieldAlbum:    flacvorbis.FIELD_ALBUM,
	FieldYear:     flacvorbis.FIELD_DATE,
	FieldComposer: "COMPOSER",
	FieldGenre:    flacvorbis.FIELD_GENRE,
	FieldLanguage: "LANGUAGE",
}

func writeFLAC(path string, u Update) error {
	f, err := flac.ParseFile(path)
	if err != nil {
		return fmt.Errorf("parse flac: %w", err)
	}

	cmtIdx := -1
	var existing *flacvorbis.MetaDataBlockVorbisComment
	for idx, block := range f.Meta {
		if block.Type == flac.VorbisComment {
			cmtIdx = idx
			existing, err = flacvorbis.ParseFromMetaDataBlock(*block)
			if err != nil {
				return fmt.Errorf("parse vorbis comment: %w", err)
			}
			break
		}
	}

	cmt, err := mergeVorbisComment(existing, u)
	if err != nil {
		return err
	}
	block := cmt.Marshal()
	if cmtIdx < 0 {
		f.Meta = append(f.Meta, &block)
	} else {
		f.Meta[cmtIdx] = &block
	}

	if err := f.Save(path); err != nil {
		return fmt.Errorf("save flac: %w", err)
	}
	return nil
}

// mergeVorbisComment rebuilds a comment block keeping every entry whose key is
// not touched by u, then appends the new values.
func mergeVorbisComment(existing *flacvorbis.MetaDataBlockVorbisComment, u Update) (*flacvorbis.MetaDataBlockVorbisComment, error) {
	touched := map[string]bool{}
	for field := range u.Set {
		touched[vorbisKeys[field]] = true
	}
	for _, field := range u.Clear {
		touched[vorbisKeys[field]] = true
	}

	cmt := flacvorbis.New()
	if existing != nil {
		if existing.Vendor != "" {
			cmt.Vendor = existing.Vendor
		}
		for _, comment := range existing.Comments {
			key, value, ok := strings.Cut(comment, "=")
			if !ok || touched[strings.ToUpper(key)] {
				continue
			}
			if err := cmt.Add(key, value); err != nil {
				return nil, fmt.Errorf("copy comment %s: %w", key, err)
			}
		}
	}

	var addErr error
	u.sortedSet(func(field Field, value string) {
		if addErr != nil {
			return
		}
		if err := cmt.Add(vorbisKeys[field], value); err != nil {
			addErr = fmt.Errorf("add %s: %w", vorbisKeys[field], err)
		}
	})
	if addErr != nil {
		return nil, addErr
	}
	return cmt, nil
}
