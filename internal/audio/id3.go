package audio

import (
	"fmt"

	"github.com/bogem/id3v2"
)

const languageDescription = "Language"

var id3Frames = map[Field]string{
	FieldTitle:    "TIT2",
	FieldArtist:   "TPE1",
	FieldAlbum:    "TALB",
	FieldYear:     "TDRC",
	FieldComposer: "TCOM",
	FieldGenre:    "TCON",
}

// writeID3 applies u to an MP3 file. Files without a tag get a fresh ID3v2.4
// header; the audio stream after it is left as is.
func writeID3(path string, u Update) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open id3 tag: %w", err)
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)

	for _, field := range u.Clear {
		if field == FieldLanguage {
			replaceLanguageComment(tag, "")
			continue
		}
		tag.DeleteFrames(id3FrameID(tag, field))
	}

	u.sortedSet(func(field Field, value string) {
		if field == FieldLanguage {
			replaceLanguageComment(tag, value)
			return
		}
		tag.AddTextFrame(id3FrameID(tag, field), id3v2.EncodingUTF8, value)
	})

	if err := tag.Save(); err != nil {
		return fmt.Errorf("save id3 tag: %w", err)
	}
	return nil
}

// id3FrameID maps a field to its frame, using TYER on ID3v2.3 tags where
// TDRC does not exist.
func id3FrameID(tag *id3v2.Tag, field Field) string {
	if field == FieldYear && tag.Version() == 3 {
		return "TYER"
	}
	return id3Frames[field]
}

// replaceLanguageComment drops the existing "Language" comment and, when
// value is set, adds a new one. Other comments are kept.
func replaceLanguageComment(tag *id3v2.Tag, value string) {
	var keep []id3v2.CommentFrame
	for _, framer := range tag.GetFrames(tag.CommonID("Comments")) {
		comment, ok := framer.(id3v2.CommentFrame)
		if !ok || comment.Description == languageDescription {
			continue
		}
		keep = append(keep, comment)
	}
	tag.DeleteFrames(tag.CommonID("Comments"))
	for _, comment := range keep {
		tag.AddCommentFrame(comment)
	}
	if value == "" {
		return
	}
	tag.AddCommentFrame(id3v2.CommentFrame{
		Encoding:    id3v2.EncodingUTF8,
		Language:    "eng",
		Description: languageDescription,
		Text:        value,
	})
}
