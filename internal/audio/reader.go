package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dhowden/tag"
	"go.senan.xyz/taglib"
)

// Reader extracts the filename and any tags already present in a file.
// It never modifies the file.
type Reader struct {
	readTaglib func(path string) (map[string][]string, error)
}

func NewReader() *Reader {
	return &Reader{readTaglib: taglib.ReadTags}
}

func (r *Reader) Read(path string) (Record, error) {
	format, ok := FormatFromPath(path)
	if !ok {
		return Record{}, &UnsupportedFormatError{Path: path, Extension: strings.ToLower(filepath.Ext(path))}
	}

	f, err := os.Open(path)
	if err != nil {
		return Record{}, &UnreadableFileError{Path: path, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Record{}, &UnreadableFileError{Path: path, Err: err}
	}
	if info.IsDir() {
		return Record{}, &UnreadableFileError{Path: path, Err: errors.New("is a directory")}
	}

	// Identify fails on content without a known signature; tag.ReadFrom
	// surfaces genuine I/O problems below.
	_, fileType, err := tag.Identify(f)
	if err != nil {
		fileType = tag.UnknownFileType
	}
	if !matchesFileType(format, fileType) {
		return Record{}, &UnreadableFileError{
			Path: path,
			Err:  fmt.Errorf("content looks like %s, not %s", fileType, format),
		}
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return Record{}, &UnreadableFileError{Path: path, Err: err}
	}

	tags, err := r.readTags(f, path, format)
	if err != nil {
		return Record{}, &UnreadableFileError{Path: path, Err: err}
	}
	return NewRecord(path, format, tags), nil
}

func (r *Reader) readTags(rs io.ReadSeeker, path string, format Format) (map[Field]string, error) {
	meta, err := tag.ReadFrom(rs)
	switch {
	case err == nil:
		return fromDhowden(meta), nil
	case errors.Is(err, tag.ErrNoTagsFound):
		return map[Field]string{}, nil
	case format == FormatOGG || format == FormatOPUS:
		raw, tlErr := r.readTaglib(path)
		if tlErr != nil {
			return nil, fmt.Errorf("read tags: %w", errors.Join(err, tlErr))
		}
		return fromVorbis(raw), nil
	default:
		return nil, fmt.Errorf("read tags: %w", err)
	}
}

func fromDhowden(meta tag.Metadata) map[Field]string {
	tags := map[Field]string{
		FieldTitle:       meta.Title(),
		FieldArtist:      meta.Artist(),
		FieldAlbum:       meta.Album(),
		FieldAlbumArtist: meta.AlbumArtist(),
		FieldComposer:    meta.Composer(),
		FieldGenre:       meta.Genre(),
	}
	if year := meta.Year(); year > 0 {
		tags[FieldYear] = strconv.Itoa(year)
	}
	if track, _ := meta.Track(); track > 0 {
		tags[FieldTrack] = strconv.Itoa(track)
	}
	raw := meta.Raw()
	if meta.Format() == tag.VORBIS {
		// dhowden falls back to PERFORMER and ARTIST for a missing COMPOSER.
		composer, _ := raw["composer"].(string)
		tags[FieldComposer] = composer
	}
	for _, key := range []string{"language", "LANGUAGE", "TLAN"} {
		// MP4 freeform atoms keep the 4-byte locale in front of the text.
		if value, ok := raw[key].(string); ok && strings.Trim(value, "\x00") != "" {
			tags[FieldLanguage] = strings.Trim(value, "\x00")
			break
		}
	}
	return tags
}

func fromVorbis(raw map[string][]string) map[Field]string {
	tags := map[Field]string{}
	for field, key := range vorbisKeys {
		if values := raw[key]; len(values) > 0 {
			tags[field] = strings.Join(values, ", ")
		}
	}
	if values := raw[taglib.AlbumArtist]; len(values) > 0 {
		tags[FieldAlbumArtist] = values[0]
	}
	if values := raw[taglib.TrackNumber]; len(values) > 0 {
		tags[FieldTrack] = values[0]
	}
	if year, ok := tags[FieldYear]; ok && len(year) > 4 {
		tags[FieldYear] = year[:4]
	}
	return tags
}
