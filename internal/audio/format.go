package audio

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/dhowden/tag"
)

// Format is the container of an audio file, which decides the tag scheme.
type Format string

const (
	FormatMP3  Format = "MP3"
	FormatFLAC Format = "FLAC"
	FormatM4A  Format = "M4A"
	FormatMP4  Format = "MP4"
	FormatOGG  Format = "OGG"
	FormatOPUS Format = "OPUS"
)

var extensionFormats = map[string]Format{
	".mp3":  FormatMP3,
	".flac": FormatFLAC,
	".m4a":  FormatM4A,
	".mp4":  FormatMP4,
	".ogg":  FormatOGG,
	".opus": FormatOPUS,
}

// SupportedExtensions lists recognized extensions in a stable order.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(extensionFormats))
	for ext := range extensionFormats {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

// FormatFromPath maps a file extension (case-insensitive) to a Format.
func FormatFromPath(path string) (Format, bool) {
	format, ok := extensionFormats[strings.ToLower(filepath.Ext(path))]
	return format, ok
}

// matchesFileType reports whether sniffed magic bytes agree with the format
// chosen from the extension. Unknown signatures are accepted: raw MP3 streams
// without an ID3 header carry no magic dhowden/tag recognizes.
func matchesFileType(format Format, ft tag.FileType) bool {
	if ft == tag.UnknownFileType || ft == "" {
		return true
	}
	switch format {
	case FormatMP3:
		return ft == tag.MP3
	case FormatFLAC:
		return ft == tag.FLAC
	case FormatM4A, FormatMP4:
		return ft == tag.M4A || ft == tag.M4B || ft == tag.M4P || ft == tag.ALAC
	case FormatOGG, FormatOPUS:
		return ft == tag.OGG
	default:
		return false
	}
}
