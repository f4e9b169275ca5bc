package audio

import (
	"fmt"

	"go.senan.xyz/taglib"
)

// writeVorbis handles OGG Vorbis and Opus through taglib. Keys absent from
// the map are left alone; an empty value list removes the key.
func writeVorbis(path string, u Update) error {
	tags := map[string][]string{}
	u.sortedSet(func(field Field, value string) {
		tags[vorbisKeys[field]] = []string{value}
	})
	for _, field := range u.Clear {
		tags[vorbisKeys[field]] = []string{}
	}
	if len(tags) == 0 {
		return nil
	}
	if err := taglib.WriteTags(path, tags, 0); err != nil {
		return fmt.Errorf("write vorbis comments: %w", err)
	}
	return nil
}
