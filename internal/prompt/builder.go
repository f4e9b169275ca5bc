package prompt

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jaa/songmeta/internal/audio"
)

// Version identifies the prompt template. Bump it whenever the wording or the
// requested schema changes so logged outcomes can be traced to a template.
const Version = "2"

const schema = `Return ONLY a single JSON object with these fields and no other text:
- "title": the full and correct title of the song (required)
- "artist": the performers or singers as one comma-separated string, not an array (required)
- "album": the album or compilation it is from
- "year": the original release year as an integer
- "composer": the composer, producer or music director
- "genre": the primary genre
- "language": the language of the lyrics, if any
- "confidence": "low" if you are guessing any field, otherwise "high"
Use null for any field you cannot determine at all.`

const examples = `Example 1 (English song):
{"title": "Yesterday", "artist": "The Beatles", "album": "Help!", "year": 1965, "composer": "John Lennon, Paul McCartney", "genre": "Rock", "language": "English", "confidence": "high"}

Example 2 (Hindi song):
{"title": "Tum Hi Ho", "artist": "Arijit Singh", "album": "Aashiqui 2", "year": 2013, "composer": "Mithoon", "genre": "Indian Pop", "language": "Hindi", "confidence": "high"}`

// Build renders the instruction prompt for one record. Identical records
// always produce identical text.
func Build(rec audio.Record) string {
	var b strings.Builder

	fmt.Fprintf(&b, "I need detailed metadata for the song titled %q.\n", rec.CleanName)
	fmt.Fprintf(&b, "Original filename (without extension): %q\n", rec.Stem)
	b.WriteString("\n")

	tags := rec.Tags()
	if len(tags) == 0 {
		b.WriteString("The file has no existing tags.\n")
	} else {
		b.WriteString("Existing tags in the file (may be wrong or incomplete):\n")
		keys := make([]string, 0, len(tags))
		for field := range tags {
			keys = append(keys, string(field))
		}
		slices.Sort(keys)
		for _, key := range keys {
			fmt.Fprintf(&b, "- %s: %q\n", key, tags[audio.Field(key)])
		}
	}

	b.WriteString("\n")
	b.WriteString(schema)
	b.WriteString("\n\n")
	b.WriteString(examples)
	b.WriteString("\n")
	return b.String()
}
