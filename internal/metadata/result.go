package metadata

import (
	"encoding/json"
	"strconv"

	"github.com/jaa/songmeta/internal/audio"
	"github.com/jaa/songmeta/internal/config"
)

const (
	ConfidenceLow  = "low"
	ConfidenceHigh = "high"
)

// Result is the validated metadata for one song. Either Title or Artist is
// always set on a Result returned by Parse.
type Result struct {
	Title      string
	Artist     string
	Album      string
	Year       *int
	Composer   string
	Genre      string
	Language   string
	Confidence string
}

type wireResult struct {
	Title      *string `json:"title"`
	Artist     *string `json:"artist"`
	Album      *string `json:"album"`
	Year       *int    `json:"year"`
	Composer   *string `json:"composer"`
	Genre      *string `json:"genre"`
	Language   *string `json:"language"`
	Confidence *string `json:"confidence"`
}

// JSON renders the result in the same schema the model is asked for, with
// null for absent fields.
func (r Result) JSON() string {
	payload, _ := json.Marshal(wireResult{
		Title:      optional(r.Title),
		Artist:     optional(r.Artist),
		Album:      optional(r.Album),
		Year:       r.Year,
		Composer:   optional(r.Composer),
		Genre:      optional(r.Genre),
		Language:   optional(r.Language),
		Confidence: optional(r.Confidence),
	})
	return string(payload)
}

func (r Result) HasIdentity() bool {
	return r.Title != "" || r.Artist != ""
}

func (r Result) LowConfidence() bool {
	return r.Confidence == ConfidenceLow
}

// Fields returns the non-empty writable fields of the result.
func (r Result) Fields() map[audio.Field]string {
	fields := map[audio.Field]string{}
	put := func(field audio.Field, value string) {
		if value != "" {
			fields[field] = value
		}
	}
	put(audio.FieldTitle, r.Title)
	put(audio.FieldArtist, r.Artist)
	put(audio.FieldAlbum, r.Album)
	if r.Year != nil {
		fields[audio.FieldYear] = strconv.Itoa(*r.Year)
	}
	put(audio.FieldComposer, r.Composer)
	put(audio.FieldGenre, r.Genre)
	put(audio.FieldLanguage, r.Language)
	return fields
}

// Merge resolves the result against the tags already in a file.
//
//   - merge: every inferred field is written; fields the model left empty
//     keep their existing value.
//   - keep-existing: only fields that are empty in the file are written.
//   - overwrite: inferred fields are written and existing values the model
//     did not return are cleared.
func (r Result) Merge(existing map[audio.Field]string, policy config.TagPolicy) audio.Update {
	inferred := r.Fields()
	update := audio.Update{Set: map[audio.Field]string{}}

	switch policy {
	case config.TagPolicyKeepExisting:
		for field, value := range inferred {
			if existing[field] == "" {
				update.Set[field] = value
			}
		}
	case config.TagPolicyOverwrite:
		update.Set = inferred
		for _, field := range audio.WritableFields {
			if _, ok := inferred[field]; !ok && existing[field] != "" {
				update.Clear = append(update.Clear, field)
			}
		}
	default:
		update.Set = inferred
	}
	return update
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
