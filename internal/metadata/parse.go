package metadata

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

const (
	StageEmpty    = "empty"
	StageStrict   = "strict"
	StageBracket  = "bracket"
	StageKeyValue = "keyvalue"
)

const excerptLimit = 200

// ParseFailure means no usable metadata could be extracted from a reply.
type ParseFailure struct {
	Stage   string
	Reason  string
	Excerpt string
}

func (e *ParseFailure) Error() string {
	return fmt.Sprintf("parse model response (%s): %s: %q", e.Stage, e.Reason, e.Excerpt)
}

// canonical field name -> accepted keys, most specific first
var fieldAliases = []struct {
	field   string
	aliases []string
}{
	{"title", []string{"title", "song title", "song name", "song", "track title", "track", "name"}},
	{"artist", []string{"artist", "artists", "artist name", "performer", "performers", "singer", "singers"}},
	{"album", []string{"album", "album name", "compilation"}},
	{"year", []string{"year", "release year", "date", "release date"}},
	{"composer", []string{"composer", "composers", "music director", "producer"}},
	{"genre", []string{"genre"}},
	{"language", []string{"language"}},
	{"confidence", []string{"confidence"}},
}

var (
	codeFence = regexp.MustCompile("```[A-Za-z]*")
	keyValue  = regexp.MustCompile(`^\s*(?:[-*•>]+\s*)?(?:\*\*|__)?["']?([A-Za-z][A-Za-z _]*?)["']?(?:\*\*|__)?\s*[:=]\s*(.*?)\s*$`)
	yearInStr = regexp.MustCompile(`(?:^|\D)([12]\d{3})(?:\D|$)`)
)

// Parse extracts a Result from raw model text. It tries a strict JSON decode,
// then the largest balanced {...} object in the text, then "Key: value"
// lines. Only when no stage yields a title or an artist is the reply a
// *ParseFailure.
func Parse(raw string) (Result, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Result{}, &ParseFailure{Stage: StageEmpty, Reason: "empty response"}
	}

	stage, reason := StageKeyValue, "no title or artist found"
	if fields, ok := decodeObject(text); ok {
		if result := fromFields(fields); result.HasIdentity() {
			return result, nil
		}
		// Valid JSON without identity may still nest it beside other keys.
		stage, reason = StageStrict, "missing title and artist"
	}

	unfenced := codeFence.ReplaceAllString(text, "")
	for _, candidate := range balancedObjects(unfenced) {
		fields, ok := decodeObject(candidate)
		if !ok {
			continue
		}
		if result := fromFields(fields); result.HasIdentity() {
			return result, nil
		}
	}

	if result := fromFields(keyValueFields(unfenced)); result.HasIdentity() {
		return result, nil
	}
	return Result{}, failure(stage, reason, text)
}

func failure(stage string, reason string, text string) *ParseFailure {
	excerpt := text
	if runes := []rune(text); len(runes) > excerptLimit {
		excerpt = string(runes[:excerptLimit]) + "..."
	}
	return &ParseFailure{Stage: stage, Reason: reason, Excerpt: excerpt}
}

// decodeObject decodes a JSON object, or the first object of a JSON array,
// and unwraps a single nested object such as {"metadata": {...}}.
func decodeObject(text string) (map[string]any, bool) {
	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return nil, false
	}
	if list, ok := value.([]any); ok && len(list) > 0 {
		value = list[0]
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, false
	}
	if len(obj) == 1 {
		for _, inner := range obj {
			if nested, ok := inner.(map[string]any); ok {
				return nested, true
			}
		}
	}
	return obj, true
}

// balancedObjects returns every balanced {...} span in text, longest first.
// Braces inside JSON strings are ignored.
func balancedObjects(text string) []string {
	var spans []string
	for start := 0; start < len(text); start++ {
		if text[start] != '{' {
			continue
		}
		depth := 0
		inString := false
		escaped := false
	scan:
		for i := start; i < len(text); i++ {
			c := text[i]
			switch {
			case escaped:
				escaped = false
			case inString && c == '\\':
				escaped = true
			case c == '"':
				inString = !inString
			case inString:
			case c == '{':
				depth++
			case c == '}':
				depth--
				if depth == 0 {
					spans = append(spans, text[start:i+1])
					break scan
				}
			}
		}
	}
	slices.SortStableFunc(spans, func(a, b string) int { return len(b) - len(a) })
	return spans
}

func keyValueFields(text string) map[string]any {
	fields := map[string]any{}
	for _, line := range strings.Split(text, "\n") {
		match := keyValue.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		key := normalizeKey(match[1])
		if _, seen := fields[key]; seen {
			continue
		}
		value := strings.TrimSpace(strings.TrimSuffix(match[2], ","))
		value = strings.Trim(value, "*_")
		if strings.HasPrefix(value, "[") {
			var list []any
			if err := json.Unmarshal([]byte(value), &list); err == nil {
				fields[key] = list
				continue
			}
		}
		if unquoted, err := strconv.Unquote(value); err == nil {
			value = unquoted
		} else {
			value = strings.Trim(value, `"'`)
		}
		fields[key] = value
	}
	return fields
}

func fromFields(raw map[string]any) Result {
	fields := make(map[string]any, len(raw))
	for key, value := range raw {
		fields[normalizeKey(key)] = value
	}

	pick := func(canonical string) any {
		for _, entry := range fieldAliases {
			if entry.field != canonical {
				continue
			}
			for _, alias := range entry.aliases {
				if value, ok := fields[alias]; ok && textValue(value) != "" {
					return value
				}
			}
		}
		return nil
	}

	result := Result{
		Title:    textValue(pick("title")),
		Artist:   textValue(pick("artist")),
		Album:    textValue(pick("album")),
		Year:     yearValue(pick("year")),
		Composer: textValue(pick("composer")),
		Genre:    textValue(pick("genre")),
		Language: textValue(pick("language")),
	}
	switch strings.ToLower(textValue(pick("confidence"))) {
	case ConfidenceLow:
		result.Confidence = ConfidenceLow
	case ConfidenceHigh:
		result.Confidence = ConfidenceHigh
	}
	return result
}

func normalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	key = strings.ReplaceAll(key, "_", " ")
	return strings.Join(strings.Fields(key), " ")
}

func textValue(value any) string {
	switch v := value.(type) {
	case string:
		v = strings.TrimSpace(v)
		if isPlaceholder(v) {
			return ""
		}
		return v
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if text := textValue(item); text != "" {
				parts = append(parts, text)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}

func isPlaceholder(value string) bool {
	switch strings.ToLower(value) {
	case "", "null", "none", "unknown", "n/a":
		return true
	}
	return false
}

// yearValue accepts a number or any string containing a four digit year and
// keeps it only when it falls in 1000..2999.
func yearValue(value any) *int {
	var year int
	switch v := value.(type) {
	case float64:
		if v != math.Trunc(v) {
			return nil
		}
		year = int(v)
	case string:
		match := yearInStr.FindStringSubmatch(v)
		if match == nil {
			return nil
		}
		year, _ = strconv.Atoi(match[1])
	default:
		return nil
	}
	if year < 1000 || year > 2999 {
		return nil
	}
	return &year
}
