package audio

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// normalizeText returns value as NFC UTF-8. Bytes that are not valid UTF-8
// come from tags written in a legacy code page; GB18030 is tried first and
// Windows-1252 is the fallback, which always decodes.
func normalizeText(value string) string {
	if utf8.ValidString(value) {
		return norm.NFC.String(value)
	}
	if decoded, _, err := transform.String(simplifiedchinese.GB18030.NewDecoder(), value); err == nil &&
		utf8.ValidString(decoded) && !strings.ContainsRune(decoded, utf8.RuneError) {
		return norm.NFC.String(decoded)
	}
	decoded, _, err := transform.String(charmap.Windows1252.NewDecoder(), value)
	if err != nil {
		return strings.ToValidUTF8(value, "")
	}
	return norm.NFC.String(decoded)
}
