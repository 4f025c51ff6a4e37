package extract

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// fallbackEncodings is the fixed ladder of legacy 8-bit encodings attempted
// after UTF-8. Exports from older tooling are frequently Latin-1 or
// Windows-1252 despite claiming otherwise.
var fallbackEncodings = []struct {
	name string
	enc  encoding.Encoding
}{
	{"latin-1", charmap.ISO8859_1},
	{"cp1252", charmap.Windows1252},
}

// decodeText decodes raw bytes to a string, trying UTF-8 first and then
// each fallback encoding. It returns the decoded text and the name of the
// encoding that succeeded.
func decodeText(data []byte) (string, string, error) {
	if utf8.Valid(data) {
		return string(data), "utf-8", nil
	}
	for _, fb := range fallbackEncodings {
		decoded, err := fb.enc.NewDecoder().Bytes(data)
		if err != nil {
			continue
		}
		return string(decoded), fb.name, nil
	}
	return "", "", fmt.Errorf("no attempted encoding could decode %d bytes", len(data))
}

// decodeJSON unmarshals raw bytes into v, re-decoding from Latin-1 when the
// bytes are not valid UTF-8. The validity check must happen before the
// unmarshal: json.Unmarshal replaces invalid UTF-8 in string values with
// U+FFFD instead of erroring, which would silently mangle legacy exports.
func decodeJSON(data []byte, v any) error {
	if !utf8.Valid(data) {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return fmt.Errorf("decoding with fallback encoding: %w", err)
		}
		data = decoded
	}
	return json.Unmarshal(data, v)
}
