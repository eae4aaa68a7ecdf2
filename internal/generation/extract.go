package generation

import (
	"encoding/json"
	"strings"
)

// ExtractJSON pulls a JSON value out of free-form model output. It tries the
// widest {...} span, then the widest [...] span, then the whole text; the
// first candidate that decodes wins.
func ExtractJSON(raw string) (any, bool) {
	if raw == "" {
		return nil, false
	}

	for _, candidate := range []string{span(raw, '{', '}'), span(raw, '[', ']'), raw} {
		if candidate == "" {
			continue
		}
		var v any
		if err := json.Unmarshal([]byte(candidate), &v); err == nil {
			return v, true
		}
	}
	return nil, false
}

// span returns the text from the first opening to the last closing byte,
// inclusive.
func span(s string, opening, closing byte) string {
	i := strings.IndexByte(s, opening)
	j := strings.LastIndexByte(s, closing)
	if i < 0 || j <= i {
		return ""
	}
	return s[i : j+1]
}
