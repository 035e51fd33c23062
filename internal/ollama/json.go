package ollama

import (
	"encoding/json"
	"regexp"
)

// Keys of the sentinel object returned when no JSON could be extracted.
const (
	SentinelErrorKey = "error"
	SentinelRawKey   = "raw"
	SentinelValue    = "unparsable"
)

// Matches brace-balanced object candidates with at most one level of
// nesting, which covers the flat records the prompts ask for.
var jsonObjectPattern = regexp.MustCompile(`\{[^{}]*(?:\{[^{}]*\}[^{}]*)*\}`)

// ExtractJSON pulls the first well-formed JSON object out of a possibly
// noisy model reply. It first tries the whole text, then sweeps for
// brace-delimited candidates. When nothing parses it returns a sentinel
// object instead of failing: unstructured model output is expected here,
// not exceptional. Callers must check Unparsable before trusting fields.
func ExtractJSON(text string) map[string]any {
	var out map[string]any
	if err := json.Unmarshal([]byte(text), &out); err == nil {
		return out
	}

	for _, candidate := range jsonObjectPattern.FindAllString(text, -1) {
		out = nil
		if err := json.Unmarshal([]byte(candidate), &out); err == nil {
			return out
		}
	}

	return map[string]any{
		SentinelErrorKey: SentinelValue,
		SentinelRawKey:   text,
	}
}

// Unparsable reports whether m is the ExtractJSON sentinel, returning the
// raw text that failed to parse.
func Unparsable(m map[string]any) (string, bool) {
	if v, ok := m[SentinelErrorKey]; ok && v == SentinelValue {
		raw, _ := m[SentinelRawKey].(string)
		return raw, true
	}
	return "", false
}
