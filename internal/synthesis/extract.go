package synthesis

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencedBlock = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// ExtractJSON recovers a JSON object from a raw model response. Three
// attempts, in order: the whole response, the contents of the first
// fenced code block, and the widest brace-delimited substring. Returns
// nil when none of them parses.
func ExtractJSON(raw string) []byte {
	trimmed := strings.TrimSpace(raw)
	if isJSONObject(trimmed) {
		return []byte(trimmed)
	}

	if m := fencedBlock.FindStringSubmatch(raw); m != nil {
		if inner := strings.TrimSpace(m[1]); isJSONObject(inner) {
			return []byte(inner)
		}
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		if candidate := raw[start : end+1]; isJSONObject(candidate) {
			return []byte(candidate)
		}
	}

	return nil
}

func isJSONObject(s string) bool {
	var obj map[string]json.RawMessage
	return json.Unmarshal([]byte(s), &obj) == nil
}
