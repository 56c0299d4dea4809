package llm

import "strings"

// ExtractJSONObject returns the substring from the first '{' to the last '}'.
// Surrounding prose and code fences are discarded. ok is false when no such
// span exists.
func ExtractJSONObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", false
	}
	return text[start : end+1], true
}
