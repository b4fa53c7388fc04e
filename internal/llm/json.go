package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeJSON strips markdown fences and surrounding prose from a model reply
// and unmarshals the first JSON object into out. Models wrap JSON in
// ```json blocks or prepend commentary often enough that decoding the raw
// text directly is the uncommon case.
func DecodeJSON(text string, out any) error {
	cleaned := ExtractJSON(text)
	if cleaned == "" {
		return fmt.Errorf("no JSON object in reply")
	}
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return fmt.Errorf("unmarshal reply: %w", err)
	}
	return nil
}

// ExtractJSON returns the outermost {...} span of text with any markdown
// fences removed, or "" when no object is present.
func ExtractJSON(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}
