package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeJSON finds the first JSON array or object in a model response that
// decodes into v. Preambles, trailing chatter, and code fences are skipped.
func DecodeJSON(text string, v any) error {
	for _, raw := range JSONValues(text) {
		if err := json.Unmarshal(raw, v); err == nil {
			return nil
		}
	}
	return fmt.Errorf("no valid JSON found in response: %s", truncate(CleanResponse(text), 200))
}

// JSONValues returns every JSON array or object that starts somewhere in a
// model response, in order of their opening bracket. Nested values are
// returned after the value that contains them.
func JSONValues(text string) []json.RawMessage {
	text = fixInvalidEscapes(CleanResponse(text))

	var values []json.RawMessage
	for i := 0; i < len(text); i++ {
		if text[i] != '[' && text[i] != '{' {
			continue
		}
		decoder := json.NewDecoder(strings.NewReader(text[i:]))
		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			continue
		}
		values = append(values, raw)
	}
	return values
}

// fixes invalid JSON escape sequences like \N by escaping the backslash
func fixInvalidEscapes(s string) string {
	var result strings.Builder
	result.Grow(len(s))

	i := 0
	for i < len(s) {
		if i < len(s)-1 && s[i] == '\\' {
			next := s[i+1]
			switch next {
			case '"', '\\', '/', 'b', 'f', 'n', 'r', 't', 'u':
				result.WriteByte(s[i])
				result.WriteByte(next)
			default:
				result.WriteString("\\\\")
				result.WriteByte(next)
			}
			i += 2
			continue
		}
		result.WriteByte(s[i])
		i++
	}

	return result.String()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
