package providers

import (
	"encoding/json"
	"strings"
)

// decodeFieldObject turns a model answer into the raw field map. Models often
// wrap JSON in markdown fences or pad it with prose, so this strips fences
// first and falls back to the outermost brace block before giving up.
func decodeFieldObject(content string) (map[string]any, error) {
	cleaned := stripCodeFences(content)

	var raw map[string]any
	if err := json.Unmarshal([]byte(cleaned), &raw); err == nil {
		return raw, nil
	}

	block := firstBraceBlock(cleaned)
	if block == "" {
		return nil, errNoJSONObject
	}
	if err := json.Unmarshal([]byte(block), &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

var errNoJSONObject = jsonishError("no JSON object in response")

type jsonishError string

func (e jsonishError) Error() string { return string(e) }

// stripCodeFences removes a surrounding ```json ... ``` fence if present.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// firstBraceBlock returns the first balanced {...} block in s, or "".
func firstBraceBlock(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
