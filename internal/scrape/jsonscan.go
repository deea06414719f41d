package scrape

import (
	"errors"
	"strings"
)

var errNoValue = errors.New("no JSON value at marker")

// jsonAfter locates marker in s and returns the balanced JSON value (object
// or array) that starts at the first '{' or '[' following it. The scanner
// tracks quoted strings and escapes so braces inside string values do not
// throw off the depth count. The payload is embedded in script text, not a
// standalone JSON document, so this cannot be handed to a decoder directly.
func jsonAfter(s, marker string) (string, error) {
	at := strings.Index(s, marker)
	if at == -1 {
		return "", errNoValue
	}

	rest := s[at+len(marker):]
	start := strings.IndexAny(rest, "{[")
	if start == -1 {
		return "", errNoValue
	}

	// Only whitespace and separators may sit between marker and the value.
	if strings.TrimSpace(strings.Trim(rest[:start], ":= \t\n")) != "" {
		return "", errNoValue
	}

	open := rest[start]
	var closer byte = '}'
	if open == '[' {
		closer = ']'
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(rest); i++ {
		ch := rest[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\':
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == open:
			depth++
		case ch == closer:
			depth--
			if depth == 0 {
				return rest[start : i+1], nil
			}
		}
	}

	return "", errors.New("unterminated JSON value at marker")
}
