package preferences

import "strings"

// Tokenize splits free text on commas, then on runs of whitespace, and drops
// empty tokens. "foo, bar baz" yields ["foo" "bar" "baz"]; "" yields [].
func Tokenize(text string) []string {
	tokens := []string{}
	for _, part := range strings.Split(text, ",") {
		for _, tok := range strings.Fields(part) {
			if tok = strings.TrimSpace(tok); tok != "" {
				tokens = append(tokens, tok)
			}
		}
	}
	return tokens
}

// Search fields accepted by the count endpoint.
const (
	SearchInTitle       = "title"
	SearchInDescription = "description"
)

// BuildSearchIn lists the enabled search fields, title first.
func BuildSearchIn(title, description bool) []string {
	fields := []string{}
	if title {
		fields = append(fields, SearchInTitle)
	}
	if description {
		fields = append(fields, SearchInDescription)
	}
	return fields
}
