package llm

import (
	"regexp"
	"strings"
)

var leadingFence = regexp.MustCompile("(?i)^```(?:json)?\\s*")

// StripCodeFence removes a leading ``` or ```json fence and a trailing ``` from a
// model response so wrapped JSON parses like the bare text.
func StripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	s = leadingFence.ReplaceAllString(s, "")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
