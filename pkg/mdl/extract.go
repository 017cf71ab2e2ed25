package mdl

import (
	"regexp"
	"strings"
)

// DirectiveMarker tags messages that carry MDL for another purpose (format
// directives) and must not be rendered.
const DirectiveMarker = "// MDLChef MDIR"

// snippetPattern spans from the first '{' to the last '}' around an MDL
// version marker, across lines.
var snippetPattern = regexp.MustCompile(`(?s)\{.*MDL/1\..*\}`)

// Extract finds an MDL snippet inside free text such as a chat message.
// It reports false when the text has no version marker, carries the
// directive marker, or has no braces around the marker.
func Extract(message string) (string, bool) {
	if !strings.Contains(message, "MDL/1.") {
		return "", false
	}
	if strings.Contains(message, DirectiveMarker) {
		return "", false
	}
	snippet := snippetPattern.FindString(message)
	if snippet == "" {
		return "", false
	}
	return snippet, true
}
