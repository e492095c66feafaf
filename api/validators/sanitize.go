package validators

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	plainTextPolicy   = bluemonday.StrictPolicy()
	descriptionPolicy = newDescriptionPolicy()
)

// SanitizeString trims input and truncates it to maxLen runes.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 {
		runes := []rune(trimmed)
		if len(runes) > maxLen {
			return string(runes[:maxLen])
		}
	}
	return trimmed
}

// SanitizeText strips every tag, leaving unescaped plain text.
func SanitizeText(input string) string {
	return strings.TrimSpace(html.UnescapeString(plainTextPolicy.Sanitize(input)))
}

// SanitizeDescription keeps basic formatting markup in product descriptions
// and drops scripts, styles and event handlers.
func SanitizeDescription(input string) string {
	return strings.TrimSpace(descriptionPolicy.Sanitize(input))
}

func newDescriptionPolicy() *bluemonday.Policy {
	policy := bluemonday.NewPolicy()
	policy.AllowElements("p", "br", "strong", "em", "b", "i", "ul", "ol", "li")
	policy.AllowStandardURLs()
	policy.AllowAttrs("href").OnElements("a")
	policy.RequireNoFollowOnLinks(true)
	return policy
}
