package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict strips every element; bluemonday policies are safe for concurrent use.
var strict = bluemonday.StrictPolicy()

// PlainText removes markup from user-supplied text such as bios and skill
// descriptions. Entities are decoded again so "&" round-trips as "&".
func PlainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
