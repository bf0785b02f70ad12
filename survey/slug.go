package survey

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

var reNoSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases the title, strips accents and joins the remaining
// ASCII words with hyphens.
func Slugify(title string) string {
	var b strings.Builder
	for _, r := range norm.NFKD.String(title) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	slug := reNoSlug.ReplaceAllLiteralString(b.String(), "-")
	return strings.Trim(slug, "-")
}

// NewSlug builds the public address of a new survey: the slugified title
// followed by a 6 character random suffix.
func NewSlug(title string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	base := Slugify(title)
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}
