package organizations

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxSlugLength matches the DNS label limit so slugs can double as subdomains.
const MaxSlugLength = 63

var (
	slugPattern  = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
)

// IsValidSlug reports whether s is a URL-safe slug.
func IsValidSlug(s string) bool {
	return len(s) <= MaxSlugLength && slugPattern.MatchString(s)
}

// Slugify derives a slug from a display name: "Café Crème Inc." becomes
// "cafe-creme-inc". Returns an empty string when nothing usable remains.
func Slugify(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}

	slug := nonSlugChars.ReplaceAllString(strings.ToLower(folded), "-")
	slug = strings.Trim(slug, "-")

	if len(slug) > MaxSlugLength {
		slug = strings.TrimRight(slug[:MaxSlugLength], "-")
	}
	return slug
}
