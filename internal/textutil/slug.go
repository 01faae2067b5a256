package textutil

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// asciiFold decomposes accented characters and strips combining marks so
// "Café" slugs as "cafe" rather than dropping the rune entirely.
var asciiFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify converts text into a lowercase URL-safe slug. Runs of
// non-alphanumeric characters collapse into a single hyphen and
// leading/trailing hyphens are trimmed.
func Slugify(text string) string {
	folded, _, err := transform.String(asciiFold, text)
	if err != nil {
		folded = text
	}
	lowered := strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(lowered))
	pendingHyphen := false
	for _, r := range lowered {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		default:
			pendingHyphen = true
		}
	}
	return b.String()
}

// PostSlug derives the public lookup key for a post from its title and
// creation time. The millisecond suffix guarantees uniqueness for posts
// sharing a headline.
func PostSlug(title string, createdAt time.Time) string {
	base := Slugify(title)
	suffix := strconv.FormatInt(createdAt.UnixMilli(), 10)
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}
