package services

import (
	"math"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const wordsPerMinute = 200

var (
	turkishReplacer = strings.NewReplacer(
		"ı", "i", "ğ", "g", "ü", "u", "ş", "s", "ö", "o", "ç", "c",
	)
	invalidSlugChars = regexp.MustCompile(`[^a-z0-9\s-]`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
	hyphenRun        = regexp.MustCompile(`-+`)
)

// Slugify turns a title into a URL-safe slug. Turkish letters and other
// Latin diacritics are folded to ASCII; anything else outside [a-z0-9-]
// is dropped.
func Slugify(title string) string {
	slug := strings.ToLower(title)
	slug = turkishReplacer.Replace(slug)
	slug = stripMarks(slug)
	slug = invalidSlugChars.ReplaceAllString(slug, "")
	slug = whitespaceRun.ReplaceAllString(slug, "-")
	slug = hyphenRun.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// ReadTime estimates minutes to read text at 200 words per minute, never
// less than one.
func ReadTime(text string) int {
	words := len(strings.Fields(text))
	minutes := int(math.Ceil(float64(words) / wordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}
