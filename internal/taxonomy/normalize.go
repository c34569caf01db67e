package taxonomy

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonKeyChars = regexp.MustCompile(`[^a-z0-9\s]`)

// Normalize folds a category name into its lookup key: accents removed,
// lowercased, and every character outside [a-z0-9] and whitespace dropped.
// "Città" and "citta" share the key "citta".
func Normalize(name string) string {
	folded, _, err := transform.String(
		transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		),
		name,
	)
	if err != nil {
		folded = name
	}
	return nonKeyChars.ReplaceAllString(strings.ToLower(folded), "")
}
