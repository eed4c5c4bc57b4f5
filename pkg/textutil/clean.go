// Package textutil cleans the free-text fields of remote dump rows
// before they are written to the normalized store.
package textutil

import (
	"regexp"
	"strings"
)

// tagPattern matches a single non-nested markup tag.
var tagPattern = regexp.MustCompile(`<[^>]*>`)

var plainTextReplacer = strings.NewReplacer(
	";", "",
	"\n", " ",
	"ё", "е", // ё -> е
)

// CleanPlainText scrubs a name or title: semicolons are dropped,
// newlines become spaces, and the Cyrillic ё variant is folded to its
// canonical е.
func CleanPlainText(s string) string {
	return plainTextReplacer.Replace(s)
}

var langReplacements = map[string]string{
	"ru-": "ru",
	"ru~": "ru",
}

// NormalizeLanguage lower-cases a language tag and folds the malformed
// variants the remote dump is known to contain. Unknown values pass
// through lower-cased.
func NormalizeLanguage(lang string) string {
	lower := strings.ToLower(lang)
	if replaced, ok := langReplacements[lower]; ok {
		return replaced
	}
	return lower
}

var annotationTokenReplacer = strings.NewReplacer(
	"&nbsp;", "",
	"[b]", "",
	"[/b]", "",
	"[hr]", "",
)

// CleanAnnotationText strips markup from an annotation body: HTML-like
// tags first, then the fixed set of literal tokens the dump uses. The
// order matters, since token removal must see the tag-free text.
func CleanAnnotationText(text string) string {
	t := tagPattern.ReplaceAllString(text, "")
	return annotationTokenReplacer.Replace(t)
}
