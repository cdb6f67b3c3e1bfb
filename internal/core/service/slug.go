package service

import (
	"strings"
	"unicode"
)

// Slugify derives a URL-safe slug from a title: lowercase ASCII letters and
// digits, runs of everything else collapsed to single dashes. Returns "post"
// when nothing usable remains so a slug candidate always exists.
func Slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) && r < 128, unicode.IsDigit(r) && r < 128:
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
		default:
			dash = true
		}
	}
	s := b.String()
	if s == "" {
		return "post"
	}
	return s
}
