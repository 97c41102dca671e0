package core

import (
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// NameLess returns a locale aware, case insensitive "less" func for display names.
// The returned func is not safe for concurrent use.
func NameLess() func(a, b string) bool {
	c := collate.New(language.English, collate.IgnoreCase, collate.IgnoreDiacritics)
	return func(a, b string) bool {
		return c.CompareString(a, b) < 0
	}
}
