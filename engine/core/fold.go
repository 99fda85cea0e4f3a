package core

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	turkishLower = cases.Lower(language.Turkish)
	dotless      = strings.NewReplacer("ı", "i")
)

// Fold lowercases s for keyword and lookup matching. Turkish casing rules
// apply, and the dotless i is folded so "Istanbul" and "İstanbul" agree.
func Fold(s string) string {
	return dotless.Replace(turkishLower.String(strings.TrimSpace(s)))
}

// ContainsFold reports whether the folded s contains any folded keyword.
func ContainsFold(s string, keywords ...string) bool {
	folded := Fold(s)
	for _, k := range keywords {
		if k != "" && strings.Contains(folded, Fold(k)) {
			return true
		}
	}
	return false
}
