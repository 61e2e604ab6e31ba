package format

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FormatName title-cases a personal name using Brazilian Portuguese rules
// and collapses repeated whitespace.
func FormatName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	caser := cases.Title(language.BrazilianPortuguese)
	return caser.String(strings.Join(fields, " "))
}
