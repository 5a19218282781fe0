// Package numeral parses integers typed with any Unicode decimal digits
// (Persian, Arabic-Indic, fullwidth, ...) and common group separators.
package numeral

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

var ErrNotANumber = errors.New("not a number")

const separators = ",.'_\u066b\u066c\u060c"

func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune(separators, r)
}

// digitValue relies on Nd runs in Unicode being laid out in blocks of ten
// starting at zero.
func digitValue(r rune) rune {
	start := r
	for start > 0 && unicode.IsDigit(start-1) {
		start--
	}
	return (r - start) % 10
}

func foldDigit(r rune) rune {
	if r >= '0' && r <= '9' {
		return r
	}
	if unicode.IsDigit(r) {
		return '0' + digitValue(r)
	}
	if r == '−' {
		return '-'
	}
	return r
}

func normalizer() transform.Transformer {
	return transform.Chain(runes.Remove(runes.Predicate(isSeparator)), runes.Map(foldDigit))
}

// Normalize folds digits to ASCII and drops separators and whitespace.
func Normalize(raw string) string {
	s, _, err := transform.String(normalizer(), raw)
	if err != nil {
		return ""
	}
	return s
}

// ParseInt reads a signed integer. Separators may only split digit groups of
// three, so "12.5" or "1,50" are rejected rather than read as 125 or 150.
func ParseInt(raw string) (int64, error) {
	if !grouped(strings.FieldsFunc(raw, isSeparator)) {
		return 0, ErrNotANumber
	}
	s := Normalize(raw)
	if s == "" {
		return 0, ErrNotANumber
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, ErrNotANumber
	}
	return n, nil
}

func grouped(groups []string) bool {
	if len(groups) == 0 {
		return false
	}
	if len(groups) == 1 {
		return true
	}
	first := strings.TrimLeft(groups[0], "-−+")
	if n := utf8.RuneCountInString(first); n < 1 || n > 3 {
		return false
	}
	for _, g := range groups[1:] {
		if utf8.RuneCountInString(g) != 3 {
			return false
		}
	}
	return true
}

// Format renders n with the digit shapes and grouping of lang.
// Unknown tags fall back to English.
func Format(lang string, n int64) string {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	return message.NewPrinter(tag).Sprintf("%d", n)
}
