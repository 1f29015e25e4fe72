package vocab

import "strings"

// Comparator orders term strings. Less must define a strict total order.
type Comparator interface {
	Less(a, b string) bool
}

// PlainComparator is byte-lexicographic over the raw term string.
type PlainComparator struct{}

func (PlainComparator) Less(a, b string) bool { return a < b }

// CaseInsensitiveComparator implements the literal/langtag-aware collation
// of §4.3: every non-literal sorts before every literal; literals compare by
// lowercased value, then langtag, then original value.
type CaseInsensitiveComparator struct{}

func (CaseInsensitiveComparator) Less(a, b string) bool {
	aLit, aVal, aLang := ExtractComparable(a)
	bLit, bVal, bLang := ExtractComparable(b)

	if aLit != bLit {
		// Classes differ: non-literals sort before literals, keeping the two
		// classes disjoint in the ordering (§4.3 "Collation", S4).
		return !aLit
	}

	aLower, bLower := strings.ToLower(aVal), strings.ToLower(bVal)
	if aLower != bLower {
		return aLower < bLower
	}
	if aLang != bLang {
		return aLang < bLang
	}
	return a < b
}

// IsLiteral reports whether s is a literal (starts with a double quote).
func IsLiteral(s string) bool {
	return strings.HasPrefix(s, `"`)
}

// ExtractComparable splits a term into (isLiteral, value, langtag) per
// §4.3: a literal is split at the closing quote into (value, langtag), where
// langtag is the whole remainder after the quote with its marker kept
// ("@en", or "^^<datatype>" for a typed literal); a missing closing quote
// yields an empty langtag and the full remainder as value. Non-literals have an empty langtag and the full string as value.
func ExtractComparable(s string) (isLiteral bool, value string, langtag string) {
	if !IsLiteral(s) {
		return false, s, ""
	}
	rest := s[1:]
	closing := strings.Index(rest, `"`)
	if closing == -1 {
		return true, rest, ""
	}
	return true, rest[:closing], rest[closing+1:]
}
