// Package normalize holds the string normalizers used to group free-text
// college names and transaction ids. Both normalizers are idempotent.
package normalize

import "strings"

// CollegeKey reduces a free-text college name to its grouping key.
func CollegeKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// TransactionKey reduces a transaction id to its duplicate-detection key:
// every non-alphanumeric rune is stripped and the rest lowercased.
func TransactionKey(txn string) string {
	var b strings.Builder
	b.Grow(len(txn))
	for _, r := range txn {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		}
	}
	return b.String()
}

// HasSpecialCharacters reports whether a raw transaction id contains any
// non-alphanumeric character. Heuristic for pasted extra text or spaces.
func HasSpecialCharacters(txn string) bool {
	for _, r := range txn {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !isAlnum {
			return true
		}
	}
	return false
}
