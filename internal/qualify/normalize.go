package qualify

import (
	"strings"
)

// Normalize lowercases s and strips every character that is not an ASCII
// letter or digit, so "B-BBEE", "b bbee" and "bbbee" compare equal.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FuzzyMatch reports whether a and b are equal or one contains the other.
// Empty strings never match.
func FuzzyMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}

// HasDocument reports whether any owned document type fuzzy-matches the
// required one after normalisation.
func HasDocument(ownedTypes []string, required string) bool {
	key := Normalize(required)
	for _, owned := range ownedTypes {
		if FuzzyMatch(Normalize(owned), key) {
			return true
		}
	}
	return false
}

// OwnsAll reports whether every required document is covered by owned.
func OwnsAll(ownedTypes, required []string) bool {
	for _, r := range required {
		if strings.TrimSpace(r) == "" {
			continue
		}
		if !HasDocument(ownedTypes, r) {
			return false
		}
	}
	return true
}

// SplitClauses breaks a free-text requirements block into clauses on
// newlines and bullet characters, trimming bullet and numbering markers.
func SplitClauses(block string) []string {
	block = strings.ReplaceAll(block, "\r\n", "\n")
	block = strings.ReplaceAll(block, "\r", "\n")
	block = strings.NewReplacer("•", "\n", "◦", "\n", "▪", "\n", "·", "\n").Replace(block)

	var out []string
	seen := make(map[string]struct{})
	for _, raw := range strings.Split(block, "\n") {
		s := strings.TrimSpace(raw)
		s = strings.TrimLeft(s, " \t-*–—>")
		s = stripLeadingNumbering(s)
		s = strings.Join(strings.Fields(s), " ")
		if s == "" {
			continue
		}
		k := strings.ToLower(s)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	return out
}

func stripLeadingNumbering(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}

	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(s) {
		return s
	}
	// "7GB" is a grade, not a list number.
	if s[i] != '.' && s[i] != ')' {
		return s
	}

	for i < len(s) {
		switch s[i] {
		case '.', ')', '-', ':', ' ', '\t':
			i++
		default:
			return strings.TrimSpace(s[i:])
		}
	}

	return strings.TrimSpace(s)
}

func titleCase(raw string) string {
	raw = strings.NewReplacer("_", " ", "-", " ", ".", " ", "/", " ").Replace(raw)
	words := strings.Fields(raw)
	for i, w := range words {
		w = strings.ToLower(w)
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
