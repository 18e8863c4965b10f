package board

import (
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// NaturalLess compares strings treating runs of digits as numbers, so
// bed "2" sorts before bed "10" and "2A" before "2B".
func NaturalLess(a, b string) bool {
	for a != "" && b != "" {
		ra, rb := rune(a[0]), rune(b[0])
		if unicode.IsDigit(ra) && unicode.IsDigit(rb) {
			na, restA := leadingDigits(a)
			nb, restB := leadingDigits(b)
			if c := compareDigits(na, nb); c != 0 {
				return c < 0
			}
			a, b = restA, restB
			continue
		}
		la, lb := unicode.ToLower(ra), unicode.ToLower(rb)
		if la != lb {
			return la < lb
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

func leadingDigits(s string) (string, string) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return s[:i], s[i:]
}

// compareDigits compares two unsigned decimal strings of any length.
func compareDigits(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

// wardNumber extracts the first number in a ward name.
func wardNumber(ward string) (int, bool) {
	start := strings.IndexFunc(ward, unicode.IsDigit)
	if start < 0 {
		return 0, false
	}
	digits, _ := leadingDigits(ward[start:])
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// OrderWards sorts ward names by their first number ("Ward 2" before
// "Ward 10"). Numbered wards come before unnumbered ones, which sort
// alphabetically.
func OrderWards(wards []string) []string {
	out := append(make([]string, 0, len(wards)), wards...)
	sort.SliceStable(out, func(i, j int) bool {
		ni, oki := wardNumber(out[i])
		nj, okj := wardNumber(out[j])
		switch {
		case oki && okj && ni != nj:
			return ni < nj
		case oki != okj:
			return oki
		default:
			return out[i] < out[j]
		}
	})
	return out
}
