package core

import (
	"math"
	"strconv"
	"strings"
)

// MaxQuantity bounds a single quantity so that report sums stay finite.
const MaxQuantity = 1e9

// ValidQuantity reports whether q can be stored: finite, not negative and
// at most MaxQuantity.
func ValidQuantity(q float64) bool {
	return !math.IsNaN(q) && q >= 0 && q <= MaxQuantity
}

// ParseQuantity reads a quantity cell leniently: surrounding blanks are
// ignored, a decimal comma is accepted and the longest numeric prefix wins
// ("12kg" is 12). Anything unreadable or beyond MaxQuantity counts as zero.
func ParseQuantity(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return finite(v)
	}
	end := numericPrefix(s, true)
	if end == 0 {
		return 0
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return finite(v)
}

// ParseCellInt reads an integer cell the same lenient way. The boolean is
// false when the cell holds no leading integer at all.
func ParseCellInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := numericPrefix(s, false)
	if end == 0 {
		return 0, false
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return v, true
}

// FormatQuantity renders a quantity for a sheet cell without trailing zeros.
func FormatQuantity(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func numericPrefix(s string, allowFraction bool) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
		digits++
	}
	if allowFraction && i < len(s) && s[i] == '.' {
		j := i + 1
		frac := 0
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
			frac++
		}
		if frac > 0 {
			i = j
			digits += frac
		}
	}
	if digits == 0 {
		return 0
	}
	return i
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.Abs(v) > MaxQuantity {
		return 0
	}
	return v
}
