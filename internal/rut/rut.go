// Package rut validates Chilean national identification numbers (RUT),
// including the weighted modulo-11 check digit.
package rut

import (
	"regexp"
	"strconv"
	"strings"
)

var shape = regexp.MustCompile(`^\d{7,}-[\dKk]$`)

const minBody = 1_000_000

// Valid reports whether s is a well-formed RUT with a correct check digit.
// It never panics on arbitrary input.
func Valid(s string) bool {
	if !shape.MatchString(s) {
		return false
	}

	dash := strings.LastIndexByte(s, '-')
	body := s[:dash]
	check := strings.ToUpper(s[dash+1:])

	// Leading zeros would pass the regex but represent an out-of-range number.
	var n int64
	for i := 0; i < len(body); i++ {
		n = n*10 + int64(body[i]-'0')
		if n > 1_000_000_000_000 {
			return false
		}
	}
	if n < minBody {
		return false
	}

	return expectedDigit(body) == check
}

// Format renders body with its computed check digit. Used by the seeder and
// the booking simulator to mint valid identifiers.
func Format(body int) string {
	s := strconv.Itoa(body)
	return s + "-" + expectedDigit(s)
}

// expectedDigit computes the check digit over the numeric portion using the
// repeating weight sequence 2,3,4,5,6,7 applied right to left.
func expectedDigit(body string) string {
	sum := 0
	weight := 2
	for i := len(body) - 1; i >= 0; i-- {
		sum += int(body[i]-'0') * weight
		weight++
		if weight > 7 {
			weight = 2
		}
	}

	switch d := 11 - sum%11; d {
	case 11:
		return "0"
	case 10:
		return "K"
	default:
		return string(rune('0' + d))
	}
}
