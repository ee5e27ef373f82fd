package catalog

import "strings"

// validISBN reports whether s is an ISBN-10 or ISBN-13 with a correct check
// digit. Hyphens and spaces are ignored.
func validISBN(s string) bool {
	digits := strings.NewReplacer("-", "", " ", "").Replace(strings.ToUpper(s))
	switch len(digits) {
	case 10:
		return validISBN10(digits)
	case 13:
		return validISBN13(digits)
	default:
		return false
	}
}

func validISBN10(s string) bool {
	sum := 0
	for i := 0; i < 10; i++ {
		var d int
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			d = int(c - '0')
		case c == 'X' && i == 9:
			d = 10
		default:
			return false
		}
		sum += (10 - i) * d
	}
	return sum%11 == 0
}

func validISBN13(s string) bool {
	sum := 0
	for i := 0; i < 13; i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return sum%10 == 0
}
