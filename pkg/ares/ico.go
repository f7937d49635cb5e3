package ares

// icoWeights are the checksum weights for the first seven ICO digits.
var icoWeights = [7]int{8, 7, 6, 5, 4, 3, 2}

// ValidICO validates an 8-digit Czech business identifier using the
// weighted-sum modulo 11 checksum: if the remainder is below 2 the check
// digit equals the remainder, otherwise 11 minus the remainder.
func ValidICO(ico string) bool {
	if len(ico) != 8 {
		return false
	}

	sum := 0
	for i := 0; i < 7; i++ {
		d := ico[i]
		if d < '0' || d > '9' {
			return false
		}
		sum += int(d-'0') * icoWeights[i]
	}

	last := ico[7]
	if last < '0' || last > '9' {
		return false
	}

	remainder := sum % 11
	check := remainder
	if remainder >= 2 {
		check = 11 - remainder
	}

	return int(last-'0') == check
}
