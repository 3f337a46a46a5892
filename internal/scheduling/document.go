package scheduling

import "strings"

// SynthesizeDocument derives a deterministic, checksum-valid CPF from a lead
// id, used when the contact has no usable identity document. The same lead
// id always yields the same document, so repeated events for one lead do not
// multiply Belle customers.
func SynthesizeDocument(leadID int64) string {
	if leadID < 0 {
		leadID = -leadID
	}
	// Spread the id across the nine base digits so small sequential lead ids
	// do not produce near-identical documents.
	n := (uint64(leadID)*2654435761 + 104729) % 1_000_000_000

	var digits [11]int
	for i := 8; i >= 0; i-- {
		digits[i] = int(n % 10)
		n /= 10
	}
	if allSame(digits[:9]) {
		// Repeated-digit bases are conventionally rejected by CPF validators.
		digits[8] = (digits[8] + 1) % 10
	}

	digits[9] = cpfCheckDigit(digits[:9])
	digits[10] = cpfCheckDigit(digits[:10])

	var b strings.Builder
	for _, d := range digits {
		b.WriteByte(byte('0' + d))
	}
	return b.String()
}

// ValidDocument reports whether doc is a plausible CPF: eleven digits after
// stripping punctuation, not a repeated-digit sequence, check digits valid.
func ValidDocument(doc string) bool {
	var digits []int
	for _, r := range doc {
		switch {
		case r >= '0' && r <= '9':
			digits = append(digits, int(r-'0'))
		case r == '.' || r == '-' || r == ' ':
			// formatting
		default:
			return false
		}
	}
	if len(digits) != 11 || allSame(digits[:9]) {
		return false
	}
	return digits[9] == cpfCheckDigit(digits[:9]) && digits[10] == cpfCheckDigit(digits[:10])
}

// cpfCheckDigit computes the next CPF verifier digit over the given prefix
// (9 digits for the first verifier, 10 for the second).
func cpfCheckDigit(digits []int) int {
	weight := len(digits) + 1
	sum := 0
	for _, d := range digits {
		sum += d * weight
		weight--
	}
	r := sum * 10 % 11
	if r == 10 {
		return 0
	}
	return r
}

func allSame(digits []int) bool {
	for _, d := range digits[1:] {
		if d != digits[0] {
			return false
		}
	}
	return true
}
