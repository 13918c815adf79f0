package memlock

import "crypto/subtle"

// Equal reports whether a and b hold identical bytes. The comparison always
// covers the full operands, so execution time depends only on their lengths,
// never on where or whether the contents differ. Operands of different lengths
// are never equal.
func Equal(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// Compare returns -1, 0, or 1 ordering a against b with the same semantics as
// bytes.Compare: lexicographic by byte value, length breaking ties between
// prefixes. The shared region is always scanned in full and the result is
// accumulated without data-dependent branches, so execution time depends only
// on the operand lengths.
func Compare(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	// Walk from the last shared byte toward the first. A non-zero difference
	// replaces whatever was accumulated so far, leaving the lowest-index
	// difference in control once the walk finishes.
	var res int32
	for i := n - 1; i >= 0; i-- {
		diff := int32(a[i]) - int32(b[i])
		res = (res & (((diff - 1) & ^diff) >> 8)) | diff
	}

	// Collapse res from [-255, 255] to its sign.
	sign := ((res - 1) >> 8) + (res >> 8) + 1

	// Lengths are public, so branching on them leaks nothing. They only
	// matter when one operand is a prefix of the other.
	var tie int32
	switch {
	case len(a) < len(b):
		tie = -1
	case len(a) > len(b):
		tie = 1
	}

	// prefixEq is all ones when the shared region matched, all zeroes
	// otherwise.
	prefixEq := ((sign - 1) & ^sign) >> 8

	return int((sign & ^prefixEq) | (tie & prefixEq))
}
