// SPDX-License-Identifier: MIT
/*
Package bitint provides the power-of-two check used when sizing FFT frames
and ring buffers.
*/
package bitint

// IsPowerOfTwo reports whether n is a positive power of 2. The expression
// (n & (n-1)) == 0 works because:
//   - Powers of 2 have exactly one bit set
//   - Subtracting 1 from a power of 2 sets all lower bits
//
// Examples:
//
//	Input  Output  Binary
//	8      true    1000 & 0111 = 0000
//	7      false   0111 & 0110 = 0110
//	0      false   Not positive
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
