// SPDX-License-Identifier: MIT
// Package bitint provides power-of-two helpers for FFT and buffer
// sizing. All operations are O(1), allocation-free bit manipulation.
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of 2 >= size. Powers of 2
// return themselves; non-positive input returns 1.
//
// The size-1 subtraction keeps exact powers of 2 from doubling: for 8,
// bits.Len64(7) = 3 and 1<<3 = 8.
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len64(uint64(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of 2. Powers of 2
// have exactly one bit set, so n&(n-1) clears it to zero.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
