// SPDX-License-Identifier: MIT
package spectrum

import (
	"fmt"

	"specmon/pkg/bitint"
)

// ringMask wraps the cursor; FFTSize must be a power of two.
const ringMask = FFTSize - 1

func init() {
	if !bitint.IsPowerOfTwo(FFTSize) || FFTSize%HopSize != 0 {
		panic(fmt.Sprintf("spectrum: FFT size %d must be a power of two and a multiple of hop size %d", FFTSize, HopSize))
	}
}

// RingBuffer keeps the most recent FFTSize samples of both channels. The two
// channels are always written in lockstep and share one cursor, which points
// at the oldest sample.
type RingBuffer struct {
	left   [FFTSize]float64
	right  [FFTSize]float64
	cursor int
}

// PushHop appends one hop per channel, overwriting the oldest samples.
// Both slices must hold HopSize samples.
func (r *RingBuffer) PushHop(left, right []float64) {
	for i := 0; i < HopSize; i++ {
		r.left[r.cursor] = left[i]
		r.right[r.cursor] = right[i]
		r.cursor = (r.cursor + 1) & ringMask
	}
}

// PushInterleaved de-interleaves one hop of stereo frames (L, R, L, R, ...)
// into the ring. frames must hold 2*HopSize samples.
func (r *RingBuffer) PushInterleaved(frames []float32) {
	for i := 0; i < HopSize; i++ {
		r.left[r.cursor] = float64(frames[i*2])
		r.right[r.cursor] = float64(frames[i*2+1])
		r.cursor = (r.cursor + 1) & ringMask
	}
}

// Window copies one channel into dst in arrival order, oldest first.
// dst must hold FFTSize samples.
func (r *RingBuffer) Window(ch Channel, dst []float64) {
	src := &r.left
	if ch == Right {
		src = &r.right
	}
	n := copy(dst, src[r.cursor:])
	copy(dst[n:], src[:r.cursor])
}
