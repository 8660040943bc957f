// SPDX-License-Identifier: MIT
package storage

import (
	"encoding/binary"
	"fmt"
	"math"

	"specmon/internal/spectrum"
)

const bandsBlobSize = spectrum.NumBands * 4

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if cErr := rb.Rollback(); cErr != nil && *err == nil {
		*err = cErr
	}
}

// encodeBands packs bands as little-endian float32s.
func encodeBands(bands *spectrum.Bands) []byte {
	blob := make([]byte, bandsBlobSize)
	for i, v := range bands {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(float32(v)))
	}
	return blob
}

func decodeBands(blob []byte, dst *spectrum.Bands) error {
	if len(blob) != bandsBlobSize {
		return fmt.Errorf("band blob has %d bytes, want %d", len(blob), bandsBlobSize)
	}
	for i := range dst {
		dst[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:])))
	}
	return nil
}
