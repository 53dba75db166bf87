/*
	The tests package provides builders of small synthetic image files for testing
	the decoding packages without vendor sample data.
*/
package tests

import (
	"math/rand"
	"time"

	"github.com/janelia-flyem/bioio/bio"
)

func init() {
	bio.SetLogMode(bio.WarningMode)
}

// RandomBytes returns a slices of random bytes.
func RandomBytes(numBytes int32) []byte {
	buf := make([]byte, numBytes)
	src := rand.NewSource(time.Now().UnixNano())
	var offset int32
	for {
		val := int64(src.Int63())
		for i := 0; i < 8; i++ {
			if offset >= numBytes {
				return buf
			}
			buf[offset] = byte(val)
			offset++
			val >>= 8
		}
	}
}

// Ramp returns n bytes counting up from start and wrapping at 256.
func Ramp(n int, start byte) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = start + byte(i)
	}
	return buf
}
