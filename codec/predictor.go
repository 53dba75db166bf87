package codec

import (
	"encoding/binary"
	"fmt"
)

// UndoHorizontalDifferencing reverses TIFF predictor 2 in place.  Each row holds
// width pixels of samples interleaved values with bytesPerSample bytes each.
func UndoHorizontalDifferencing(buf []byte, width, samples, bytesPerSample int, order binary.ByteOrder) error {
	rowBytes := width * samples * bytesPerSample
	if rowBytes == 0 || len(buf)%rowBytes != 0 {
		return fmt.Errorf("%w: buffer of %d bytes is not a whole number of %d-byte rows", ErrBadParams, len(buf), rowBytes)
	}
	for row := 0; row < len(buf); row += rowBytes {
		r := buf[row : row+rowBytes]
		switch bytesPerSample {
		case 1:
			for i := samples; i < len(r); i++ {
				r[i] += r[i-samples]
			}
		case 2:
			for i := samples; i < width*samples; i++ {
				v := order.Uint16(r[2*i:]) + order.Uint16(r[2*(i-samples):])
				order.PutUint16(r[2*i:], v)
			}
		case 4:
			for i := samples; i < width*samples; i++ {
				v := order.Uint32(r[4*i:]) + order.Uint32(r[4*(i-samples):])
				order.PutUint32(r[4*i:], v)
			}
		default:
			return fmt.Errorf("%w: predictor with %d-byte samples", ErrBadParams, bytesPerSample)
		}
	}
	return nil
}
