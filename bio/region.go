package bio

// CheckPlane returns a RangeError unless 0 <= no < d.ImageCount.
func CheckPlane(d SeriesDescriptor, no int) error {
	if no < 0 || no >= d.ImageCount {
		return NewRangeError("plane %d not in [0,%d)", no, d.ImageCount)
	}
	return nil
}

// CheckRegion returns a RangeError unless plane no exists and the w x h region at
// (x, y) lies within its bounds.  Empty regions are rejected.
func CheckRegion(d SeriesDescriptor, no, x, y, w, h int) error {
	if err := CheckPlane(d, no); err != nil {
		return err
	}
	if x < 0 || y < 0 || w < 1 || h < 1 {
		return NewRangeError("region (%d,%d) %dx%d has negative offset or empty size", x, y, w, h)
	}
	if w > d.SizeX-x || h > d.SizeY-y {
		return NewRangeError("region (%d,%d) %dx%d exceeds plane size %dx%d", x, y, w, h,
			d.SizeX, d.SizeY)
	}
	return nil
}

// CopyRegion copies a w x h region at (x, y) out of a full plane whose rows are
// planeWidth pixels of pixelBytes each.
func CopyRegion(plane []byte, planeWidth, pixelBytes, x, y, w, h int) []byte {
	rowBytes := planeWidth * pixelBytes
	if x == 0 && w == planeWidth {
		out := make([]byte, w*h*pixelBytes)
		copy(out, plane[y*rowBytes:])
		return out
	}
	out := make([]byte, w*h*pixelBytes)
	n := w * pixelBytes
	for row := 0; row < h; row++ {
		src := (y+row)*rowBytes + x*pixelBytes
		copy(out[row*n:(row+1)*n], plane[src:src+n])
	}
	return out
}
