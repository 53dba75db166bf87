package bio

import "fmt"

// SeriesDescriptor holds the dimensions and sample layout of one series.
// It is populated once during initialization and then only read, except for
// explicit structural corrections such as FixScanAxes.
type SeriesDescriptor struct {
	SizeX, SizeY, SizeZ, SizeC, SizeT int

	// ImageCount is the number of addressable 2-D planes.
	ImageCount int

	PixelType      PixelType
	BitsPerPixel   int
	DimensionOrder string

	// LittleEndian applies to pixel data, which may differ from the header order.
	LittleEndian bool

	// RGB is set when a plane packs more than one channel sample per pixel.
	RGB bool

	// Interleaved samples are stored RGBRGB... rather than RR..GG..BB.
	Interleaved bool

	// Indexed pixel values are palette indices.
	Indexed bool

	// FalseColor is set when an attached palette is a display convenience only.
	FalseColor bool
}

func (d SeriesDescriptor) String() string {
	return fmt.Sprintf("%d x %d x %d x %d x %d (%s) %s, %d planes", d.SizeX, d.SizeY, d.SizeZ,
		d.SizeC, d.SizeT, d.DimensionOrder, d.PixelType, d.ImageCount)
}

// EffectiveSizeC returns the number of addressable planes per (Z,T) pair, or 0
// for an uninitialized descriptor.
func (d SeriesDescriptor) EffectiveSizeC() int {
	zt := d.SizeZ * d.SizeT
	if zt == 0 {
		return 0
	}
	return d.ImageCount / zt
}

// RGBChannelCount returns the number of samples packed into each plane, or 0 for
// an uninitialized descriptor.
func (d SeriesDescriptor) RGBChannelCount() int {
	effC := d.EffectiveSizeC()
	if effC == 0 {
		return 0
	}
	return d.SizeC / effC
}

// PlaneBytes returns the byte size of a w x h region of one plane.
func (d SeriesDescriptor) PlaneBytes(w, h int) int {
	return w * h * d.RGBChannelCount() * d.PixelType.Bytes()
}

// Validate checks the invariants a populated descriptor must satisfy.
func (d SeriesDescriptor) Validate() error {
	if d.SizeX < 1 || d.SizeY < 1 || d.SizeZ < 1 || d.SizeC < 1 || d.SizeT < 1 {
		return fmt.Errorf("Series sizes must be positive: %s", d)
	}
	if d.ImageCount < 1 {
		return fmt.Errorf("Series must have at least one plane: %s", d)
	}
	if err := ValidateOrder(d.DimensionOrder); err != nil {
		return err
	}
	if n := d.SizeZ * d.EffectiveSizeC() * d.SizeT; n != d.ImageCount {
		return fmt.Errorf("Image count %d does not match Z*C*T %d", d.ImageCount, n)
	}
	return nil
}

// axes returns the sizes of the Z, C and T axes ordered fastest-varying first,
// along with which of z (0), c (1) and t (2) each position holds.
func (d SeriesDescriptor) axes() (sizes [3]int, which [3]int, err error) {
	if err = ValidateOrder(d.DimensionOrder); err != nil {
		return
	}
	all := [3]int{d.SizeZ, d.EffectiveSizeC(), d.SizeT}
	for i := 0; i < 3; i++ {
		switch d.DimensionOrder[i+2] {
		case 'Z':
			which[i] = 0
		case 'C':
			which[i] = 1
		case 'T':
			which[i] = 2
		}
		sizes[i] = all[which[i]]
	}
	return
}

// PlaneIndex returns the linear index of the plane at (z, c, t).
func (d SeriesDescriptor) PlaneIndex(z, c, t int) (int, error) {
	sizes, which, err := d.axes()
	if err != nil {
		return 0, err
	}
	n := sizes[0] * sizes[1] * sizes[2]
	if n != d.ImageCount {
		return 0, fmt.Errorf("Z*C*T (%d) does not equal image count (%d)", n, d.ImageCount)
	}
	coord := [3]int{z, c, t}
	names := "ZCT"
	var all = [3]int{d.SizeZ, d.EffectiveSizeC(), d.SizeT}
	for i := 0; i < 3; i++ {
		if coord[i] < 0 || coord[i] >= all[i] {
			return 0, NewRangeError("%c index %d not in [0,%d)", names[i], coord[i], all[i])
		}
	}
	v0, v1, v2 := coord[which[0]], coord[which[1]], coord[which[2]]
	return v2*sizes[1]*sizes[0] + v1*sizes[0] + v0, nil
}

// Coordinates returns the (z, c, t) position of the plane with the given index.
func (d SeriesDescriptor) Coordinates(index int) (z, c, t int, err error) {
	sizes, which, err := d.axes()
	if err != nil {
		return
	}
	n := sizes[0] * sizes[1] * sizes[2]
	if n != d.ImageCount {
		err = fmt.Errorf("Z*C*T (%d) does not equal image count (%d)", n, d.ImageCount)
		return
	}
	if index < 0 || index >= n {
		err = NewRangeError("plane index %d not in [0,%d)", index, n)
		return
	}
	var coord [3]int
	coord[which[0]] = index % sizes[0]
	coord[which[1]] = (index / sizes[0]) % sizes[1]
	coord[which[2]] = index / (sizes[0] * sizes[1])
	return coord[0], coord[1], coord[2], nil
}

// FixScanAxes corrects a series whose Y axis is really Z or T, as happens for
// XZ and XT line scans stored with a degenerate Y.  It returns true if the
// descriptor was changed.
func (d *SeriesDescriptor) FixScanAxes() bool {
	if d.SizeY != 1 && d.SizeY != d.SizeZ && d.SizeY != d.SizeT {
		return false
	}
	switch {
	case d.SizeZ > 1 && d.ImageCount == d.SizeC*d.SizeT:
		d.SizeY, d.SizeZ = d.SizeZ, 1
		return true
	case d.SizeT > 1 && d.ImageCount == d.SizeC*d.SizeZ:
		d.SizeY, d.SizeT = d.SizeT, 1
		return true
	}
	return false
}

// Normalize replaces zero sizes with 1, turns XZ and XT line scans into single
// planes and cleans up the dimension order so that partially known descriptors
// become valid.
func (d *SeriesDescriptor) Normalize() {
	if d.SizeZ == 0 {
		d.SizeZ = 1
	}
	if d.SizeC == 0 {
		d.SizeC = 1
	}
	if d.SizeT == 0 {
		d.SizeT = 1
	}
	if d.ImageCount == 0 {
		d.ImageCount = 1
	}
	if d.ImageCount == 1 && d.SizeZ*d.SizeT > 1 {
		d.SizeZ, d.SizeT = 1, 1
	}
	d.FixScanAxes()
	if d.RGB {
		d.Indexed = false
	}
	if d.BitsPerPixel == 0 {
		d.BitsPerPixel = 8 * d.PixelType.Bytes()
	}
	d.DimensionOrder = MakeSaneOrder(d.DimensionOrder)
}
