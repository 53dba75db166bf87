/*
	Package codec defines the contract of pixel decompressors and a registry of the
	available schemes.  Codec implementations live in subpackages and register
	themselves on import:

		import _ "github.com/janelia-flyem/bioio/codec/msrle"

	A codec turns a compressed byte run into an uncompressed plane.  Output depends
	only on the input bytes and Params, and input bytes are never modified.
	Predictive codecs additionally read the previously decoded plane from
	Params.Previous; see Sequencer for managing that state over a series.
*/
package codec

// Params is the closed set of options a codec may consult.
type Params struct {
	Width, Height int

	// BitsPerSample is the stored sample depth, e.g., 8 or 16.
	BitsPerSample int

	// SamplesPerPixel defaults to 1 when zero.
	SamplesPerPixel int

	LittleEndian bool

	// Previous is the decoded predecessor plane for predictive codecs, or nil
	// when the plane should be treated as a reference frame.
	Previous []byte

	// MaxBytes bounds the decompressed size for stream codecs that cannot infer
	// it from the geometry.  Zero means PlaneBytes.
	MaxBytes int
}

func (p Params) samples() int {
	if p.SamplesPerPixel < 1 {
		return 1
	}
	return p.SamplesPerPixel
}

// PlaneBytes returns the size of a decoded plane with these geometry settings.
func (p Params) PlaneBytes() int {
	bytesPerSample := (p.BitsPerSample + 7) / 8
	if bytesPerSample == 0 {
		bytesPerSample = 1
	}
	return p.Width * p.Height * p.samples() * bytesPerSample
}

func (p Params) limit() int {
	if p.MaxBytes > 0 {
		return p.MaxBytes
	}
	return p.PlaneBytes()
}

// Codec decompresses pixel data.
type Codec interface {
	// Name is the registry name, e.g., "msrle".
	Name() string

	// Decode returns the decompressed bytes.  src is not modified.
	Decode(src []byte, p Params) ([]byte, error)
}

// Predictive is implemented by codecs whose output for one plane depends on the
// previously decoded plane.
type Predictive interface {
	Codec
	Predictive() bool
}

// IsPredictive reports whether c reads Params.Previous.
func IsPredictive(c Codec) bool {
	pc, ok := c.(Predictive)
	return ok && pc.Predictive()
}
