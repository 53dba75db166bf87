package format

import (
	"github.com/janelia-flyem/bioio/bio"
	"github.com/janelia-flyem/bioio/meta"
)

// --- LittleEndian ---

type littleEndian struct {
	*Wrapper
}

// LittleEndian returns multi-byte samples in little-endian order regardless of
// how the file stores them.
func LittleEndian(r Reader) Reader {
	o := r.Options()
	if !o.Normalized {
		o.Normalized = true
		if err := r.SetOptions(o); err != nil {
			bio.Debugf("byte order option not recorded: %v\n", err)
		}
	}
	return &littleEndian{NewWrapper(r, LittleEndian)}
}

func (l *littleEndian) Descriptor() bio.SeriesDescriptor {
	d := l.Reader.Descriptor()
	d.LittleEndian = true
	return d
}

func (l *littleEndian) ReadPlane(no, x, y, w, h int) ([]byte, error) {
	d := l.Reader.Descriptor()
	buf, err := l.Reader.ReadPlane(no, x, y, w, h)
	if err != nil || d.LittleEndian {
		return buf, err
	}
	swapBytes(buf, d.PixelType.Bytes())
	return buf, nil
}

// swapBytes reverses each n-byte sample in place.
func swapBytes(buf []byte, n int) {
	if n < 2 {
		return
	}
	for i := 0; i+n <= len(buf); i += n {
		for a, b := i, i+n-1; a < b; a, b = a+1, b-1 {
			buf[a], buf[b] = buf[b], buf[a]
		}
	}
}

// --- ChannelSeparator ---

type channelSeparator struct {
	*Wrapper
}

// ChannelSeparator splits planes that pack several channel samples so that
// every channel is its own plane and ImageCount equals SizeZ*SizeC*SizeT.
// Series that do not pack channels are untouched.
func ChannelSeparator(r Reader) Reader {
	return &channelSeparator{NewWrapper(r, ChannelSeparator)}
}

func (s *channelSeparator) samples() int {
	n := s.Reader.Descriptor().RGBChannelCount()
	if n < 1 {
		return 1
	}
	return n
}

func (s *channelSeparator) Descriptor() bio.SeriesDescriptor {
	d := s.Reader.Descriptor()
	if s.samples() == 1 {
		return d
	}
	d.ImageCount = d.SizeZ * d.SizeC * d.SizeT
	d.RGB = false
	d.Interleaved = false
	return d
}

func (s *channelSeparator) ImageCount() int {
	return s.Descriptor().ImageCount
}

func (s *channelSeparator) ReadPlane(no, x, y, w, h int) ([]byte, error) {
	n := s.samples()
	if n == 1 {
		return s.Reader.ReadPlane(no, x, y, w, h)
	}
	if err := bio.CheckRegion(s.Descriptor(), no, x, y, w, h); err != nil {
		return nil, err
	}
	z, c, t, err := s.Descriptor().Coordinates(no)
	if err != nil {
		return nil, err
	}
	inner := s.Reader.Descriptor()
	source, err := inner.PlaneIndex(z, c/n, t)
	if err != nil {
		return nil, err
	}
	buf, err := s.Reader.ReadPlane(source, x, y, w, h)
	if err != nil {
		return nil, err
	}
	return extractChannel(buf, c%n, n, inner.PixelType.Bytes(), inner.Interleaved), nil
}

// extractChannel returns channel ch of a plane holding n samples per pixel.
func extractChannel(buf []byte, ch, n, bytesPerSample int, interleaved bool) []byte {
	size := len(buf) / n
	if !interleaved {
		return append([]byte(nil), buf[ch*size:(ch+1)*size]...)
	}
	out := make([]byte, size)
	stride := n * bytesPerSample
	for i, o := ch*bytesPerSample, 0; o < size; i, o = i+stride, o+bytesPerSample {
		copy(out[o:o+bytesPerSample], buf[i:i+bytesPerSample])
	}
	return out
}

// --- metadata options ---

type optionsWrapper struct {
	*Wrapper
	force func(*Options)
}

func (w *optionsWrapper) SetOptions(o Options) error {
	w.force(&o)
	return w.Reader.SetOptions(o)
}

func newOptionsWrapper(r Reader, rewrap Decorator, force func(*Options)) Reader {
	o := r.Options()
	before := o
	force(&o)
	if !sameSettings(o, before) {
		if err := r.SetOptions(o); err != nil {
			bio.Warningf("%s reader already open, metadata options unchanged: %v\n", r.Format(), err)
		}
	}
	return &optionsWrapper{NewWrapper(r, rewrap), force}
}

// sameSettings compares everything but the Store.
func sameSettings(a, b Options) bool {
	return a.Level == b.Level && a.Filtered == b.Filtered && a.Normalized == b.Normalized &&
		a.GroupFiles == b.GroupFiles
}

// MinimalMetadata restricts the handler to the metadata needed for plane
// addressing.
func MinimalMetadata(r Reader) Reader {
	return newOptionsWrapper(r, MinimalMetadata, func(o *Options) {
		o.Level = meta.LevelMinimum
	})
}

// FilteredMetadata cleans control characters out of metadata strings.
func FilteredMetadata(r Reader) Reader {
	return newOptionsWrapper(r, FilteredMetadata, func(o *Options) {
		o.Filtered = true
	})
}

// WithStore sends metadata to s.  Duplicates do not write to s.
func WithStore(s meta.Store) Decorator {
	return func(r Reader) Reader {
		o := r.Options()
		if o.Store == nil && r.CurrentFile() == "" {
			o.Store = s
			if err := r.SetOptions(o); err != nil {
				bio.Warningf("could not set metadata store on %s reader: %v\n", r.Format(), err)
			}
		}
		return NewWrapper(r, nil)
	}
}
