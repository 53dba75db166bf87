package format

import (
	"fmt"
	"sort"

	"github.com/janelia-flyem/bioio/bio"
	"github.com/janelia-flyem/bioio/codec"
	"github.com/janelia-flyem/bioio/meta"
	"github.com/janelia-flyem/bioio/stream"
)

// GroupOption tells whether a format's dataset spans companion files.
type GroupOption uint8

const (
	// CanGroup formats may read companion files but work without them.
	CanGroup GroupOption = iota

	// MustGroup formats need their companion files.
	MustGroup

	// CannotGroup formats always read a single file.
	CannotGroup
)

func (g GroupOption) String() string {
	switch g {
	case CanGroup:
		return "can group"
	case MustGroup:
		return "must group"
	case CannotGroup:
		return "cannot group"
	}
	return fmt.Sprintf("unknown group option %d", g)
}

// Options is the configuration a handler keeps across Close(true) and Duplicate.
// Set them before Open.
type Options struct {
	// Level selects how much metadata is computed.
	Level meta.Level

	// Filtered cleans strings before they reach the metadata tables and Store.
	Filtered bool

	// Normalized requests multi-byte samples in little-endian order.
	Normalized bool

	// GroupFiles allows reading companion files for CanGroup formats.
	GroupFiles bool

	// Store receives normalized metadata.  Nil discards it.
	Store meta.Store
}

// DefaultOptions returns full metadata with file grouping allowed.
func DefaultOptions() Options {
	return Options{Level: meta.LevelAll, GroupFiles: true}
}

// Metadata holds the original key/value pairs found in a file.
type Metadata map[string]interface{}

// Keys returns the keys in sorted order.
func (m Metadata) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Reader is the contract every format handler fulfills.  Size and pixel queries
// apply to the series chosen with SetSeries.
type Reader interface {
	// Format returns a short name such as "TIFF".
	Format() string

	// Suffixes returns the lowercase file suffixes, without dots.
	Suffixes() []string

	// IsThisName checks the name.  When allowOpen is true the handler may
	// look at the file system or open the file.
	IsThisName(name string, allowOpen bool) bool

	// IsThisBlock checks the leading bytes of a file.
	IsThisBlock(block []byte) bool

	// IsThisStream may parse the start of a stream.  The cursor position is
	// unchanged on return.
	IsThisStream(c *stream.Cursor) bool

	// Open initializes the handler for id.  Opening the id already open is a no-op.
	Open(id string) error

	// Close releases open files.  With fileOnly it keeps the dataset state and
	// options so reading can resume; otherwise the handler returns to its
	// unopened state.  Closing twice is not an error.
	Close(fileOnly bool) error

	SeriesCount() int
	SetSeries(series int) error
	Series() int
	ImageCount() int
	Descriptor() bio.SeriesDescriptor

	// ReadPlane returns the w x h region at (x, y) of plane no.  Out of bounds
	// requests return a bio.RangeError.
	ReadPlane(no, x, y, w, h int) ([]byte, error)

	// LookupTable returns the palette of an indexed series, or nil.
	LookupTable() *codec.Palette

	// UsedFiles lists every file of the dataset; noPixels drops pixel files.
	UsedFiles(noPixels bool) []string

	// SeriesUsedFiles lists the files of the current series.
	SeriesUsedFiles(noPixels bool) []string

	FileGroupOption(id string) GroupOption

	// CurrentFile returns the id passed to Open, or "" when closed.
	CurrentFile() string

	GlobalMetadata() Metadata
	SeriesMetadata() Metadata

	Options() Options
	SetOptions(o Options) error

	// Duplicate returns an independent handler over the same dataset with the
	// same options and series.
	Duplicate() (Reader, error)
}

// PlaneIndex maps (z, c, t) of the current series of r to a plane index.
func PlaneIndex(r Reader, z, c, t int) (int, error) {
	return r.Descriptor().PlaneIndex(z, c, t)
}

// Coordinates maps a plane index of the current series of r to (z, c, t).
func Coordinates(r Reader, no int) (z, c, t int, err error) {
	return r.Descriptor().Coordinates(no)
}

// ReadFullPlane returns plane no of the current series.
func ReadFullPlane(r Reader, no int) ([]byte, error) {
	d := r.Descriptor()
	return r.ReadPlane(no, 0, 0, d.SizeX, d.SizeY)
}

// Reopen opens fresh over the dataset r has open, with r's options and series.
// Handlers use it to implement Duplicate.  The duplicate does not write to the
// metadata Store again.
func Reopen(r Reader, fresh Reader) (Reader, error) {
	id := r.CurrentFile()
	if id == "" {
		return nil, bio.ErrNotInitialized
	}
	o := r.Options()
	o.Store = nil
	if err := fresh.SetOptions(o); err != nil {
		return nil, err
	}
	if err := fresh.Open(id); err != nil {
		return nil, err
	}
	if err := fresh.SetSeries(r.Series()); err != nil {
		fresh.Close(false)
		return nil, err
	}
	return fresh, nil
}
