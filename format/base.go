package format

import (
	"context"
	"encoding/binary"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/janelia-flyem/bioio/bio"
	"github.com/janelia-flyem/bioio/codec"
	"github.com/janelia-flyem/bioio/meta"
	"github.com/janelia-flyem/bioio/stream"

	"github.com/twinj/uuid"
)

// Base holds the state shared by all handlers: the open id, the series
// descriptors, the series cursor, original metadata and options.  Handlers embed
// it and implement detection, Open, ReadPlane and Duplicate themselves.
//
// Open implementations follow the same pattern:
//
//	func (r *Reader) Open(id string) error {
//		if r.Begin(id) {
//			return nil
//		}
//		... parse, calling AddSeries for each series ...
//		return r.Initialized(id)
//	}
type Base struct {
	format           string
	suffixes         []string
	suffixSufficient bool
	group            GroupOption
	instance         string

	id      string
	file    string
	cursor  *stream.Cursor
	order   binary.ByteOrder
	series  []bio.SeriesDescriptor
	current int

	global    Metadata
	perSeries []Metadata
	options   Options
}

// NewBase returns a Base for the named format.  A matching suffix is sufficient
// for detection unless SetSuffixSufficient(false) is called.
func NewBase(format string, suffixes ...string) Base {
	for i, s := range suffixes {
		suffixes[i] = strings.ToLower(strings.TrimPrefix(s, "."))
	}
	return Base{
		format:           format,
		suffixes:         suffixes,
		suffixSufficient: true,
		group:            CannotGroup,
		instance:         fmt.Sprintf("%x", uuid.NewV4().Bytes()[:4]),
		options:          DefaultOptions(),
	}
}

func (b *Base) Format() string     { return b.format }
func (b *Base) Suffixes() []string { return b.suffixes }

// Instance returns a short random id used to tell handlers apart in logs.
func (b *Base) Instance() string { return b.instance }

func (b *Base) SetSuffixSufficient(sufficient bool) { b.suffixSufficient = sufficient }
func (b *Base) SetGroupOption(g GroupOption)        { b.group = g }

// HasSuffix reports whether name ends in one of the handler's suffixes.
func (b *Base) HasSuffix(name string) bool {
	return HasSuffix(name, b.suffixes...)
}

// HasSuffix reports whether name ends in "." plus one of suffixes, ignoring case.
func HasSuffix(name string, suffixes ...string) bool {
	lower := strings.ToLower(name)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, "."+s) {
			return true
		}
	}
	return false
}

// IsThisName matches on suffix when that is sufficient for the format.
func (b *Base) IsThisName(name string, allowOpen bool) bool {
	return b.suffixSufficient && b.HasSuffix(name)
}

func (b *Base) IsThisBlock(block []byte) bool      { return false }
func (b *Base) IsThisStream(c *stream.Cursor) bool { return false }

// Begin starts initialization of id.  It returns true if id is already open and
// there is nothing to do.  Otherwise any previous dataset is closed.  Handlers
// reset their own state after Begin returns false.
func (b *Base) Begin(id string) bool {
	if b.id != "" && b.id == id {
		return true
	}
	b.Close(false)
	bio.Debugf("%s [%s] initializing %s\n", b.format, b.instance, id)
	return false
}

// AddSeries appends a series descriptor, applying the usual normalization.
func (b *Base) AddSeries(d bio.SeriesDescriptor) int {
	d.Normalize()
	b.series = append(b.series, d)
	b.perSeries = append(b.perSeries, Metadata{})
	return len(b.series) - 1
}

// SetDescriptor replaces the descriptor of series i during initialization.
func (b *Base) SetDescriptor(i int, d bio.SeriesDescriptor) {
	b.series[i] = d
}

// Initialized validates the series, records id as open and pushes pixel
// metadata to the Store.
func (b *Base) Initialized(id string) error {
	if len(b.series) == 0 {
		b.Close(false)
		return bio.NewDecodeError(id, 0, "no series found")
	}
	for i, d := range b.series {
		if err := d.Validate(); err != nil {
			b.Close(false)
			return bio.WrapDecodeError(id, 0, fmt.Errorf("series %d: %v", i, err))
		}
	}
	b.id = id
	b.current = 0
	store := b.Store()
	for i, d := range b.series {
		store.SetPixels(i, d)
	}
	bio.Debugf("%s [%s] opened %s with %d series\n", b.format, b.instance, id, len(b.series))
	return nil
}

// Close releases the open file.  Unless fileOnly, the dataset state is dropped
// as well; options are always kept.
func (b *Base) Close(fileOnly bool) error {
	var err error
	if b.cursor != nil {
		b.order = b.cursor.Order()
		err = b.cursor.Close()
		b.cursor = nil
	}
	if !fileOnly {
		b.id = ""
		b.file = ""
		b.order = nil
		b.series = nil
		b.current = 0
		b.global = nil
		b.perSeries = nil
	}
	return err
}

// OpenCursor opens name as the handler's current file, closing any other.
func (b *Base) OpenCursor(name string) (*stream.Cursor, error) {
	if b.cursor != nil {
		b.cursor.Close()
		b.cursor = nil
	}
	src, err := stream.Open(context.Background(), name)
	if err != nil {
		return nil, err
	}
	b.file = name
	b.order = nil
	b.cursor = stream.NewCursor(src)
	return b.cursor, nil
}

// Cursor returns the cursor over the current file, reopening it after a
// Close(true) with the byte order it had.
func (b *Base) Cursor() (*stream.Cursor, error) {
	if b.cursor != nil {
		return b.cursor, nil
	}
	if b.file == "" {
		return nil, bio.ErrNotInitialized
	}
	order := b.order
	c, err := b.OpenCursor(b.file)
	if err != nil {
		return nil, err
	}
	if order != nil {
		c.SetOrder(order)
	}
	return c, nil
}

func (b *Base) SeriesCount() int { return len(b.series) }
func (b *Base) Series() int      { return b.current }

func (b *Base) SetSeries(series int) error {
	if len(b.series) == 0 {
		return bio.ErrNotInitialized
	}
	if series < 0 || series >= len(b.series) {
		return bio.NewRangeError("series %d not in [0,%d)", series, len(b.series))
	}
	b.current = series
	return nil
}

func (b *Base) Descriptor() bio.SeriesDescriptor {
	if b.current >= len(b.series) {
		return bio.SeriesDescriptor{}
	}
	return b.series[b.current]
}

func (b *Base) ImageCount() int { return b.Descriptor().ImageCount }

// CheckRegion validates a ReadPlane request against the current series.
func (b *Base) CheckRegion(no, x, y, w, h int) error {
	if b.id == "" {
		return bio.ErrNotInitialized
	}
	return bio.CheckRegion(b.Descriptor(), no, x, y, w, h)
}

func (b *Base) LookupTable() *codec.Palette { return nil }

// UsedFiles returns the open id unless noPixels.
func (b *Base) UsedFiles(noPixels bool) []string {
	if b.id == "" || noPixels {
		return nil
	}
	return []string{b.id}
}

func (b *Base) SeriesUsedFiles(noPixels bool) []string { return b.UsedFiles(noPixels) }

func (b *Base) FileGroupOption(id string) GroupOption { return b.group }

func (b *Base) CurrentFile() string { return b.id }

// Dir returns the directory of the id being opened.
func (b *Base) Dir(id string) string {
	return filepath.Dir(id)
}

func (b *Base) Options() Options { return b.options }

// SetOptions replaces the options.  They cannot change while a dataset is open.
func (b *Base) SetOptions(o Options) error {
	if b.id != "" {
		return fmt.Errorf("Cannot change options of %s reader while %s is open", b.format, b.id)
	}
	b.options = o
	return nil
}

// Level returns the requested metadata level.
func (b *Base) Level() meta.Level { return b.options.Level }

// Store returns the metadata sink, filtered when requested.
func (b *Base) Store() meta.Store {
	var s meta.Store = meta.Dummy{}
	if b.options.Store != nil {
		s = b.options.Store
	}
	if b.options.Filtered {
		return meta.NewFilter(s, true)
	}
	return s
}

func (b *Base) GlobalMetadata() Metadata { return b.global }

func (b *Base) SeriesMetadata() Metadata {
	if b.current >= len(b.perSeries) {
		return nil
	}
	return b.perSeries[b.current]
}

func (b *Base) metaValue(v interface{}) (interface{}, bool) {
	if b.options.Level == meta.LevelMinimum || v == nil {
		return nil, false
	}
	if s, ok := v.(string); ok {
		if b.options.Filtered {
			s = bio.Sanitize(s)
		}
		if s == "" {
			return nil, false
		}
		v = s
	}
	return v, true
}

// AddGlobal records an original metadata pair.  Nothing is recorded at
// LevelMinimum.
func (b *Base) AddGlobal(key string, v interface{}) {
	if v, ok := b.metaValue(v); ok {
		if b.global == nil {
			b.global = Metadata{}
		}
		b.global[key] = v
	}
}

// AddSeriesMeta records an original metadata pair for a series added with
// AddSeries.
func (b *Base) AddSeriesMeta(series int, key string, v interface{}) {
	if series < 0 || series >= len(b.perSeries) {
		return
	}
	if v, ok := b.metaValue(v); ok {
		b.perSeries[series][key] = v
	}
}
