/*
	Package mias reads MIAS high content screening experiments.  One TIFF file of
	a well is opened and the whole experiment is found from the directory
	hierarchy: every well of every plate becomes a series, and the TIFF files of a
	well, possibly a mosaic of tiles, are its planes.  Pixels are read with the
	tiff package.

	Missing files inside a well degrade to blank planes unless the reader, or
	DefaultGroupPolicy, is set to FailOnMissing.
*/
package mias

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/janelia-flyem/bioio/bio"
	"github.com/janelia-flyem/bioio/codec"
	"github.com/janelia-flyem/bioio/format"
	"github.com/janelia-flyem/bioio/formats/tiff"
	"github.com/janelia-flyem/bioio/ifd"
	"github.com/janelia-flyem/bioio/meta"
	"github.com/janelia-flyem/bioio/stream"

	"github.com/blang/semver"
)

const (
	Version = "0.2.0"
	Name    = "MIAS"

	// softwarePrefix starts the Software tag of every MIAS TIFF.
	softwarePrefix = "eaZYX"

	// DefaultWellColumns is assumed when no analysis results name the plate
	// layout.
	DefaultWellColumns = 12
)

// DefaultGroupPolicy is the missing file policy of new readers.
var DefaultGroupPolicy = format.DegradeToBlank

// Handler returns the registry entry for this reader.
func Handler() format.Handler {
	return format.Handler{
		Name:    Name,
		Version: semver.MustParse(Version),
		New:     func() format.Reader { return New() },
	}
}

// Reader is a MIAS format handler.
type Reader struct {
	format.Base

	listing *format.Listing
	policy  format.GroupPolicy

	exp         *experiment
	tileWidth   int
	tileHeight  int
	wellColumns int
	palette     *codec.Palette

	// delegates holds the open tile readers of the current series.
	delegates map[string]*tiff.Reader
}

func New() *Reader {
	r := &Reader{Base: format.NewBase(Name, "tif", "tiff"), policy: DefaultGroupPolicy}
	r.SetSuffixSufficient(false)
	r.SetGroupOption(format.MustGroup)
	return r
}

// SetListing sets the directory listing cache; the shared one is used by default.
func (r *Reader) SetListing(l *format.Listing) {
	r.listing = l
}

func (r *Reader) Listing() *format.Listing {
	if r.listing == nil {
		return format.SharedListing()
	}
	return r.listing
}

// SetGroupPolicy sets what happens when a file of a well is missing.
func (r *Reader) SetGroupPolicy(p format.GroupPolicy) {
	r.policy = p
}

func (r *Reader) GroupPolicy() format.GroupPolicy { return r.policy }

// IsThisStream accepts TIFF files that sit in a well directory and carry the
// MIAS software signature.
func (r *Reader) IsThisStream(c *stream.Cursor) bool {
	if !r.HasSuffix(c.Name()) {
		return false
	}
	if _, _, ok := wellDirectory(c.Name()); !ok {
		return false
	}
	defer c.Mark()()
	hdr, err := ifd.ReadHeader(c)
	if err != nil {
		return false
	}
	dir, err := ifd.ReadDirectory(c, hdr.FirstOffset, hdr.BigTIFF)
	if err != nil {
		return false
	}
	return strings.HasPrefix(dir.Text(tiff.TagSoftware), softwarePrefix)
}

func (r *Reader) reset() {
	r.closeDelegates(false)
	r.exp = nil
	r.tileWidth, r.tileHeight = 0, 0
	r.wellColumns = 0
	r.palette = nil
}

func (r *Reader) Open(id string) error {
	if r.Begin(id) {
		return nil
	}
	r.reset()
	if err := r.initFile(id); err != nil {
		r.Close(false)
		return err
	}
	return r.Initialized(id)
}

func (r *Reader) Close(fileOnly bool) error {
	if fileOnly {
		r.closeDelegates(true)
	} else {
		r.reset()
	}
	return r.Base.Close(fileOnly)
}

func (r *Reader) Duplicate() (format.Reader, error) {
	fresh := New()
	fresh.listing = r.listing
	fresh.policy = r.policy
	return format.Reopen(r, fresh)
}

// SetSeries switches wells, closing the files of the previous one.
func (r *Reader) SetSeries(series int) error {
	prev := r.Series()
	if err := r.Base.SetSeries(series); err != nil {
		return err
	}
	if series != prev {
		r.closeDelegates(false)
	}
	return nil
}

func (r *Reader) closeDelegates(fileOnly bool) {
	for path, d := range r.delegates {
		if err := d.Close(fileOnly); err != nil {
			bio.Debugf("Closing %s: %v\n", path, err)
		}
	}
	if !fileOnly {
		r.delegates = nil
	}
}

func (r *Reader) LookupTable() *codec.Palette {
	return r.palette
}

func delegateOptions() format.Options {
	o := format.DefaultOptions()
	o.Level = meta.LevelMinimum
	o.GroupFiles = false
	return o
}

func openTile(path string) (*tiff.Reader, error) {
	t := tiff.New()
	if err := t.SetOptions(delegateOptions()); err != nil {
		return nil, err
	}
	if err := t.Open(path); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *Reader) initFile(id string) error {
	_, expDir, ok := wellDirectory(id)
	if !ok {
		return &bio.SignatureError{Format: Name, Name: id}
	}
	exp, err := scanExperiment(r.Listing(), expDir)
	if err != nil {
		return bio.WrapDecodeError(id, -1, err)
	}
	r.exp = exp

	// all wells are assumed to share the pixel layout of the first file
	var firstFile string
	for _, f := range exp.wells[0].files {
		if f != "" {
			firstFile = f
			break
		}
	}
	first, err := openTile(firstFile)
	if err != nil {
		return err
	}
	defer first.Close(false)
	fd := first.Descriptor()
	r.tileWidth, r.tileHeight = fd.SizeX, fd.SizeY
	r.palette = first.LookupTable()

	r.wellColumns = DefaultWellColumns
	if r.Level() != meta.LevelMinimum && exp.results != "" {
		if err := r.parseResults(exp.results); err != nil {
			return err
		}
	}

	for _, w := range exp.wells {
		d := bio.SeriesDescriptor{
			SizeX:          r.tileWidth * w.count[axisCol],
			SizeY:          r.tileHeight * w.count[axisRow],
			SizeZ:          w.count[axisZ],
			SizeC:          w.count[axisC] * fd.RGBChannelCount(),
			SizeT:          w.count[axisT],
			ImageCount:     w.planes(),
			PixelType:      fd.PixelType,
			BitsPerPixel:   fd.BitsPerPixel,
			DimensionOrder: bio.OrderXYTZC,
			LittleEndian:   fd.LittleEndian,
			RGB:            fd.RGB,
			Interleaved:    fd.Interleaved,
			Indexed:        fd.Indexed,
			FalseColor:     fd.FalseColor,
		}
		r.AddSeries(d)
	}
	r.populate()
	return nil
}

// parseResults reads the experiment's analysis summary: key/value lines up to
// the second line of stars, then a table with one row per well.
func (r *Reader) parseResults(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var columns []string
	stars := 0
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if stars < 2 {
			if strings.HasPrefix(line, "******") && strings.HasSuffix(line, "******") {
				stars++
				continue
			}
			kv := strings.Split(line, "\t")
			if len(kv) >= 2 {
				r.AddGlobal(strings.TrimSuffix(kv[0], ":"), kv[1])
			}
			continue
		}
		fields := strings.Split(line, "\t")
		if columns == nil {
			columns = fields
			continue
		}
		if len(fields) < 3 {
			continue
		}
		for col := 3; col < len(columns) && col < len(fields); col++ {
			r.AddGlobal(fmt.Sprintf("Plate %s, Well %s %s", fields[0], fields[2], columns[col]), fields[col])
			if columns[col] != "AreaCode" {
				continue
			}
			digits := strings.TrimLeft(fields[col], "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
			if n, err := strconv.Atoi(digits); err == nil && n > r.wellColumns {
				r.wellColumns = n
			}
		}
	}
	return nil
}

// wellPosition returns the zero-based row and column of a well.
func (r *Reader) wellPosition(w *well) (row, col int) {
	return w.number / r.wellColumns, w.number % r.wellColumns
}

func (r *Reader) populate() {
	r.AddGlobal("Experiment", r.exp.name())
	r.AddGlobal("Plates", len(r.exp.plates))
	r.AddGlobal("Wells", len(r.exp.wells))
	r.AddGlobal("Tile rows", r.exp.wells[0].count[axisRow])
	r.AddGlobal("Tile columns", r.exp.wells[0].count[axisCol])

	store := r.Store()
	for s, w := range r.exp.wells {
		row, col := r.wellPosition(w)
		store.SetImageName(s, fmt.Sprintf("Plate #%d, Well %c%d", w.plate, 'A'+rune(row), col+1))
		r.AddSeriesMeta(s, "Plate", r.exp.plates[w.plate])
		r.AddSeriesMeta(s, "Well", w.name())
		if r.Level() == meta.LevelMinimum {
			continue
		}
		store.SetWell(w.plate, w.number, row, col)
		store.SetWellSample(w.plate, w.number, 0, s)
	}
	if r.Level() == meta.LevelMinimum {
		return
	}
	r.channelColors()
}

// channelColors records the display color of each channel from the overlay
// images in the plate results, named Well<nnnn>_mode<c>_..._AllModesOverlay.tif.
func (r *Reader) channelColors() {
	for _, file := range r.exp.analysis {
		name := filepath.Base(file)
		if !strings.HasPrefix(name, wellPrefix) || !strings.HasSuffix(name, "AllModesOverlay.tif") {
			continue
		}
		i := strings.Index(name, "mode")
		if i < 0 {
			continue
		}
		end := strings.IndexByte(name[i:], '_')
		if end < 0 {
			continue
		}
		channel, err := strconv.Atoi(name[i+4 : i+end])
		if err != nil {
			continue
		}
		color, err := overlayColor(file)
		if err != nil {
			bio.Debugf("No channel color in %s: %v\n", file, err)
			continue
		}
		for s := range r.exp.wells {
			r.AddSeriesMeta(s, fmt.Sprintf("Channel %d color", channel), color)
		}
	}
}

// overlayColor returns "R", "G" or "B" for the dominant component of the first
// color map entry, or "gray" when there is no single one.
func overlayColor(path string) (string, error) {
	src, err := stream.OpenFile(path)
	if err != nil {
		return "", err
	}
	c := stream.NewCursor(src)
	defer c.Close()
	hdr, err := ifd.ReadHeader(c)
	if err != nil {
		return "", err
	}
	dir, err := ifd.ReadDirectory(c, hdr.FirstOffset, hdr.BigTIFF)
	if err != nil {
		return "", err
	}
	cm, err := dir.Uints(tiff.TagColorMap)
	if err != nil {
		return "", err
	}
	if len(cm) < 3 {
		return "", fmt.Errorf("color map of %d values", len(cm))
	}
	n := len(cm) / 3
	best, peak := -1, -1
	for ch := 0; ch < 3; ch++ {
		v := int(cm[ch*n] >> 8 & 0xff)
		switch {
		case v > peak:
			best, peak = ch, v
		case v == peak:
			return "gray", nil
		}
	}
	return []string{"R", "G", "B"}[best], nil
}

func (r *Reader) current() *well {
	return r.exp.wells[r.Series()]
}

// UsedFiles returns every TIFF of the experiment followed by the analysis files.
func (r *Reader) UsedFiles(noPixels bool) []string {
	if r.exp == nil {
		return nil
	}
	var files []string
	if !noPixels {
		for _, w := range r.exp.wells {
			files = appendFiles(files, w.files)
		}
	}
	return append(files, r.exp.analysis...)
}

// SeriesUsedFiles returns the TIFFs of the current well and the analysis files.
func (r *Reader) SeriesUsedFiles(noPixels bool) []string {
	if r.exp == nil {
		return nil
	}
	var files []string
	if !noPixels {
		files = appendFiles(files, r.current().files)
	}
	return append(files, r.exp.analysis...)
}

func appendFiles(dst, files []string) []string {
	for _, f := range files {
		if f != "" {
			dst = append(dst, f)
		}
	}
	return dst
}

func (r *Reader) ReadPlane(no, x, y, w, h int) ([]byte, error) {
	if err := r.CheckRegion(no, x, y, w, h); err != nil {
		return nil, err
	}
	d := r.Descriptor()
	wl := r.current()
	out := make([]byte, d.PlaneBytes(w, h))
	for row := 0; row < wl.count[axisRow]; row++ {
		ty := row * r.tileHeight
		y0, y1 := max(y, ty), min(y+h, ty+r.tileHeight)
		if y0 >= y1 {
			continue
		}
		for col := 0; col < wl.count[axisCol]; col++ {
			tx := col * r.tileWidth
			x0, x1 := max(x, tx), min(x+w, tx+r.tileWidth)
			if x0 >= x1 {
				continue
			}
			buf, err := r.readTile(wl, no, row, col, x0-tx, y0-ty, x1-x0, y1-y0)
			if err != nil {
				return nil, err
			}
			paste(out, buf, d, w, h, x0-x, y0-y, x1-x0, y1-y0)
		}
	}
	return out, nil
}

// paste copies a tw x th region into a w x h region at (ox, oy).
func paste(dst, src []byte, d bio.SeriesDescriptor, w, h, ox, oy, tw, th int) {
	sample := d.PixelType.Bytes()
	planes, pixel := 1, sample*d.RGBChannelCount()
	if !d.Interleaved {
		planes, pixel = d.RGBChannelCount(), sample
	}
	for p := 0; p < planes; p++ {
		dstPlane := dst[p*w*h*pixel:]
		srcPlane := src[p*tw*th*pixel:]
		for row := 0; row < th; row++ {
			copy(dstPlane[((oy+row)*w+ox)*pixel:], srcPlane[row*tw*pixel:(row+1)*tw*pixel])
		}
	}
}

func (r *Reader) readTile(wl *well, no, row, col, x, y, w, h int) ([]byte, error) {
	d := r.Descriptor()
	z, c, t, err := d.Coordinates(no)
	if err != nil {
		return nil, err
	}
	index := (no*wl.count[axisRow]+row)*wl.count[axisCol] + col
	path := wl.files[index]
	if path == "" {
		name := wl.fileName(c, z, t, row, col)
		path, err = r.Listing().FindCompanion(wl.dir, name, "tiff", "TIF")
		if err != nil {
			if !bio.IsMissingFile(err) {
				return nil, err
			}
			return r.policy.Missing(filepath.Join(wl.dir, name), r.CurrentFile(), d, w, h)
		}
	}
	tile, found := r.delegates[path]
	if !found {
		tile, err = openTile(path)
		if err != nil {
			if bio.IsMissingFile(err) {
				// removed since the well was scanned
				r.Listing().Forget(wl.dir)
				wl.files[index] = ""
				return r.policy.Missing(path, r.CurrentFile(), d, w, h)
			}
			return nil, err
		}
		if td := tile.Descriptor(); td.SizeX != r.tileWidth || td.SizeY != r.tileHeight || td.PixelType != d.PixelType {
			tile.Close(false)
			return nil, bio.NewDecodeError(path, -1, "tile is %dx%d %s, expected %dx%d %s",
				td.SizeX, td.SizeY, td.PixelType, r.tileWidth, r.tileHeight, d.PixelType)
		}
		if r.delegates == nil {
			r.delegates = make(map[string]*tiff.Reader)
		}
		r.delegates[path] = tile
	}
	return tile.ReadPlane(0, x, y, w, h)
}
