package mias

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/janelia-flyem/bioio/bio"
	"github.com/janelia-flyem/bioio/format"
)

// An experiment is laid out as
//
//	<experiment>/
//	  Batchresults/                  analysis results for the experiment
//	  <plate>/                       one directory per plate
//	    results/                     analysis results for the plate
//	    Well<nnnn>/                  one directory per well
//	      mode<c>_z<nnn>_t<nnn>_im<row>_<col>.tif
//
// Each TIFF holds one grayscale plane of channel c ("mode"), section z and
// time point t.  The optional im block places the image in a mosaic of tiles.
const (
	batchResults = "Batchresults"
	plateResults = "results"
	wellPrefix   = "Well"
	resultPrefix = "NEO_Results"
)

var tileName = regexp.MustCompile(`(?i)^mode(\d+)_z(\d+)_t(\d+)(?:_im(\d+)_(\d+))?\.tiff?$`)

// Axes of a parsed file name.
const (
	axisC = iota
	axisZ
	axisT
	axisRow
	axisCol
	numAxes
)

type position [numAxes]int

// parseTileName returns the position encoded in a file name and whether the
// name has an im block.
func parseTileName(name string) (p position, tiled, ok bool) {
	m := tileName.FindStringSubmatch(name)
	if m == nil {
		return p, false, false
	}
	for i := range p {
		if m[i+1] == "" {
			p[i] = 1
			continue
		}
		v, err := strconv.Atoi(m[i+1])
		if err != nil {
			return p, false, false
		}
		p[i] = v
	}
	return p, m[axisRow+1] != "", true
}

// well is one series: the TIFF files of one well directory.
type well struct {
	plate  int
	number int // zero-based, from the directory name
	dir    string
	tiled  bool

	first position
	count position

	// files is indexed by (plane*tileRows + row)*tileCols + col; missing
	// files are empty.
	files []string
}

func (w *well) tiles() int {
	return w.count[axisRow] * w.count[axisCol]
}

// planes returns the number of planes, one per channel, section and time point.
func (w *well) planes() int {
	return w.count[axisC] * w.count[axisZ] * w.count[axisT]
}

// index returns the position of p in files.  Planes are ordered with T
// varying fastest, then Z, then C, the order of sorted file names.
func (w *well) index(p position) int {
	var rel position
	for i := range p {
		rel[i] = p[i] - w.first[i]
	}
	no := (rel[axisC]*w.count[axisZ]+rel[axisZ])*w.count[axisT] + rel[axisT]
	return (no*w.count[axisRow]+rel[axisRow])*w.count[axisCol] + rel[axisCol]
}

// fileName returns the name a file at the zero-based c, z, t and tile position
// would have.
func (w *well) fileName(c, z, t, row, col int) string {
	name := fmt.Sprintf("mode%d_z%03d_t%03d", c+w.first[axisC], z+w.first[axisZ], t+w.first[axisT])
	if w.tiled {
		name += fmt.Sprintf("_im%d_%d", row+w.first[axisRow], col+w.first[axisCol])
	}
	return name + ".tif"
}

func (w *well) name() string {
	return fmt.Sprintf("%s%04d", wellPrefix, w.number+1)
}

// scanWell reads the file names of a well directory.
func scanWell(listing *format.Listing, plate int, dir string) (*well, error) {
	number, err := strconv.Atoi(strings.TrimPrefix(filepath.Base(dir), wellPrefix))
	if err != nil || number < 1 {
		return nil, fmt.Errorf("bad well directory name %q", filepath.Base(dir))
	}
	names, err := listing.List(dir)
	if err != nil {
		return nil, err
	}
	w := &well{plate: plate, number: number - 1, dir: dir}
	var found []position
	var paths []string
	for _, name := range names {
		p, tiled, ok := parseTileName(name)
		if !ok {
			if format.HasSuffix(name, "tif", "tiff") {
				bio.Debugf("Ignoring %s in %s\n", name, dir)
			}
			continue
		}
		w.tiled = w.tiled || tiled
		found = append(found, p)
		paths = append(paths, filepath.Join(dir, name))
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("no image files in %s", dir)
	}
	last := found[0]
	w.first = found[0]
	for _, p := range found[1:] {
		for i := range p {
			if p[i] < w.first[i] {
				w.first[i] = p[i]
			}
			if p[i] > last[i] {
				last[i] = p[i]
			}
		}
	}
	for i := range w.count {
		w.count[i] = last[i] - w.first[i] + 1
	}
	w.files = make([]string, w.planes()*w.tiles())
	for i, p := range found {
		w.files[w.index(p)] = paths[i]
	}
	return w, nil
}

// experiment is everything found by walking up from one TIFF file.
type experiment struct {
	dir      string
	plates   []string
	wells    []*well
	results  string
	analysis []string
}

func (e *experiment) name() string {
	return filepath.Base(e.dir)
}

// wellDirectory returns the well and experiment directories of a file that is
// laid out as part of an experiment.
func wellDirectory(name string) (wellDir, experimentDir string, ok bool) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return "", "", false
	}
	wellDir = filepath.Dir(abs)
	plateDir := filepath.Dir(wellDir)
	experimentDir = filepath.Dir(plateDir)
	if !strings.HasPrefix(filepath.Base(wellDir), wellPrefix) || plateDir == wellDir || experimentDir == plateDir {
		return "", "", false
	}
	return wellDir, experimentDir, true
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

// scanExperiment finds the plates, wells and analysis files of an experiment.
func scanExperiment(listing *format.Listing, dir string) (*experiment, error) {
	e := &experiment{dir: dir}
	names, err := listing.List(dir)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		path := filepath.Join(dir, name)
		switch {
		case name == batchResults:
			results, err := listing.List(path)
			if err != nil {
				return nil, err
			}
			for _, r := range results {
				e.analysis = append(e.analysis, filepath.Join(path, r))
				if strings.HasPrefix(r, resultPrefix) {
					e.results = filepath.Join(path, r)
				}
			}
		case isDir(path):
			e.plates = append(e.plates, name)
		}
	}

	for plate, name := range e.plates {
		plateDir := filepath.Join(dir, name)
		entries, err := listing.List(plateDir)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			path := filepath.Join(plateDir, entry)
			switch {
			case strings.HasPrefix(entry, wellPrefix) && isDir(path):
				w, err := scanWell(listing, plate, path)
				if err != nil {
					return nil, err
				}
				e.wells = append(e.wells, w)
			case entry == plateResults:
				results, err := listing.List(path)
				if err != nil {
					return nil, err
				}
				for _, r := range results {
					// program state files
					if strings.HasSuffix(r, ".sav") || strings.HasSuffix(r, ".dsv") {
						continue
					}
					e.analysis = append(e.analysis, filepath.Join(path, r))
				}
			}
		}
	}
	if len(e.wells) == 0 {
		return nil, fmt.Errorf("no wells in experiment %s", dir)
	}
	return e, nil
}
