/*
Package bioio reads scientific image files, mostly from light microscopy, into a
common model of series, planes and metadata.

Documentation can be found nicely formatted at http://godoc.org/github.com/janelia-flyem/bioio

Model

A dataset holds one or more series.  Each series is a 5D stack described by a
bio.SeriesDescriptor: width and height of a plane, the number of Z sections,
channels and time points, the pixel type and the dimension order in which planes
are stored.  Planes are addressed by index and read as byte regions:

	r, err := formats.Default().Open("stack.tif", format.DefaultOptions())
	if err != nil {
		...
	}
	defer r.Close(false)
	no, _ := format.PlaneIndex(r, z, c, t)
	buf, err := r.ReadPlane(no, x, y, w, h)

Packages

	bio            shared types: descriptors, pixel types, errors and logging
	stream         random access byte cursors over files, memory and cloud buckets
	ifd            TIFF image file directories and RIFF style chunks
	codec          decompression, palettes and frame-to-frame state of video codecs
	meta           sinks for normalized metadata
	format         the Reader contract, detection, decorators and file grouping
	formats/...    handlers for TIFF, AVI, V3D raw, InCell 3000 and MIAS
	config         TOML configuration of logging, reader options and caches
	cmd/bioinfo    command-line inspector

Handlers are composed with decorators that normalize byte order, split RGB
channels, restrict metadata or cache decoded planes.  Multi-file formats
discover their companion files through a cached directory listing and degrade
missing pixel files to blank planes unless told to fail.
*/
package bioio

import "github.com/blang/semver"

// Version of the bioio library.
const Version = "0.4.0"

// SemVersion returns the parsed library version.
func SemVersion() semver.Version {
	return semver.MustParse(Version)
}
