/*
	Package format is the reader composition layer.  It defines the Reader contract
	every format handler implements, a Base that handlers embed for the shared
	bookkeeping, a priority-ordered Registry that runs the detection cascade, and
	decorators that layer behavior such as byte order normalization or plane
	caching over any handler.

	A typical open:

		reg := formats.Default()
		r, err := reg.Open(path, format.DefaultOptions(), format.ChannelSeparator)
		if err != nil {
			...
		}
		defer r.Close(false)
		for s := 0; s < r.SeriesCount(); s++ {
			r.SetSeries(s)
			d := r.Descriptor()
			plane, err := r.ReadPlane(0, 0, 0, d.SizeX, d.SizeY)
			...
		}

	A Reader is not safe for concurrent use.  Use Duplicate, or ReadPlanes, to read
	one dataset from several goroutines.
*/
package format
