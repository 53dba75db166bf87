package ifd

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/janelia-flyem/bioio/bio"
	"github.com/janelia-flyem/bioio/stream"
)

// MaxEntryBytes bounds the out-of-line data of a single entry.  Larger entries
// are skipped and reported as a warning.
var MaxEntryBytes uint64 = 256 << 20

// Directory is one decoded IFD.
type Directory struct {
	// Offset is where the directory starts in the file.
	Offset int64

	// Next is the offset of the following directory, 0 at the end of a chain.
	Next int64

	// Entries are sorted by tag.
	Entries []Entry

	// Warnings collects non-fatal problems, e.g., entries with an unknown type.
	Warnings error
}

// Entry returns the entry with the given tag.
func (d *Directory) Entry(tag uint16) (Entry, bool) {
	i := sort.Search(len(d.Entries), func(i int) bool { return d.Entries[i].Tag >= tag })
	if i < len(d.Entries) && d.Entries[i].Tag == tag {
		return d.Entries[i], true
	}
	return Entry{}, false
}

func (d *Directory) Has(tag uint16) bool {
	_, found := d.Entry(tag)
	return found
}

// Uint returns the first value of an integer entry, or def if the tag is absent.
func (d *Directory) Uint(tag uint16, def uint64) (uint64, error) {
	e, found := d.Entry(tag)
	if !found {
		return def, nil
	}
	return e.Uint()
}

// Uints returns the values of an integer entry, or nil if the tag is absent.
func (d *Directory) Uints(tag uint16) ([]uint64, error) {
	e, found := d.Entry(tag)
	if !found {
		return nil, nil
	}
	return e.Uints()
}

// Text returns the value of an ASCII entry, or "" if the tag is absent.
func (d *Directory) Text(tag uint16) string {
	e, found := d.Entry(tag)
	if !found || e.Type != ASCII {
		return ""
	}
	return e.Text()
}

// Tags returns the tags present in ascending order.
func (d *Directory) Tags() []uint16 {
	tags := make([]uint16, len(d.Entries))
	for i, e := range d.Entries {
		tags[i] = e.Tag
	}
	return tags
}

// ReadDirectory decodes the directory at offset using the cursor's byte order.
// Classic directories have 2-byte counts and 12-byte entries with a 4-byte value
// slot; BigTIFF directories have 8-byte counts and 20-byte entries with an 8-byte
// slot.  Values that fit the slot are stored inline, others at the slot's offset.
func ReadDirectory(c *stream.Cursor, offset int64, bigTIFF bool) (*Directory, error) {
	countSize, entrySize, nextSize := int64(2), int64(12), int64(4)
	if bigTIFF {
		countSize, entrySize, nextSize = 8, 20, 8
	}
	var count uint64
	if bigTIFF {
		v, err := c.Uint64At(offset)
		if err != nil {
			return nil, err
		}
		count = v
	} else {
		v, err := c.Uint16At(offset)
		if err != nil {
			return nil, err
		}
		count = uint64(v)
	}
	if count == 0 {
		return nil, bio.NewDecodeError(c.Name(), offset, "directory has no entries")
	}
	tableBytes := int64(count) * entrySize
	if count > uint64(c.Size()) || offset+countSize+tableBytes+nextSize > c.Size() {
		return nil, bio.NewDecodeError(c.Name(), offset, "directory with %d entries runs past end of file", count)
	}
	table, err := c.BytesAt(offset+countSize, int(tableBytes))
	if err != nil {
		return nil, err
	}
	order := c.Order()

	dir := &Directory{Offset: offset}
	var warnings *multierror.Error
	for i := int64(0); i < int64(count); i++ {
		p := table[i*entrySize : (i+1)*entrySize]
		e := Entry{
			Tag:   order.Uint16(p[0:2]),
			Type:  Type(order.Uint16(p[2:4])),
			order: order,
		}
		var slot []byte
		if bigTIFF {
			e.Count = order.Uint64(p[4:12])
			slot = p[12:20]
		} else {
			e.Count = uint64(order.Uint32(p[4:8]))
			slot = p[8:12]
		}
		if !e.Type.Valid() {
			warnings = multierror.Append(warnings, fmt.Errorf("tag %d has unknown type %d", e.Tag, e.Type))
			continue
		}
		size := uint64(e.Type.Size())
		if e.Count > MaxEntryBytes/size {
			warnings = multierror.Append(warnings, fmt.Errorf("%s exceeds %d bytes", e, MaxEntryBytes))
			continue
		}
		nbytes := e.Count * size
		slotOffset := offset + countSize + i*entrySize + entrySize - int64(len(slot))
		if nbytes <= uint64(len(slot)) {
			e.Offset = slotOffset
			e.Raw = append([]byte(nil), slot[:nbytes]...)
		} else {
			if bigTIFF {
				e.Offset = int64(order.Uint64(slot))
			} else {
				e.Offset = int64(order.Uint32(slot))
			}
			raw, err := c.BytesAt(e.Offset, int(nbytes))
			if err != nil {
				warnings = multierror.Append(warnings, fmt.Errorf("%s values at %d unreadable: %v", e, e.Offset, err))
				continue
			}
			e.Raw = raw
		}
		dir.Entries = append(dir.Entries, e)
	}
	sort.SliceStable(dir.Entries, func(i, j int) bool { return dir.Entries[i].Tag < dir.Entries[j].Tag })
	dir.Warnings = warnings.ErrorOrNil()

	nextAt := offset + countSize + tableBytes
	if bigTIFF {
		next, err := c.Uint64At(nextAt)
		if err != nil {
			return nil, err
		}
		dir.Next = int64(next)
	} else {
		next, err := c.Uint32At(nextAt)
		if err != nil {
			return nil, err
		}
		dir.Next = int64(next)
	}
	return dir, nil
}
