package ifd

import (
	"github.com/janelia-flyem/bioio/bio"
	"github.com/janelia-flyem/bioio/stream"
)

// Chain walks linked directories one at a time, in the manner of bufio.Scanner:
//
//	chain := ifd.NewChain(cursor, hdr)
//	for chain.Next() {
//		dir := chain.Directory()
//		...
//	}
//	if err := chain.Err(); err != nil {
//		...
//	}
//
// Each directory is decoded only when Next is called.  A Chain cannot be
// restarted, and it ends at a zero next offset, at an offset outside the file,
// or at an offset that was already visited.
type Chain struct {
	c       *stream.Cursor
	hdr     Header
	next    int64
	visited map[int64]struct{}
	dir     *Directory
	err     error
}

// NewChain returns a Chain starting at the header's first directory.
func NewChain(c *stream.Cursor, hdr Header) *Chain {
	return FollowChain(c, hdr, hdr.FirstOffset)
}

// FollowChain returns a Chain starting at an arbitrary directory offset, e.g., a
// sub-IFD, decoded with the header's byte order and layout.
func FollowChain(c *stream.Cursor, hdr Header, first int64) *Chain {
	return &Chain{
		c:       c,
		hdr:     hdr,
		next:    first,
		visited: make(map[int64]struct{}),
	}
}

// Next decodes the following directory and reports whether there was one.
func (ch *Chain) Next() bool {
	if ch.err != nil || ch.next <= 0 {
		ch.dir = nil
		return false
	}
	if ch.next >= ch.c.Size() {
		bio.Warningf("Directory offset %d past end of %s; ending chain\n", ch.next, ch.c.Name())
		ch.next, ch.dir = 0, nil
		return false
	}
	if _, seen := ch.visited[ch.next]; seen {
		bio.Warningf("Directory chain in %s loops back to offset %d; ending chain\n", ch.c.Name(), ch.next)
		ch.next, ch.dir = 0, nil
		return false
	}
	ch.visited[ch.next] = struct{}{}

	// The header's byte order holds for the whole chain.
	restore := ch.c.Mark()
	ch.c.SetOrder(ch.hdr.Order)
	dir, err := ReadDirectory(ch.c, ch.next, ch.hdr.BigTIFF)
	restore()
	if err != nil {
		ch.err = err
		ch.dir = nil
		return false
	}
	if dir.Warnings != nil {
		bio.Debugf("Directory at %d of %s: %v\n", dir.Offset, ch.c.Name(), dir.Warnings)
	}
	ch.dir = dir
	ch.next = dir.Next
	return true
}

// Directory returns the directory decoded by the last successful Next.
func (ch *Chain) Directory() *Directory {
	return ch.dir
}

// Err returns the first error that stopped the chain.
func (ch *Chain) Err() error {
	return ch.err
}

// Visited returns the number of distinct directory offsets decoded so far.
func (ch *Chain) Visited() int {
	return len(ch.visited)
}

// ReadAll reads the header and every directory of the chain.
func ReadAll(c *stream.Cursor) (Header, []*Directory, error) {
	hdr, err := ReadHeader(c)
	if err != nil {
		return hdr, nil, err
	}
	var dirs []*Directory
	chain := NewChain(c, hdr)
	for chain.Next() {
		dirs = append(dirs, chain.Directory())
	}
	return hdr, dirs, chain.Err()
}
