package format

import (
	"fmt"
	"strings"

	"github.com/janelia-flyem/bioio/bio"

	"github.com/coocood/freecache"
)

// MinCacheBytes is the smallest plane cache that will be created.
const MinCacheBytes = 512 * 1024

// Cache keeps decoded plane regions, compressed, in a fixed-size freecache.
// A Cache is safe for concurrent use and may be shared by duplicated readers.
type Cache struct {
	cache    *freecache.Cache
	compress bio.Compression
}

// NewCache returns a cache of roughly numBytes.  Entries larger than about
// 1/1024 of the cache are not kept.
func NewCache(numBytes int, compress bio.Compression) *Cache {
	if numBytes < MinCacheBytes {
		numBytes = MinCacheBytes
	}
	bio.Infof("Created plane cache of ~ %d MB (%s).\n", numBytes>>20, compress)
	return &Cache{cache: freecache.NewCache(numBytes), compress: compress}
}

// CacheStats summarizes cache use.
type CacheStats struct {
	Entries, Hits, Misses int64
	HitRate               float64
}

func (s CacheStats) String() string {
	return fmt.Sprintf("%d entries, %d hits, %d misses (%.1f%%)", s.Entries, s.Hits, s.Misses,
		100*s.HitRate)
}

func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Entries: c.cache.EntryCount(),
		Hits:    c.cache.HitCount(),
		Misses:  c.cache.MissCount(),
		HitRate: c.cache.HitRate(),
	}
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.cache.Clear()
}

func (c *Cache) get(key []byte) ([]byte, bool) {
	s, err := c.cache.Get(key)
	if err != nil {
		if err != freecache.ErrNotFound {
			bio.Errorf("plane cache: %v\n", err)
		}
		return nil, false
	}
	data, _, err := bio.DeserializeData(s, true)
	if err != nil {
		bio.Errorf("plane cache entry corrupted, dropping: %v\n", err)
		c.cache.Del(key)
		return nil, false
	}
	return data, true
}

func (c *Cache) set(key, data []byte) {
	s, err := bio.SerializeData(data, c.compress, bio.CRC32)
	if err != nil {
		bio.Errorf("plane cache: %v\n", err)
		return
	}
	if err := c.cache.Set(key, s, 0); err != nil {
		bio.Debugf("plane cache: not keeping %d bytes: %v\n", len(s), err)
	}
}

type planeCache struct {
	*Wrapper
	cache *Cache
	stack string
}

// PlaneCache returns a decorator that serves repeated ReadPlane requests out of c.
// Duplicates share c.  Entries are keyed by the decorators and handler under
// the cache, so readers with different stacks can share c.
func PlaneCache(c *Cache) Decorator {
	var d Decorator
	d = func(r Reader) Reader {
		return &planeCache{NewWrapper(r, d), c, stackTag(r)}
	}
	return d
}

// stackTag names the layers of r from the outside in.
func stackTag(r Reader) string {
	var layers []string
	for {
		layers = append(layers, fmt.Sprintf("%T", r))
		u, ok := r.(unwrapper)
		if !ok {
			break
		}
		r = u.Unwrap()
	}
	return strings.Join(layers, "/")
}

func (p *planeCache) key(no, x, y, w, h int) []byte {
	return []byte(fmt.Sprintf("%s|%s|%d|%d|%d,%d,%d,%d", p.stack, p.Reader.CurrentFile(),
		p.Reader.Series(), no, x, y, w, h))
}

func (p *planeCache) ReadPlane(no, x, y, w, h int) ([]byte, error) {
	if p.Reader.CurrentFile() == "" {
		return p.Reader.ReadPlane(no, x, y, w, h)
	}
	key := p.key(no, x, y, w, h)
	if data, found := p.cache.get(key); found {
		return data, nil
	}
	data, err := p.Reader.ReadPlane(no, x, y, w, h)
	if err != nil {
		return nil, err
	}
	p.cache.set(key, data)
	return data, nil
}
