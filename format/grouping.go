package format

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/janelia-flyem/bioio/bio"

	"github.com/golang/groupcache/lru"
)

// Listing caches sorted directory listings so that multi-file formats can look
// for companion files without rereading the same directory for every plane.
type Listing struct {
	mu    sync.Mutex
	cache *lru.Cache
}

// DefaultListingEntries is the number of directories kept by the shared Listing.
const DefaultListingEntries = 64

var (
	sharedMu      sync.Mutex
	sharedListing *Listing
)

// SharedListing returns the process-wide Listing.
func SharedListing() *Listing {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if sharedListing == nil {
		sharedListing = NewListing(DefaultListingEntries)
	}
	return sharedListing
}

// SetSharedListing replaces the process-wide Listing, e.g., after configuration
// changes its size.
func SetSharedListing(l *Listing) {
	sharedMu.Lock()
	sharedListing = l
	sharedMu.Unlock()
}

func NewListing(maxEntries int) *Listing {
	return &Listing{cache: lru.New(maxEntries)}
}

// List returns the sorted names in dir.  Missing directories list as empty.
func (l *Listing) List(dir string) ([]string, error) {
	dir = filepath.Clean(dir)
	l.mu.Lock()
	v, found := l.cache.Get(dir)
	l.mu.Unlock()
	if found {
		return v.([]string), nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	sort.Strings(names)
	l.mu.Lock()
	l.cache.Add(dir, names)
	l.mu.Unlock()
	return names, nil
}

// Forget drops the cached listing of dir.
func (l *Listing) Forget(dir string) {
	l.mu.Lock()
	l.cache.Remove(filepath.Clean(dir))
	l.mu.Unlock()
}

// FindCompanion looks for name in dir.  Vendor software tends to rename files,
// so when there is no exact match it tries, in order: a case-insensitive
// match, then a file with the same stem and one of the alternative suffixes,
// then the only file whose name ends with the stem.  It returns the path found
// or a bio.MissingFileError.
func (l *Listing) FindCompanion(dir, name string, suffixes ...string) (string, error) {
	names, err := l.List(dir)
	if err != nil {
		return "", err
	}
	lower := strings.ToLower(name)
	for _, n := range names {
		if n == name {
			return filepath.Join(dir, n), nil
		}
	}
	for _, n := range names {
		if strings.ToLower(n) == lower {
			return filepath.Join(dir, n), nil
		}
	}
	stem := strings.TrimSuffix(lower, strings.ToLower(filepath.Ext(name)))
	for _, s := range suffixes {
		want := stem + "." + strings.ToLower(strings.TrimPrefix(s, "."))
		for _, n := range names {
			if strings.ToLower(n) == want {
				return filepath.Join(dir, n), nil
			}
		}
	}
	var candidate string
	for _, n := range names {
		nl := strings.ToLower(n)
		if strings.HasSuffix(strings.TrimSuffix(nl, filepath.Ext(nl)), stem) {
			if candidate != "" {
				candidate = ""
				break
			}
			candidate = n
		}
	}
	if candidate != "" && stem != "" {
		return filepath.Join(dir, candidate), nil
	}
	return "", &bio.MissingFileError{File: filepath.Join(dir, name)}
}

// BlankPlane returns a zeroed w x h region of a plane in series d.
func BlankPlane(d bio.SeriesDescriptor, w, h int) []byte {
	return make([]byte, d.PlaneBytes(w, h))
}

// GroupPolicy decides what a multi-file format does when a companion file that
// holds pixels is missing.
type GroupPolicy uint8

const (
	// DegradeToBlank returns blank planes for missing files, as vendor software
	// does for partial acquisitions.
	DegradeToBlank GroupPolicy = iota

	// FailOnMissing returns a bio.MissingFileError.
	FailOnMissing
)

func (p GroupPolicy) String() string {
	if p == FailOnMissing {
		return "fail"
	}
	return "blank"
}

// Missing handles a missing pixel file according to the policy.
func (p GroupPolicy) Missing(file, dataset string, d bio.SeriesDescriptor, w, h int) ([]byte, error) {
	if p == FailOnMissing {
		return nil, &bio.MissingFileError{File: file, Dataset: dataset}
	}
	bio.Warningf("%s is missing from %s, returning blank plane\n", file, dataset)
	return BlankPlane(d, w, h), nil
}
