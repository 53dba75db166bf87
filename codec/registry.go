package codec

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry maps codec names and aliases to codecs.  It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	codecs map[string]Codec
}

func NewRegistry() *Registry {
	return &Registry{codecs: make(map[string]Codec)}
}

// Register adds c under its name and any aliases.  Names are case-insensitive.
func (r *Registry) Register(c Codec, aliases ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := append([]string{c.Name()}, aliases...)
	for _, name := range names {
		if _, found := r.codecs[strings.ToLower(name)]; found {
			return fmt.Errorf("%w: %s", ErrCodecExists, name)
		}
	}
	for _, name := range names {
		r.codecs[strings.ToLower(name)] = c
	}
	return nil
}

// Get returns the codec registered under name or alias.
func (r *Registry) Get(name string) (Codec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, found := r.codecs[strings.ToLower(name)]
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrCodecNotFound, name)
	}
	return c, nil
}

// Names returns the sorted primary names of registered codecs.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	var names []string
	for _, c := range r.codecs {
		if !seen[c.Name()] {
			seen[c.Name()] = true
			names = append(names, c.Name())
		}
	}
	sort.Strings(names)
	return names
}

var defaultRegistry = NewRegistry()

// Register adds c to the default registry, panicking on duplicates since it is
// called from package init.
func Register(c Codec, aliases ...string) {
	if err := defaultRegistry.Register(c, aliases...); err != nil {
		panic(err)
	}
}

// Get returns a codec from the default registry.
func Get(name string) (Codec, error) {
	return defaultRegistry.Get(name)
}

// Names lists the codecs of the default registry.
func Names() []string {
	return defaultRegistry.Names()
}

// Decode looks up a codec in the default registry and decodes src.
func Decode(name string, src []byte, p Params) ([]byte, error) {
	c, err := Get(name)
	if err != nil {
		return nil, err
	}
	return c.Decode(src, p)
}
