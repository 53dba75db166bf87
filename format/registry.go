package format

import (
	"context"
	"fmt"
	"strings"

	"github.com/janelia-flyem/bioio/bio"
	"github.com/janelia-flyem/bioio/stream"

	"github.com/blang/semver"
)

// BlockSize is the number of leading bytes handed to IsThisBlock.
const BlockSize = 1024

// Handler describes one format handler for a Registry.
type Handler struct {
	// Name is the format name, matching Reader.Format.
	Name string

	// Version of the handler code.
	Version semver.Version

	// New returns an unopened handler.
	New func() Reader
}

func (h Handler) String() string {
	return fmt.Sprintf("%s [%s]", h.Name, h.Version)
}

// Registry holds format handlers in detection priority order.  More specific
// formats must come before the generic ones they resemble, e.g., vendor TIFF
// variants before plain TIFF.
type Registry struct {
	handlers []Handler
}

// NewRegistry returns a registry holding handlers in the given order.  Invalid
// handlers are logged and skipped.
func NewRegistry(handlers ...Handler) *Registry {
	r := new(Registry)
	for _, h := range handlers {
		if err := r.Register(h); err != nil {
			bio.Errorf("Skipping format handler: %v\n", err)
		}
	}
	return r
}

// Register appends a handler at the lowest priority.
func (r *Registry) Register(h Handler) error {
	if h.Name == "" || h.New == nil {
		return fmt.Errorf("Format handler needs a name and constructor")
	}
	if err := h.Version.Validate(); err != nil {
		return fmt.Errorf("Format handler %q has bad version: %v", h.Name, err)
	}
	if h.Version.Major == 0 && h.Version.Minor == 0 && h.Version.Patch == 0 {
		return fmt.Errorf("Format handler %q has no version", h.Name)
	}
	for _, existing := range r.handlers {
		if strings.EqualFold(existing.Name, h.Name) {
			return fmt.Errorf("Format handler %q already registered", h.Name)
		}
	}
	r.handlers = append(r.handlers, h)
	return nil
}

// Handlers returns the handlers in priority order.
func (r *Registry) Handlers() []Handler {
	return append([]Handler(nil), r.handlers...)
}

// Names returns a comma separated list of format names.
func (r *Registry) Names() string {
	names := make([]string, len(r.handlers))
	for i, h := range r.handlers {
		names[i] = h.Name
	}
	return strings.Join(names, ", ")
}

// Get returns the named handler.
func (r *Registry) Get(name string) (Handler, bool) {
	for _, h := range r.handlers {
		if strings.EqualFold(h.Name, name) {
			return h, true
		}
	}
	return Handler{}, false
}

// sniffer lazily opens the candidate file once for all handlers.
type sniffer struct {
	name   string
	opened bool
	cursor *stream.Cursor
	block  []byte
}

func (s *sniffer) open() *stream.Cursor {
	if s.opened {
		return s.cursor
	}
	s.opened = true
	src, err := stream.Open(context.Background(), s.name)
	if err != nil {
		bio.Debugf("Cannot open %s for detection: %v\n", s.name, err)
		return nil
	}
	s.cursor = stream.NewCursor(src)
	s.block = stream.Sniff(src, BlockSize)
	return s.cursor
}

func (s *sniffer) close() {
	if s.cursor != nil {
		s.cursor.Close()
	}
}

// matchStream runs the block and stream tiers of one handler.  The cursor is
// put back where it was even if the handler forgets to.
func matchStream(rd Reader, c *stream.Cursor, block []byte) bool {
	if rd.IsThisBlock(block) {
		return true
	}
	pos := c.Offset()
	order := c.Order()
	match := rd.IsThisStream(c)
	if c.Offset() != pos {
		bio.Warningf("%s detection moved stream %s from %d to %d\n", rd.Format(), c.Name(), pos, c.Offset())
		c.Seek(pos)
	}
	c.SetOrder(order)
	return match
}

// Detect returns the first handler, in priority order, that accepts name.  Each
// handler is tried cheapest first: the name alone, then, when allowOpen is set,
// the name with file system access, the leading bytes and finally a sniff of
// the stream.  No match, including an unreadable file, is reported as false.
func (r *Registry) Detect(name string, allowOpen bool) (Handler, bool) {
	s := &sniffer{name: name}
	defer s.close()
	for _, h := range r.handlers {
		rd := h.New()
		if rd.IsThisName(name, false) {
			return h, true
		}
		if !allowOpen {
			continue
		}
		if rd.IsThisName(name, true) {
			return h, true
		}
		if c := s.open(); c != nil && matchStream(rd, c, s.block) {
			return h, true
		}
	}
	return Handler{}, false
}

// DetectStream returns the first handler that accepts the content at the
// cursor.  The cursor position is unchanged.
func (r *Registry) DetectStream(c *stream.Cursor) (Handler, bool) {
	pos := c.Offset()
	block, err := c.BytesAt(pos, BlockSize)
	if err != nil {
		block, _ = c.BytesAt(pos, int(c.Remaining()))
	}
	for _, h := range r.handlers {
		if matchStream(h.New(), c, block) {
			return h, true
		}
	}
	return Handler{}, false
}

// Open detects the format of id, applies the decorators in order and opens it.
func (r *Registry) Open(id string, o Options, decorators ...Decorator) (Reader, error) {
	h, found := r.Detect(id, true)
	if !found {
		return nil, fmt.Errorf("%w: no format handler for %s", bio.ErrUnsupported, id)
	}
	bio.Debugf("%s detected as %s\n", id, h)
	return OpenWith(h, id, o, decorators...)
}

// OpenWith opens id with a specific handler.
func OpenWith(h Handler, id string, o Options, decorators ...Decorator) (Reader, error) {
	base := h.New()
	if err := base.SetOptions(o); err != nil {
		return nil, err
	}
	rd := NewBuilder(decorators...).Build(base)
	if err := rd.Open(id); err != nil {
		rd.Close(false)
		return nil, err
	}
	return rd, nil
}
