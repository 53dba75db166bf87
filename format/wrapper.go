package format

// Decorator layers behavior over a Reader.
type Decorator func(Reader) Reader

// Wrapper forwards every call to the wrapped Reader.  Decorators embed it and
// override the few methods they change.  Duplicate duplicates the wrapped
// Reader and applies the same decorator to the copy.
type Wrapper struct {
	Reader
	rewrap Decorator
}

// NewWrapper returns a Wrapper over r.  rewrap is applied to duplicates of r;
// nil makes the Wrapper a plain pass-through whose duplicates are wrapped the
// same way.
func NewWrapper(r Reader, rewrap Decorator) *Wrapper {
	w := &Wrapper{Reader: r, rewrap: rewrap}
	if w.rewrap == nil {
		w.rewrap = func(r Reader) Reader { return NewWrapper(r, nil) }
	}
	return w
}

// Unwrap returns the wrapped Reader.
func (w *Wrapper) Unwrap() Reader { return w.Reader }

func (w *Wrapper) Duplicate() (Reader, error) {
	dup, err := w.Reader.Duplicate()
	if err != nil {
		return nil, err
	}
	return w.rewrap(dup), nil
}

type unwrapper interface {
	Unwrap() Reader
}

// Unwrap strips all decorators and returns the format handler underneath.
func Unwrap(r Reader) Reader {
	for {
		u, ok := r.(unwrapper)
		if !ok {
			return r
		}
		r = u.Unwrap()
	}
}

// Builder composes a handler with an ordered list of decorators.  The first
// decorator added is innermost.
type Builder struct {
	decorators []Decorator
}

func NewBuilder(decorators ...Decorator) *Builder {
	return &Builder{decorators: decorators}
}

// With appends decorators.
func (b *Builder) With(decorators ...Decorator) *Builder {
	b.decorators = append(b.decorators, decorators...)
	return b
}

// Len returns the number of decorators.
func (b *Builder) Len() int { return len(b.decorators) }

// Build wraps r with every decorator in order.
func (b *Builder) Build(r Reader) Reader {
	for _, d := range b.decorators {
		if d != nil {
			r = d(r)
		}
	}
	return r
}
