package codec

import "github.com/janelia-flyem/bioio/bio"

// SeekPolicy decides what a Sequencer does when asked for a plane that does not
// directly follow the last decoded one.
type SeekPolicy int

const (
	// SeekAsReference decodes the plane without a predecessor.  Regions the
	// plane does not update come out blank.
	SeekAsReference SeekPolicy = iota

	// SeekReplay decodes every plane from the last decoded one, or from plane
	// 0, up to the requested plane.
	SeekReplay

	// SeekFail returns a bio.SeekError.
	SeekFail
)

func (p SeekPolicy) String() string {
	switch p {
	case SeekAsReference:
		return "reference"
	case SeekReplay:
		return "replay"
	case SeekFail:
		return "fail"
	}
	return "unknown"
}

// FrameSource returns the compressed bytes of plane no.
type FrameSource func(no int) ([]byte, error)

// Sequencer holds the predecessor state of one codec over one series traversal.
// Non-predictive codecs pass through untouched.  A Sequencer is not safe for
// concurrent use; duplicated readers each get their own.
type Sequencer struct {
	codec  Codec
	policy SeekPolicy
	last   int
	prev   []byte
}

func NewSequencer(c Codec, policy SeekPolicy) *Sequencer {
	return &Sequencer{codec: c, policy: policy, last: -1}
}

func (s *Sequencer) Codec() Codec { return s.codec }

// Last returns the last decoded plane number or -1.
func (s *Sequencer) Last() int { return s.last }

// Reset discards the predecessor state.
func (s *Sequencer) Reset() {
	s.last = -1
	s.prev = nil
}

func (s *Sequencer) decode(no int, src FrameSource, p Params, prev []byte) ([]byte, error) {
	data, err := src(no)
	if err != nil {
		return nil, err
	}
	p.Previous = prev
	out, err := s.codec.Decode(data, p)
	if err != nil {
		s.Reset()
		return nil, err
	}
	s.last, s.prev = no, out
	return out, nil
}

// Decode returns the decoded plane no.  The returned slice belongs to the caller.
func (s *Sequencer) Decode(no int, src FrameSource, p Params) ([]byte, error) {
	if !IsPredictive(s.codec) {
		data, err := src(no)
		if err != nil {
			return nil, err
		}
		p.Previous = nil
		return s.codec.Decode(data, p)
	}
	var out []byte
	var err error
	switch {
	case no == s.last && s.prev != nil:
		out = s.prev
	case no == s.last+1:
		out, err = s.decode(no, src, p, s.prev)
	case no == 0:
		out, err = s.decode(no, src, p, nil)
	default:
		switch s.policy {
		case SeekAsReference:
			bio.Debugf("%s plane %d decoded without predecessor (last %d)\n", s.codec.Name(), no, s.last)
			out, err = s.decode(no, src, p, nil)
		case SeekReplay:
			start := s.last + 1
			if no < start {
				s.Reset()
				start = 0
			}
			for i := start; i <= no && err == nil; i++ {
				out, err = s.decode(i, src, p, s.prev)
			}
		default:
			return nil, &bio.SeekError{Codec: s.codec.Name(), Plane: no, Last: s.last}
		}
	}
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), out...), nil
}
