// Package reassembler groups streamed model output so that a fenced code
// block reaches the client as one piece instead of token by token.
package reassembler

import "strings"

// Marker delimits a fenced code block.
const Marker = "```"

type State int

const (
	OutsideBlock State = iota
	InsideBlock
)

func (s State) String() string {
	if s == InsideBlock {
		return "INSIDE_BLOCK"
	}
	return "OUTSIDE_BLOCK"
}

// Reassembler is not safe for concurrent use; keep one per streamed response.
//
// Transitions, with n the number of markers in a fragment:
//
//	OUTSIDE n=0      emit fragment               -> OUTSIDE
//	OUTSIDE n odd    buffer fragment             -> INSIDE
//	OUTSIDE n even   emit fragment               -> OUTSIDE
//	INSIDE  n=0      buffer fragment             -> INSIDE
//	INSIDE  n odd    buffer, emit buffer, reset  -> OUTSIDE
//	INSIDE  n even   buffer fragment             -> INSIDE
type Reassembler struct {
	state State
	buf   []string
}

func New() *Reassembler {
	return &Reassembler{}
}

func (r *Reassembler) State() State { return r.state }

// Pending reports whether fragments are being held back.
func (r *Reassembler) Pending() bool { return len(r.buf) > 0 }

// Push feeds one fragment and returns the text to send now, if any.
func (r *Reassembler) Push(fragment string) (string, bool) {
	toggles := strings.Count(fragment, Marker)%2 == 1

	switch r.state {
	case OutsideBlock:
		if !toggles {
			return fragment, true
		}
		r.state = InsideBlock
		r.buf = append(r.buf[:0], fragment)
		return "", false
	default:
		r.buf = append(r.buf, fragment)
		if !toggles {
			return "", false
		}
		r.state = OutsideBlock
		return r.drain(), true
	}
}

// Flush returns whatever is still buffered and resets to OutsideBlock.
func (r *Reassembler) Flush() (string, bool) {
	r.state = OutsideBlock
	if len(r.buf) == 0 {
		return "", false
	}
	return r.drain(), true
}

func (r *Reassembler) drain() string {
	out := strings.Join(r.buf, "")
	r.buf = r.buf[:0]
	return out
}
