package transport

// LineParser frames bytes into lines.
// Lines are terminated by '\n', '\r' is dropped.
type LineParser struct {
	// MaxLen limits the length of a line, 0 means unlimited.
	// Longer lines are discarded up to the next terminator.
	MaxLen int

	buf        []byte
	discarding bool
}

// ParseResult is the result after one parsing step.
type ParseResult struct {
	Line     string
	Complete bool
	Overflow bool
}

// Parse consumes one byte.
func (p *LineParser) Parse(b byte) (pr ParseResult) {
	switch b {
	case '\n':
		if p.discarding {
			p.discarding = false
			return
		}
		pr.Line, pr.Complete = string(p.buf), true
		p.buf = p.buf[:0]
	case '\r':
	default:
		if p.discarding {
			return
		}
		if p.MaxLen > 0 && len(p.buf) >= p.MaxLen {
			p.buf, p.discarding, pr.Overflow = p.buf[:0], true, true
			return
		}
		p.buf = append(p.buf, b)
	}
	return
}

// Pending returns the bytes received after the last terminator.
func (p *LineParser) Pending() string {
	return string(p.buf)
}

// Reset drops all state.
func (p *LineParser) Reset() {
	p.buf, p.discarding = p.buf[:0], false
}
