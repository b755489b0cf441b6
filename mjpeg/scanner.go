package mjpeg

import (
	"bytes"
	"time"
)

var (
	soi = []byte{0xFF, 0xD8}
	eoi = []byte{0xFF, 0xD9}
)

const (
	DefaultFresh     = 6 * time.Second
	DefaultMaxBuffer = 2000000
	DefaultTailKeep  = 2000
)

// ScannerOptions tune a Scanner. Zero values select the defaults.
type ScannerOptions struct {
	// Fresh is the connection age from which a frame is persisted at once.
	Fresh time.Duration
	// MaxBuffer is the buffer size that triggers a trim.
	MaxBuffer int
	// TailKeep is what survives a trim when the buffer holds no SOI.
	TailKeep int
	// Validate, when set, rejects delimited ranges that are not images.
	Validate func(frame []byte) bool
}

func (o ScannerOptions) withDefaults() ScannerOptions {
	if o.Fresh <= 0 {
		o.Fresh = DefaultFresh
	}
	if o.MaxBuffer <= 0 {
		o.MaxBuffer = DefaultMaxBuffer
	}
	if o.TailKeep <= 0 {
		o.TailKeep = DefaultTailKeep
	}
	return o
}

// Scanner extracts JPEG frames from the bytes of one connection.
//
// It keeps only the most recent complete frame. A trim never cuts into the
// newest unresolved SOI, but an older unresolved SOI is dropped once a newer
// one is buffered. Not safe for concurrent use.
type Scanner struct {
	opts  ScannerOptions
	start time.Time

	buf   []byte
	frame []byte

	// eoi search resumes here while the frame at buf[0:] is incomplete
	next int
}

// NewScanner returns a scanner for a connection opened at start.
func NewScanner(start time.Time, opts ScannerOptions) *Scanner {
	return &Scanner{
		opts:  opts.withDefaults(),
		start: start,
	}
}

// Feed appends chunk to the buffer and extracts every complete frame in it.
// It returns true as soon as a frame is extracted at or after the freshness
// threshold; Frame then returns that frame.
func (s *Scanner) Feed(chunk []byte, now time.Time) bool {
	s.buf = append(s.buf, chunk...)

	for {
		i := bytes.Index(s.buf, soi)
		if i < 0 {
			break
		}

		from := i + len(soi)
		if i == 0 && s.next > from {
			from = s.next
		}
		j := bytes.Index(s.buf[from:], eoi)
		if j < 0 {
			// resume before the last byte, it may be half of an EOI
			s.drop(i)
			s.next = len(s.buf) - 1
			break
		}
		end := from + j + len(eoi)

		ok := s.candidate(s.buf[i:end])
		s.drop(end)

		if ok && now.Sub(s.start) >= s.opts.Fresh {
			return true
		}
	}

	s.trim()
	return false
}

// Frame returns the current candidate frame or nil.
func (s *Scanner) Frame() []byte {
	return s.frame
}

// Buffered returns the number of bytes waiting in the buffer.
func (s *Scanner) Buffered() int {
	return len(s.buf)
}

// candidate makes a copy of b the current frame unless validation rejects it.
func (s *Scanner) candidate(b []byte) bool {
	if s.opts.Validate != nil && !s.opts.Validate(b) {
		return false
	}
	s.frame = append([]byte(nil), b...)
	return true
}

// drop discards the first n bytes of the buffer.
func (s *Scanner) drop(n int) {
	if n <= 0 {
		return
	}
	s.buf = append(s.buf[:0], s.buf[n:]...)
	s.next = 0
}

// trim bounds the buffer. Bytes from the most recent SOI onwards are kept, so
// an older unresolved SOI is lost; without any SOI only the tail survives.
func (s *Scanner) trim() {
	if len(s.buf) <= s.opts.MaxBuffer {
		return
	}
	if i := bytes.LastIndex(s.buf, soi); i >= 0 {
		s.drop(i)
		return
	}
	s.drop(len(s.buf) - s.opts.TailKeep)
}
