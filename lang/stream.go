package lang

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrStreamClosed is returned by every operation on a closed stream.
	ErrStreamClosed = errors.New("stream closed")
	// ErrReadPending is returned when a second reader arrives while one waits.
	ErrReadPending = errors.New("stream already has a pending reader")
)

type pendingRead struct {
	cb func(rune, error)
}

// Stream is an unbounded FIFO of characters with at most one waiting reader.
// Callbacks are always invoked without the stream lock held.
type Stream struct {
	mu      sync.Mutex
	buf     []rune
	pending *pendingRead
	closed  bool
	ended   bool // no more writes; reads drain the buffer
}

// NewStream returns an open, empty stream.
func NewStream() *Stream {
	return &Stream{}
}

// Write hands r to the waiting reader or buffers it.
func (s *Stream) Write(r rune) error {
	s.mu.Lock()
	if s.closed || s.ended {
		s.mu.Unlock()
		return ErrStreamClosed
	}
	if p := s.pending; p != nil {
		s.pending = nil
		s.mu.Unlock()
		p.cb(r, nil)
		return nil
	}
	s.buf = append(s.buf, r)
	s.mu.Unlock()
	return nil
}

// WriteString writes every rune of str in order.
func (s *Stream) WriteString(str string) error {
	for _, r := range str {
		if err := s.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// Read delivers the oldest buffered rune to cb, or registers cb to receive
// the next write. cb may run before Read returns.
func (s *Stream) Read(cb func(rune, error)) {
	s.read(cb)
}

func (s *Stream) read(cb func(rune, error)) *pendingRead {
	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		cb(0, ErrStreamClosed)
		return nil
	case len(s.buf) > 0:
		r := s.buf[0]
		s.buf = s.buf[1:]
		s.mu.Unlock()
		cb(r, nil)
		return nil
	case s.ended:
		s.mu.Unlock()
		cb(0, ErrStreamClosed)
		return nil
	case s.pending != nil:
		s.mu.Unlock()
		cb(0, ErrReadPending)
		return nil
	}
	p := &pendingRead{cb: cb}
	s.pending = p
	s.mu.Unlock()
	return p
}

// cancel withdraws a pending read. It reports false when the read has
// already been satisfied.
func (s *Stream) cancel(p *pendingRead) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p == nil || s.pending != p {
		return false
	}
	s.pending = nil
	return true
}

// ReadContext blocks until a rune arrives, the stream closes or ctx ends.
func (s *Stream) ReadContext(ctx context.Context) (rune, error) {
	type result struct {
		r   rune
		err error
	}
	ch := make(chan result, 1)
	p := s.read(func(r rune, err error) { ch <- result{r, err} })
	select {
	case res := <-ch:
		return res.r, res.err
	case <-ctx.Done():
		if s.cancel(p) {
			return 0, ctx.Err()
		}
		res := <-ch
		return res.r, res.err
	}
}

// TakeBuffered removes and returns every buffered rune without blocking.
func (s *Stream) TakeBuffered() []rune {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.buf
	s.buf = nil
	return out
}

// Close fails the pending read and every later operation. Closing twice is
// a no-op.
func (s *Stream) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	p := s.pending
	s.pending = nil
	s.buf = nil
	s.mu.Unlock()
	if p != nil {
		p.cb(0, ErrStreamClosed)
	}
}

// End marks the end of input. Buffered runes stay readable; after them
// reads fail with ErrStreamClosed, as do all writes.
func (s *Stream) End() {
	s.mu.Lock()
	if s.closed || s.ended {
		s.mu.Unlock()
		return
	}
	s.ended = true
	p := s.pending
	s.pending = nil
	s.mu.Unlock()
	if p != nil {
		p.cb(0, ErrStreamClosed)
	}
}

// Closed reports whether Close has been called.
func (s *Stream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
