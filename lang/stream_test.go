package lang

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStreamFIFO(t *testing.T) {
	s := NewStream()
	if err := s.WriteString("ab"); err != nil {
		t.Fatalf("write: %v", err)
	}
	var got []rune
	for i := 0; i < 2; i++ {
		s.Read(func(r rune, err error) {
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			got = append(got, r)
		})
	}
	if string(got) != "ab" {
		t.Fatalf("expected reads in write order, got %q", string(got))
	}
}

func TestStreamPendingReader(t *testing.T) {
	s := NewStream()
	var got rune
	s.Read(func(r rune, err error) { got = r })

	var second error
	s.Read(func(_ rune, err error) { second = err })
	if !errors.Is(second, ErrReadPending) {
		t.Fatalf("expected ErrReadPending for a second reader, got %v", second)
	}

	if err := s.Write('z'); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got != 'z' {
		t.Fatalf("expected pending reader to receive the write, got %q", got)
	}
	if buffered := s.TakeBuffered(); len(buffered) != 0 {
		t.Fatalf("write to a pending reader must not buffer, got %q", string(buffered))
	}
}

func TestStreamClose(t *testing.T) {
	s := NewStream()
	var pending error
	s.Read(func(_ rune, err error) { pending = err })
	s.Close()
	s.Close()

	if !errors.Is(pending, ErrStreamClosed) {
		t.Fatalf("expected pending read to fail on close, got %v", pending)
	}
	if err := s.Write('x'); !errors.Is(err, ErrStreamClosed) {
		t.Fatalf("expected write after close to fail, got %v", err)
	}
	var later error
	s.Read(func(_ rune, err error) { later = err })
	if !errors.Is(later, ErrStreamClosed) {
		t.Fatalf("expected read after close to fail, got %v", later)
	}
	if !s.Closed() {
		t.Fatalf("expected Closed to report true")
	}
}

func TestStreamReadContext(t *testing.T) {
	s := NewStream()
	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = s.Write('q')
	}()
	r, err := s.ReadContext(context.Background())
	if err != nil || r != 'q' {
		t.Fatalf("expected 'q', got %q err=%v", r, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.ReadContext(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	// The cancelled read must not swallow the next write.
	_ = s.Write('w')
	if r, err := s.ReadContext(context.Background()); err != nil || r != 'w' {
		t.Fatalf("expected 'w' after cancelled read, got %q err=%v", r, err)
	}
}

func TestStreamEndDrainsBuffer(t *testing.T) {
	s := NewStream()
	_ = s.WriteString("hi")
	s.End()
	if err := s.Write('x'); !errors.Is(err, ErrStreamClosed) {
		t.Fatalf("expected write after End to fail, got %v", err)
	}
	for _, want := range "hi" {
		if r, err := s.ReadContext(context.Background()); err != nil || r != want {
			t.Fatalf("expected %q, got %q err=%v", want, r, err)
		}
	}
	if _, err := s.ReadContext(context.Background()); !errors.Is(err, ErrStreamClosed) {
		t.Fatalf("expected drained stream to report closed, got %v", err)
	}
	if s.Closed() {
		t.Fatalf("End must not close the stream")
	}
}
