package printer

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

// chunkRecorder records the size of every Write call.
type chunkRecorder struct {
	buf    bytes.Buffer
	writes []int
	err    error
}

func (r *chunkRecorder) Write(p []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	r.writes = append(r.writes, len(p))
	return r.buf.Write(p)
}

func TestPrint_Chunking(t *testing.T) {
	rec := &chunkRecorder{}
	p := New(rec, 512, time.Millisecond)

	data := bytes.Repeat([]byte{0xAB}, 1200)
	if err := p.Print(context.Background(), data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []int{512, 512, 176}
	if len(rec.writes) != len(want) {
		t.Fatalf("writes: got %v, want %v", rec.writes, want)
	}
	for i, size := range want {
		if rec.writes[i] != size {
			t.Errorf("write %d: got %d bytes, want %d", i, rec.writes[i], size)
		}
	}
	if !bytes.Equal(rec.buf.Bytes(), data) {
		t.Error("reassembled payload differs from input")
	}
}

func TestPrint_SmallPayloadSingleChunk(t *testing.T) {
	rec := &chunkRecorder{}
	p := New(rec, 512, time.Millisecond)

	if err := p.Print(context.Background(), []byte("receipt")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.writes) != 1 || rec.writes[0] != 7 {
		t.Errorf("writes: got %v, want [7]", rec.writes)
	}
}

func TestPrint_EmptyPayload(t *testing.T) {
	rec := &chunkRecorder{}
	p := New(rec, 512, time.Millisecond)

	if err := p.Print(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.writes) != 0 {
		t.Errorf("writes: got %v, want none", rec.writes)
	}
}

func TestPrint_ContextCancelled(t *testing.T) {
	rec := &chunkRecorder{}
	p := New(rec, 4, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Print(ctx, bytes.Repeat([]byte{0x01}, 16))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got: %v", err)
	}
	// The first chunk may have gone out before the cancel is observed,
	// but nothing after it.
	if len(rec.writes) > 1 {
		t.Errorf("writes after cancel: got %v, want at most one", rec.writes)
	}
}

func TestPrint_WriteError(t *testing.T) {
	rec := &chunkRecorder{err: errors.New("connection lost")}
	p := New(rec, 512, time.Millisecond)

	if err := p.Print(context.Background(), []byte("data")); err == nil {
		t.Fatal("expected write error")
	}
}

func TestNew_Defaults(t *testing.T) {
	p := New(&bytes.Buffer{}, 0, 0)
	if p.chunkSize != DefaultChunkSize {
		t.Errorf("chunk size: got %d, want %d", p.chunkSize, DefaultChunkSize)
	}
	if p.delay != DefaultDelay {
		t.Errorf("delay: got %v, want %v", p.delay, DefaultDelay)
	}
}
