// Package printer streams encoded receipts to a printer connection.
// Thermal printers over Bluetooth serial drop bytes when written in one
// burst, so the payload goes out in fixed-size chunks with a short pause
// between writes.
package printer

import (
	"context"
	"fmt"
	"io"
	"time"
)

const (
	DefaultChunkSize = 512
	DefaultDelay     = 100 * time.Millisecond
)

// Printer sends byte payloads to an established printer connection.
// Connection setup and device discovery are the caller's concern.
type Printer struct {
	w         io.Writer
	chunkSize int
	delay     time.Duration
}

// New creates a Printer writing to w. Zero chunkSize or delay fall back
// to the defaults.
func New(w io.Writer, chunkSize int, delay time.Duration) *Printer {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Printer{w: w, chunkSize: chunkSize, delay: delay}
}

// Print transfers data sequentially in chunks, pausing after each write.
// One print job per connection at a time; the transfer is cancellable
// between chunks via ctx.
func (p *Printer) Print(ctx context.Context, data []byte) error {
	for start := 0; start < len(data); start += p.chunkSize {
		end := start + p.chunkSize
		if end > len(data) {
			end = len(data)
		}
		if _, err := p.w.Write(data[start:end]); err != nil {
			return fmt.Errorf("write chunk at %d: %w", start, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.delay):
		}
	}
	return nil
}
